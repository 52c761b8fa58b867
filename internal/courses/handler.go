package courses

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

// Handler exposes the course catalog and enrollment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *rbac.Gate
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *rbac.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers /api/courses routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Identify())
		r.Get("/", h.listCourses)
		r.Get("/{id}", h.showCourse)
		r.Get("/instructor/{instructorId}", h.listByInstructor)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Protect(shared.RoleInstructor, shared.RoleAdmin))
		r.With(h.gate.Require(rbac.ActionCourseCreate)).Post("/", h.createCourse)
		r.Put("/{id}", h.updateCourse)
		r.Delete("/{id}", h.deleteCourse)
		r.Get("/{id}/enrollments", h.courseEnrollments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Protect(shared.RoleStudent))
		r.Post("/{id}/enroll", h.enroll)
		r.Delete("/{id}/enroll", h.unenroll)
	})
}

// MountStudentRoutes registers /api/student routes.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.With(h.gate.Protect(shared.RoleStudent)).Get("/enrollments", h.myEnrollments)
}

// MountEnrollmentRoutes registers /api/enrollments routes.
func (h *Handler) MountEnrollmentRoutes(r chi.Router) {
	r.With(h.gate.ProtectAll()).Delete("/{id}", h.removeEnrollment)
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status"))}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	h.list(w, r, filter)
}

func (h *Handler) listByInstructor(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := pathID(w, r, "instructorId", "Invalid instructor ID")
	if !ok {
		return
	}
	h.list(w, r, ListFilter{InstructorID: instructorID})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	page, err := h.service.List(r.Context(), callerFrom(r), filter)
	if err != nil {
		h.logger.Error("list courses failed", slog.Any("error", err))
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", page)
}

func (h *Handler) showCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid course ID")
	if !ok {
		return
	}
	course, err := h.service.Get(r.Context(), callerFrom(r), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", course)
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var in CreateCourseInput
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	course, err := h.service.Create(r.Context(), subject(r), in)
	if err != nil {
		h.respond(w, r, "create course", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Course created successfully", course)
}

func (h *Handler) updateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid course ID")
	if !ok {
		return
	}
	var in UpdateCourseInput
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	course, err := h.service.Update(r.Context(), subject(r), id, in)
	if err != nil {
		h.respond(w, r, "update course", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Course updated successfully", course)
}

func (h *Handler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid course ID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), subject(r), id); err != nil {
		h.respond(w, r, "delete course", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Course deleted successfully", nil)
}

func (h *Handler) courseEnrollments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid course ID")
	if !ok {
		return
	}
	items, err := h.service.CourseEnrollments(r.Context(), subject(r), id)
	if err != nil {
		h.respond(w, r, "course enrollments", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", items)
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid course ID")
	if !ok {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())
	enrollment, err := h.service.Enroll(r.Context(), identity, id)
	if err != nil {
		h.respond(w, r, "enroll", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Successfully enrolled in course", enrollment)
}

func (h *Handler) unenroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid course ID")
	if !ok {
		return
	}
	if err := h.service.Unenroll(r.Context(), subject(r), id); err != nil {
		h.respond(w, r, "unenroll", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Successfully unenrolled from course", nil)
}

func (h *Handler) myEnrollments(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.MyEnrollments(r.Context(), subject(r))
	if err != nil {
		h.respond(w, r, "my enrollments", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", items)
}

func (h *Handler) removeEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid enrollment ID")
	if !ok {
		return
	}
	if err := h.service.RemoveEnrollment(r.Context(), subject(r), id); err != nil {
		h.respond(w, r, "remove enrollment", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Enrollment removed", nil)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, err error) {
	if _, ok := shared.AsAccessError(err); ok {
		h.gate.Reject(w, r, err)
		return
	}
	h.logger.Debug(op, slog.Any("error", err))
	httpx.RespondError(w, h.logger, err)
}

func pathID(w http.ResponseWriter, r *http.Request, param, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Reject(w, http.StatusBadRequest, message, "")
		return 0, false
	}
	return id, true
}

func subject(r *http.Request) shared.Subject {
	identity, _ := shared.IdentityFromContext(r.Context())
	return identity.Subject()
}

func callerFrom(r *http.Request) *shared.Subject {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	sub := identity.Subject()
	return &sub
}
