package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

const catalogQueryTimeout = 10 * time.Second

// Notifier is told about new enrollments. Failures never undo the enrollment.
type Notifier interface {
	EnrollmentCreated(ctx context.Context, notice EnrollmentNotice) error
}

// Page is one page of a catalog listing.
type Page struct {
	Courses    []Course          `json:"courses"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service holds the course catalog and enrollment rules. Every mutation loads
// the target first (absent → 404) and then asks the policy registry.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	catalog  singleflight.Group
}

// NewService builds a Service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// List returns a page of courses. Callers without course:view-all only see
// published courses, whatever status they asked for.
func (s *Service) List(ctx context.Context, caller *shared.Subject, filter ListFilter) (Page, error) {
	if caller == nil || !rbac.Allowed(*caller, rbac.ActionCourseViewAll, nil) {
		filter.Status = StatusPublished
	}
	filter.Page, filter.Limit = shared.NormalizePage(filter.Page, filter.Limit)
	key := fmt.Sprintf("%s|%d|%d|%d", filter.Status, filter.InstructorID, filter.Page, filter.Limit)
	res := s.catalog.DoChan(key, func() (any, error) {
		// Shared by every waiter on key: one caller going away must not
		// cancel the query for the others.
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogQueryTimeout)
		defer cancel()
		items, total, err := s.repo.ListCourses(qctx, filter)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Course{}
		}
		return Page{Courses: items, Pagination: shared.NewPagination(filter.Page, filter.Limit, total)}, nil
	})
	select {
	case <-ctx.Done():
		return Page{}, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return Page{}, r.Err
		}
		return r.Val.(Page), nil
	}
}

// Get returns a course. Unpublished courses are only visible to callers allowed
// to update them.
func (s *Service) Get(ctx context.Context, caller *shared.Subject, id int64) (Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if course.Status != StatusPublished {
		if caller == nil || !rbac.Allowed(*caller, rbac.ActionCourseUpdate, course.PolicyResource()) {
			return Course{}, shared.NotFound("Course")
		}
	}
	return course, nil
}

// Create stores a new course owned by the caller.
func (s *Service) Create(ctx context.Context, caller shared.Subject, in CreateCourseInput) (Course, error) {
	if err := rbac.Check(caller, rbac.ActionCourseCreate, nil); err != nil {
		return Course{}, err
	}
	return s.repo.CreateCourse(ctx, caller.ID, in)
}

// Update modifies a course the caller owns (or any course for admins).
func (s *Service) Update(ctx context.Context, caller shared.Subject, id int64, in UpdateCourseInput) (Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err := rbac.Check(caller, rbac.ActionCourseUpdate, course.PolicyResource()); err != nil {
		return Course{}, withMessage(err, "Not authorized to update this course")
	}
	return s.repo.UpdateCourse(ctx, id, in)
}

// Delete removes a course the caller owns (or any course for admins).
func (s *Service) Delete(ctx context.Context, caller shared.Subject, id int64) error {
	course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.Check(caller, rbac.ActionCourseDelete, course.PolicyResource()); err != nil {
		return withMessage(err, "Not authorized to delete this course")
	}
	return s.repo.DeleteCourse(ctx, id)
}

// CourseEnrollments lists the students of a course; restricted to its owner and admins.
func (s *Service) CourseEnrollments(ctx context.Context, caller shared.Subject, id int64) ([]Enrollment, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(caller, rbac.ActionCourseUpdate, course.PolicyResource()); err != nil {
		return nil, withMessage(err, "You can only view enrollments for your own courses")
	}
	return nonNil(s.repo.ListEnrollmentsByCourse(ctx, id))
}

// Enroll enrolls the calling student in a published course.
func (s *Service) Enroll(ctx context.Context, caller shared.Identity, courseID int64) (Enrollment, error) {
	if err := rbac.Check(caller.Subject(), rbac.ActionCourseEnroll, nil); err != nil {
		return Enrollment{}, err
	}
	course, err := s.load(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if course.Status != StatusPublished {
		return Enrollment{}, shared.NotFound("Course")
	}
	enrollment, err := s.repo.CreateEnrollment(ctx, caller.ID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if s.notifier != nil {
		notice := EnrollmentNotice{
			EnrollmentID: enrollment.ID,
			UserID:       caller.ID,
			Email:        caller.Email,
			CourseID:     course.ID,
			CourseTitle:  course.Title,
		}
		if err := s.notifier.EnrollmentCreated(ctx, notice); err != nil {
			s.logger.Warn("enrollment notification", slog.Int64("enrollment_id", enrollment.ID), slog.Any("error", err))
		}
	}
	return enrollment, nil
}

// Unenroll removes the calling student from a course.
func (s *Service) Unenroll(ctx context.Context, caller shared.Subject, courseID int64) error {
	if err := rbac.Check(caller, rbac.ActionCourseUnenroll, nil); err != nil {
		return err
	}
	if err := s.repo.DeleteEnrollmentFor(ctx, caller.ID, courseID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Enrollment")
		}
		return err
	}
	return nil
}

// MyEnrollments lists the caller's enrollments.
func (s *Service) MyEnrollments(ctx context.Context, caller shared.Subject) ([]Enrollment, error) {
	return nonNil(s.repo.ListEnrollmentsByUser(ctx, caller.ID))
}

// RemoveEnrollment deletes an enrollment by id, for staff or the enrolled student.
func (s *Service) RemoveEnrollment(ctx context.Context, caller shared.Subject, id int64) error {
	enrollment, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Enrollment")
		}
		return err
	}
	if err := rbac.Check(caller, rbac.ActionEnrollmentManage, enrollment.PolicyResource()); err != nil {
		return err
	}
	return s.repo.DeleteEnrollment(ctx, id)
}

func (s *Service) load(ctx context.Context, id int64) (Course, error) {
	course, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Course{}, shared.NotFound("Course")
		}
		return Course{}, err
	}
	return course, nil
}

func withMessage(err error, message string) error {
	if ae, ok := shared.AsAccessError(err); ok && ae.Kind == shared.KindForbidden {
		return shared.Forbidden(message, ae.Detail)
	}
	return err
}

func nonNil(items []Enrollment, err error) ([]Enrollment, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Enrollment{}
	}
	return items, nil
}
