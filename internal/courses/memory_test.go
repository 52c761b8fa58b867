package courses

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coursemart/coursemart/internal/shared"
)

type memoryRepo struct {
	mu          sync.Mutex
	courses     map[int64]Course
	enrollments map[int64]Enrollment
	nextCourse  int64
	nextEnroll  int64
	listCalls   int
	listErr     error

	// listStarted and listRelease, when set, hold ListCourses until released.
	listStarted chan struct{}
	listRelease chan struct{}
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		courses:     make(map[int64]Course),
		enrollments: make(map[int64]Enrollment),
		nextCourse:  1,
		nextEnroll:  1,
	}
}

func (m *memoryRepo) seed(c Course) Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.nextCourse
	}
	if c.ID >= m.nextCourse {
		m.nextCourse = c.ID + 1
	}
	m.courses[c.ID] = c
	return c
}

func (m *memoryRepo) ListCourses(ctx context.Context, filter ListFilter) ([]Course, int, error) {
	if m.listRelease != nil {
		m.listStarted <- struct{}{}
		select {
		case <-m.listRelease:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var matched []Course
	for _, c := range m.courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.InstructorID != 0 && c.InstructorID != filter.InstructorID {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	offset := shared.Offset(filter.Page, filter.Limit)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memoryRepo) GetCourse(ctx context.Context, id int64) (Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) CreateCourse(ctx context.Context, ownerID int64, in CreateCourseInput) (Course, error) {
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	return m.seed(Course{
		Title:        in.Title,
		Description:  in.Description,
		InstructorID: ownerID,
		Price:        in.Price,
		ImageURL:     in.ImageURL,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}), nil
}

func (m *memoryRepo) UpdateCourse(ctx context.Context, id int64, in UpdateCourseInput) (Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, shared.ErrNotFound
	}
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Price != nil {
		c.Price = *in.Price
	}
	if in.ImageURL != nil {
		c.ImageURL = *in.ImageURL
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	c.UpdatedAt = time.Now()
	m.courses[id] = c
	return c, nil
}

func (m *memoryRepo) DeleteCourse(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.courses, id)
	for eid, e := range m.enrollments {
		if e.CourseID == id {
			delete(m.enrollments, eid)
		}
	}
	return nil
}

func (m *memoryRepo) CreateEnrollment(ctx context.Context, userID, courseID int64) (Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return Enrollment{}, shared.ErrConflict
		}
	}
	e := Enrollment{ID: m.nextEnroll, UserID: userID, CourseID: courseID, CourseTitle: m.courses[courseID].Title, EnrolledAt: time.Now()}
	m.enrollments[e.ID] = e
	m.nextEnroll++
	return e, nil
}

func (m *memoryRepo) GetEnrollment(ctx context.Context, id int64) (Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return Enrollment{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) DeleteEnrollment(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enrollments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.enrollments, id)
	return nil
}

func (m *memoryRepo) DeleteEnrollmentFor(ctx context.Context, userID, courseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			delete(m.enrollments, id)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memoryRepo) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]Enrollment, error) {
	return m.filterEnrollments(func(e Enrollment) bool { return e.UserID == userID }), nil
}

func (m *memoryRepo) ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]Enrollment, error) {
	return m.filterEnrollments(func(e Enrollment) bool { return e.CourseID == courseID }), nil
}

func (m *memoryRepo) filterEnrollments(keep func(Enrollment) bool) []Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Enrollment
	for _, e := range m.enrollments {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []EnrollmentNotice
	err     error
}

func (n *recordingNotifier) EnrollmentCreated(ctx context.Context, notice EnrollmentNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}
