package courses

import (
	"time"

	"github.com/coursemart/coursemart/internal/rbac"
)

// Status is the publication state of a course.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Course is a listing owned by an instructor.
type Course struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	InstructorID   int64     `json:"instructor_id"`
	InstructorName string    `json:"instructor_name,omitempty"`
	Price          float64   `json:"price"`
	ImageURL       string    `json:"image_url,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PolicyResource returns the shape the policy registry evaluates.
func (c Course) PolicyResource() rbac.CourseResource {
	return rbac.CourseResource{ID: c.ID, OwnerID: c.InstructorID, Status: string(c.Status)}
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CourseID    int64     `json:"course_id"`
	CourseTitle string    `json:"course_title,omitempty"`
	StudentName string    `json:"student_name,omitempty"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// PolicyResource returns the shape the policy registry evaluates.
func (e Enrollment) PolicyResource() rbac.EnrollmentResource {
	return rbac.EnrollmentResource{UserID: e.UserID}
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Status       Status
	InstructorID int64
	Page         int
	Limit        int
}

// CreateCourseInput carries the fields of a new course.
type CreateCourseInput struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Status      Status  `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// UpdateCourseInput carries a partial update; nil fields are left untouched.
type UpdateCourseInput struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
	Status      *Status  `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// EnrollmentNotice is emitted after a successful enrollment.
type EnrollmentNotice struct {
	EnrollmentID int64
	UserID       int64
	Email        string
	CourseID     int64
	CourseTitle  string
}
