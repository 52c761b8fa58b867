package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursemart/coursemart/internal/platform/db"
	"github.com/coursemart/coursemart/internal/shared"
)

// Repository defines persistence for courses and enrollments. Lookups of a
// missing row return shared.ErrNotFound.
type Repository interface {
	ListCourses(ctx context.Context, filter ListFilter) ([]Course, int, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	CreateCourse(ctx context.Context, ownerID int64, in CreateCourseInput) (Course, error)
	UpdateCourse(ctx context.Context, id int64, in UpdateCourseInput) (Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	CreateEnrollment(ctx context.Context, userID, courseID int64) (Enrollment, error)
	GetEnrollment(ctx context.Context, id int64) (Enrollment, error)
	DeleteEnrollment(ctx context.Context, id int64) error
	DeleteEnrollmentFor(ctx context.Context, userID, courseID int64) error
	ListEnrollmentsByUser(ctx context.Context, userID int64) ([]Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]Enrollment, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const courseSelect = `SELECT c.id, c.title, COALESCE(c.description, ''), c.instructor_id, COALESCE(u.name, ''),
	c.price, COALESCE(c.image_url, ''), c.status, c.created_at, c.updated_at
	FROM courses c LEFT JOIN users u ON u.id = c.instructor_id`

// ListCourses returns a page of courses and the total row count.
func (r *PGRepository) ListCourses(ctx context.Context, filter ListFilter) ([]Course, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if filter.InstructorID != 0 {
		args = append(args, filter.InstructorID)
		where = append(where, fmt.Sprintf("c.instructor_id = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM courses c`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("courses: count: %w", err)
	}

	page, limit := shared.NormalizePage(filter.Page, filter.Limit)
	args = append(args, limit, shared.Offset(page, limit))
	query := fmt.Sprintf("%s%s ORDER BY c.created_at DESC, c.id DESC LIMIT $%d OFFSET $%d", courseSelect, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("courses: list: %w", err)
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, course)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetCourse fetches a course by id.
func (r *PGRepository) GetCourse(ctx context.Context, id int64) (Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, courseSelect+` WHERE c.id = $1`, id))
}

// CreateCourse inserts a course owned by ownerID.
func (r *PGRepository) CreateCourse(ctx context.Context, ownerID int64, in CreateCourseInput) (Course, error) {
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (title, description, instructor_id, price, image_url, status)
		 VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6) RETURNING id`,
		in.Title, in.Description, ownerID, in.Price, in.ImageURL, string(status)).Scan(&id)
	if err != nil {
		return Course{}, fmt.Errorf("courses: create: %w", err)
	}
	return r.GetCourse(ctx, id)
}

// UpdateCourse applies the non-nil fields of in.
func (r *PGRepository) UpdateCourse(ctx context.Context, id int64, in UpdateCourseInput) (Course, error) {
	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE courses SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			image_url = COALESCE($5, image_url),
			status = COALESCE($6, status),
			updated_at = now()
		 WHERE id = $1`,
		id, in.Title, in.Description, in.Price, in.ImageURL, status)
	if err != nil {
		return Course{}, fmt.Errorf("courses: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Course{}, shared.ErrNotFound
	}
	return r.GetCourse(ctx, id)
}

// DeleteCourse removes a course together with its enrollments.
func (r *PGRepository) DeleteCourse(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1`, id); err != nil {
			return fmt.Errorf("courses: delete enrollments: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("courses: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

const enrollmentSelect = `SELECT e.id, e.user_id, e.course_id, COALESCE(c.title, ''), COALESCE(u.name, ''), e.enrolled_at
	FROM enrollments e
	LEFT JOIN courses c ON c.id = e.course_id
	LEFT JOIN users u ON u.id = e.user_id`

// CreateEnrollment enrolls userID in courseID. A duplicate yields shared.ErrConflict.
func (r *PGRepository) CreateEnrollment(ctx context.Context, userID, courseID int64) (Enrollment, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2) RETURNING id`, userID, courseID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Enrollment{}, fmt.Errorf("courses: already enrolled in this course: %w", shared.ErrConflict)
		}
		return Enrollment{}, fmt.Errorf("courses: enroll: %w", err)
	}
	return r.GetEnrollment(ctx, id)
}

// GetEnrollment fetches an enrollment by id.
func (r *PGRepository) GetEnrollment(ctx context.Context, id int64) (Enrollment, error) {
	return scanEnrollment(r.pool.QueryRow(ctx, enrollmentSelect+` WHERE e.id = $1`, id))
}

// DeleteEnrollment removes an enrollment by id.
func (r *PGRepository) DeleteEnrollment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("courses: delete enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteEnrollmentFor removes the enrollment of userID in courseID.
func (r *PGRepository) DeleteEnrollmentFor(ctx context.Context, userID, courseID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return fmt.Errorf("courses: unenroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListEnrollmentsByUser returns the enrollments of a student.
func (r *PGRepository) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]Enrollment, error) {
	return r.listEnrollments(ctx, enrollmentSelect+` WHERE e.user_id = $1 ORDER BY e.enrolled_at DESC`, userID)
}

// ListEnrollmentsByCourse returns the enrollments of a course.
func (r *PGRepository) ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]Enrollment, error) {
	return r.listEnrollments(ctx, enrollmentSelect+` WHERE e.course_id = $1 ORDER BY e.enrolled_at DESC`, courseID)
}

func (r *PGRepository) listEnrollments(ctx context.Context, query string, arg int64) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("courses: list enrollments: %w", err)
	}
	defer rows.Close()
	var out []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanCourse(row pgx.Row) (Course, error) {
	var (
		c      Course
		status string
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.InstructorName,
		&c.Price, &c.ImageURL, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, shared.ErrNotFound
		}
		return Course{}, err
	}
	c.Status = Status(status)
	return c, nil
}

func scanEnrollment(row pgx.Row) (Enrollment, error) {
	var e Enrollment
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CourseTitle, &e.StudentName, &e.EnrolledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Enrollment{}, shared.ErrNotFound
		}
		return Enrollment{}, err
	}
	return e, nil
}

var _ Repository = (*PGRepository)(nil)
