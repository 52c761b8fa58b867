package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEnrollmentConfirmation sends the enrollment confirmation email.
	TaskEnrollmentConfirmation = "enrollment:confirm"
)

// EnrollmentConfirmationPayload describes the information required to confirm an enrollment.
type EnrollmentConfirmationPayload struct {
	EnrollmentID int64  `json:"enrollment_id"`
	UserID       int64  `json:"user_id"`
	To           string `json:"to"`
	CourseID     int64  `json:"course_id"`
	CourseTitle  string `json:"course_title"`
}

// NewEnrollmentConfirmationTask constructs an Asynq task.
func NewEnrollmentConfirmationTask(payload EnrollmentConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrollmentConfirmation, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *slog.Logger
	From   string
}

// Send logs the message.
func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Logger.Info("send email", slog.String("from", m.From), slog.String("to", to), slog.String("subject", subject))
	return nil
}

// EnrollmentConfirmationHandler processes TaskEnrollmentConfirmation tasks.
func EnrollmentConfirmationHandler(mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload EnrollmentConfirmationPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		if payload.To == "" {
			return fmt.Errorf("jobs: enrollment %d has no recipient: %w", payload.EnrollmentID, asynq.SkipRetry)
		}
		subject := "You are enrolled in " + payload.CourseTitle
		body := fmt.Sprintf("Your enrollment #%d in %q is confirmed.", payload.EnrollmentID, payload.CourseTitle)
		return mailer.Send(ctx, payload.To, subject, body)
	}
}
