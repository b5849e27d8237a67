// Package mailer provides asynchronous email dispatch on top of asynq.
// The Client implements email.Sender by enqueuing tasks; the Worker consumes
// them and delivers through the real SMTP sender. This replaces in-request
// SMTP round-trips for the account emails.
package mailer

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSendVerificationEmail = "email.send_verification"

const TaskSendResetEmail = "email.send_reset"

// EmailPayload carries everything a worker needs to render and send one of
// the account emails.
type EmailPayload struct {
	Email   string `json:"email"`
	Token   string `json:"token"`
	BaseURL string `json:"baseUrl"`
}

func NewSendVerificationEmailTask(payload EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendVerificationEmail, data), nil
}

func NewSendResetEmailTask(payload EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendResetEmail, data), nil
}

func ParseEmailPayload(task *asynq.Task) (EmailPayload, error) {
	var payload EmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EmailPayload{}, err
	}
	return payload, nil
}
