package mailer

import (
	"context"

	"contacts_backend/internal/email"
	"contacts_backend/platform/config"
	"contacts_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes queued email tasks and delivers them through the real
// SMTP sender.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender email.Sender
	log    *logger.Logger
}

// NewWorker builds an asynq server bound to the mail queue.
func NewWorker(cfg config.MailerConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetMailQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetMailWorkerConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskSendVerificationEmail, w.handleSendVerificationEmail)
	mux.HandleFunc(TaskSendResetEmail, w.handleSendResetEmail)

	return w, nil
}

// Run serves the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("mail worker stopped", "error", err)
	}
}

func (w *Worker) handleSendVerificationEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEmailPayload(task)
	if err != nil {
		return err
	}
	return w.sender.SendVerificationEmail(ctx, payload.Email, payload.Token, payload.BaseURL)
}

func (w *Worker) handleSendResetEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEmailPayload(task)
	if err != nil {
		return err
	}
	return w.sender.SendResetEmail(ctx, payload.Email, payload.Token, payload.BaseURL)
}
