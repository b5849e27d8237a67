package mailer

import (
	"context"
	"fmt"

	"contacts_backend/platform/config"
	"contacts_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues email tasks. It satisfies email.Sender, so the auth
// service does not know delivery is asynchronous: an enqueue failure is a
// send failure from its point of view.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient builds an asynq client from the Redis configuration.
func NewClient(cfg config.MailerConfig, log *logger.Logger) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetMailQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
		log:    log,
	}, nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SendVerificationEmail enqueues an address-confirmation email.
func (c *Client) SendVerificationEmail(ctx context.Context, toEmail, token, baseURL string) error {
	task, err := NewSendVerificationEmailTask(EmailPayload{Email: toEmail, Token: token, BaseURL: baseURL})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue)); err != nil {
		return fmt.Errorf("enqueue verification email: %w", err)
	}
	c.log.EmailEnqueued("verification", toEmail)
	return nil
}

// SendResetEmail enqueues a password-reset email.
func (c *Client) SendResetEmail(ctx context.Context, toEmail, token, baseURL string) error {
	task, err := NewSendResetEmailTask(EmailPayload{Email: toEmail, Token: token, BaseURL: baseURL})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue)); err != nil {
		return fmt.Errorf("enqueue reset email: %w", err)
	}
	c.log.EmailEnqueued("password_reset", toEmail)
	return nil
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
