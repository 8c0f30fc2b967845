package mailer

import (
	"context"
	"encoding/json"

	"github.com/contactbox/apiserver/internal/mq"
	"github.com/rs/zerolog"
)

// QueueName is the broker channel carrying confirmation email tasks.
const QueueName = "email.confirmation"

// Task describes one confirmation email to deliver.
type Task struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	BaseURL  string `json:"base_url"`
}

// Dispatcher enqueues email tasks onto the message queue. Enqueueing is
// fire-and-forget: failures are logged and never propagate to the caller's
// HTTP response.
type Dispatcher struct {
	backend mq.Backend
	log     zerolog.Logger
}

func NewDispatcher(backend mq.Backend, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{backend: backend, log: log}
}

// Enqueue publishes the task and returns without waiting for the broker.
// The publish runs on its own goroutine with a context detached from the
// request, so a slow broker cannot delay the caller's HTTP response.
func (d *Dispatcher) Enqueue(ctx context.Context, task Task) {
	data, err := json.Marshal(task)
	if err != nil {
		d.log.Error().Err(err).Str("email", task.Email).Msg("encode email task")
		return
	}

	publishCtx := context.WithoutCancel(ctx)
	go func() {
		id, err := d.backend.Publish(publishCtx, QueueName, data, nil)
		if err != nil {
			d.log.Error().Err(err).Str("email", task.Email).Msg("enqueue email task")
			return
		}
		d.log.Debug().Str("message_id", id).Str("email", task.Email).Msg("email task enqueued")
	}()
}
