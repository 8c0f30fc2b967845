package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/contactbox/apiserver/internal/auth"
	"github.com/contactbox/apiserver/internal/mq"
	"github.com/rs/zerolog"
)

const confirmationSubject = "Email confirmation"

var confirmationTemplate = template.Must(template.New("verify_email").Parse(`<html>
<body>
<p>Hello {{.Username}},</p>
<p>Please confirm your email address by following the link below:</p>
<p><a href="{{.ConfirmURL}}">Confirm email</a></p>
<p>If you did not sign up for this account, ignore this message.</p>
</body>
</html>
`))

// Worker consumes email tasks from the queue and delivers them over SMTP.
// A task that cannot be delivered is logged and acknowledged; the queue is
// not used as a retry loop.
type Worker struct {
	backend mq.Backend
	sender  Sender
	tokens  *auth.TokenManager
	log     zerolog.Logger
}

func NewWorker(backend mq.Backend, sender Sender, tokens *auth.TokenManager, log zerolog.Logger) *Worker {
	return &Worker{
		backend: backend,
		sender:  sender,
		tokens:  tokens,
		log:     log,
	}
}

// Run blocks consuming the confirmation queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.backend.Subscribe(ctx, QueueName, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var task Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		w.log.Error().Err(err).Str("message_id", msg.ID).Msg("decode email task")
		return nil
	}

	body, err := w.render(task)
	if err != nil {
		w.log.Error().Err(err).Str("email", task.Email).Msg("render confirmation email")
		return nil
	}

	if err := w.sender.Send(task.Email, confirmationSubject, body); err != nil {
		w.log.Error().Err(err).Str("email", task.Email).Msg("send confirmation email")
		return nil
	}

	w.log.Info().Str("email", task.Email).Msg("confirmation email sent")
	return nil
}

func (w *Worker) render(task Task) (string, error) {
	token, err := w.tokens.CreateEmailToken(task.Email)
	if err != nil {
		return "", err
	}

	confirmURL := fmt.Sprintf("%s/auth/confirmed_email/%s", strings.TrimRight(task.BaseURL, "/"), token)

	var body strings.Builder
	if err := confirmationTemplate.Execute(&body, struct {
		Username   string
		ConfirmURL string
	}{
		Username:   task.Username,
		ConfirmURL: confirmURL,
	}); err != nil {
		return "", err
	}
	return body.String(), nil
}
