package logsink

import (
	"context"

	"petport/internal/platform/logger"
	"petport/internal/ports/email"
)

type Sender struct {
	log logger.Logger
}

var _ email.Sender = (*Sender)(nil)

func New(log logger.Logger) *Sender {
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(_ context.Context, msg email.Message) error {
	s.log.Info("email (dev, not sent)", map[string]any{
		"to":       msg.To,
		"template": msg.Template,
		"model":    msg.Model,
	})
	return nil
}
