package emailtest

import (
	"context"
	"sync"

	"petport/internal/ports/email"
)

type Recorder struct {
	mu   sync.Mutex
	Sent []email.Message

	// Err, si no es nil, se devuelve en cada Send (y el mensaje no se guarda).
	Err error
}

var _ email.Sender = (*Recorder)(nil)

func (r *Recorder) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, msg)
	return nil
}

// ByTemplate filtra los mensajes enviados con ese template.
func (r *Recorder) ByTemplate(tpl string) []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]email.Message, 0)
	for _, m := range r.Sent {
		if m.Template == tpl {
			out = append(out, m)
		}
	}
	return out
}
