package postmark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"petport/internal/platform/httpclient"
	"petport/internal/platform/metrics"
	"petport/internal/ports/email"
)

var (
	ErrEmailUpstream = errors.New("email upstream error")
)

type Config struct {
	BaseURL string
	Token   string
	From    string

	// Opcional: "outbound" por default.
	MessageStream string
	Timeout       time.Duration
	Transport     http.RoundTripper
}

// Client envía emails transaccionales usando templates (alias) del proveedor.
type Client struct {
	http   *httpclient.Client
	token  string
	from   string
	stream string
}

var _ email.Sender = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://api.postmarkapp.com"
	}
	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base,
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, err
	}
	stream := strings.TrimSpace(cfg.MessageStream)
	if stream == "" {
		stream = "outbound"
	}
	return &Client{
		http:   hc,
		token:  strings.TrimSpace(cfg.Token),
		from:   strings.TrimSpace(cfg.From),
		stream: stream,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.token != "" && c.from != ""
}

type sendRequest struct {
	From          string         `json:"From"`
	To            string         `json:"To"`
	TemplateAlias string         `json:"TemplateAlias"`
	TemplateModel map[string]any `json:"TemplateModel"`
	Tag           string         `json:"Tag,omitempty"`
	MessageStream string         `json:"MessageStream"`
}

type sendResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

func (c *Client) Send(ctx context.Context, msg email.Message) (err error) {
	defer func() { metrics.ObserveEmail(msg.Template, err) }()

	if !c.IsConfigured() {
		return email.ErrNotConfigured
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("email: recipient required")
	}
	if strings.TrimSpace(msg.Template) == "" {
		return errors.New("email: template required")
	}

	model := msg.Model
	if model == nil {
		model = map[string]any{}
	}
	tag := msg.Tag
	if tag == "" {
		tag = msg.Template
	}

	var out sendResponse
	err = c.http.DoJSON(ctx, http.MethodPost, "/email/withTemplate",
		map[string]string{"X-Postmark-Server-Token": c.token},
		sendRequest{
			From:          c.from,
			To:            to,
			TemplateAlias: msg.Template,
			TemplateModel: model,
			Tag:           tag,
			MessageStream: c.stream,
		}, &out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailUpstream, err)
	}
	if out.ErrorCode != 0 {
		return fmt.Errorf("%w: code=%d %s", ErrEmailUpstream, out.ErrorCode, out.Message)
	}
	return nil
}
