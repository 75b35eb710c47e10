package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second
)

// Client envuelve *resty.Client con helpers comunes para adapters
// (pagos, email, auth). Un Client por upstream.
type Client struct {
	rc      *resty.Client
	BaseURL string
}

type Options struct {
	BaseURL string
	Timeout time.Duration

	// Reintentos solo ante errores de red; los 4xx/5xx se devuelven como HTTPError.
	RetryCount int

	// Transport opcional (tests).
	Transport http.RoundTripper

	Headers map[string]string
}

// New crea un Client. BaseURL es opcional; sin BaseURL solo acepta URLs absolutas.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base != "" {
		if _, err := url.ParseRequestURI(base); err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		base = strings.TrimRight(base, "/")
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.RetryCount > 0 {
		rc.SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second)
	}
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}
	for k, v := range opts.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		rc.SetHeader(k, v)
	}

	return &Client{rc: rc, BaseURL: base}, nil
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// StatusOf devuelve el status HTTP si err es (o envuelve) un HTTPError, o 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// Request describe una llamada. Solo uno de Form / JSON debería venir.
type Request struct {
	Method  string
	Path    string // URL absoluta o path relativo a BaseURL
	Headers map[string]string
	Query   url.Values
	Form    url.Values
	JSON    any
}

// Do ejecuta el request y devuelve el body crudo (máx 1MB).
// Retorna *HTTPError si el status no es 2xx.
func (c *Client) Do(ctx context.Context, in Request) ([]byte, error) {
	if c == nil || c.rc == nil {
		return nil, errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(in.Path)
	if err != nil {
		return nil, err
	}

	req := c.rc.R().SetContext(ctx)
	for k, v := range in.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.SetHeader(k, v)
	}
	if len(in.Query) > 0 {
		req.SetQueryParamsFromValues(in.Query)
	}
	switch {
	case in.Form != nil:
		req.SetFormDataFromValues(in.Form)
	case in.JSON != nil:
		req.SetHeader("Content-Type", "application/json").SetBody(in.JSON)
	}

	method := in.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := req.Execute(method, fullURL)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do request: %w", err)
	}

	raw := resp.Body()
	if len(raw) > 1<<20 {
		raw = raw[:1<<20]
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	return raw, nil
}

// DoJSON hace un request JSON y decodifica la respuesta en out (opcional).
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	in any,
	out any,
) error {
	raw, err := c.Do(ctx, Request{
		Method:  method,
		Path:    pathOrURL,
		Headers: headers,
		JSON:    in,
	})
	if err != nil {
		return err
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	// Si ya es URL absoluta, úsala tal cual.
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}
