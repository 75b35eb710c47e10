package share

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"petport/internal/platform/httpx"
	"petport/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const cacheControl = "public, max-age=300"

var (
	idRe   = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)
	codeRe = regexp.MustCompile(`^[A-Za-z0-9-]{3,32}$`)
)

type Config struct {
	AppURL       string
	ImageBaseURL string
}

type Handler struct {
	cfg Config
	log logger.Logger
}

func NewHandler(cfg Config, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &Handler{cfg: cfg, log: log}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/share", func(sr chi.Router) {
		sr.Get("/pets/{petID}", h.serve(KindPet, "petID", idRe))
		sr.Get("/lost/{petID}", h.serve(KindLost, "petID", idRe))
		sr.Get("/referral/{code}", h.serve(KindReferral, "code", codeRe))
	})
}

// Target arma la URL del SPA para cada tipo de link.
func (h *Handler) Target(kind Kind, ref string) string {
	ref = url.PathEscape(ref)
	switch kind {
	case KindLost:
		return h.cfg.AppURL + "/lost/" + ref
	case KindReferral:
		return h.cfg.AppURL + "/?ref=" + url.QueryEscape(ref)
	default:
		return h.cfg.AppURL + "/pet/" + ref
	}
}

func (h *Handler) serve(kind Kind, param string, valid *regexp.Regexp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, param)
		if !valid.MatchString(ref) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid "+param)
			return
		}
		target := h.Target(kind, ref)
		w.Header().Set("Cache-Control", cacheControl)

		if !IsCrawler(r.UserAgent()) {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		data := pageData{Page: buildPage(kind, h.cfg.ImageBaseURL, target), DelayMs: redirectDelayMs}
		if err := pageTmpl.Execute(w, data); err != nil {
			h.log.Warn("share page render failed", map[string]any{"kind": string(kind), "error": err})
		}
	}
}
