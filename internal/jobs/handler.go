package jobs

import (
	"errors"
	"net/http"

	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta POST /jobs/{name}; el caller lo envuelve con CronAuth.
func RegisterRoutes(r chi.Router, runner *Runner) {
	r.Get("/jobs", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"jobs": runner.Names()})
	})
	r.Post("/jobs/{name}", runJobHandler(runner))
}

// runJobHandler godoc
// @Summary Ejecutar job batch
// @Description Corre un job (approve-referrals, payout-referrals, send-scheduled-gifts, expire-gifts, gift-renewal-reminders, integrity-check). Requiere Bearer CRON_SECRET.
// @Tags jobs
// @Produce json
// @Param Authorization header string true "Bearer CRON_SECRET"
// @Param name path string true "Nombre del job"
// @Success 200 {object} Result
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} Result
// @Router /jobs/{name} [post]
func runJobHandler(runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := runner.Run(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			if errors.Is(err, ErrUnknownJob) {
				httpx.WriteError(w, http.StatusNotFound, err.Error())
				return
			}
			if res.Job == "" {
				httpx.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
			httpx.WriteJSON(w, http.StatusInternalServerError, res)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}
