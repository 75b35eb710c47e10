package referrals

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"petport/internal/domain/subscribers"
	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/referrals", func(rr chi.Router) {
		rr.Get("/code", myCodeHandler(svc))
		rr.Get("/me", myReferralsHandler(svc))
		rr.Post("/link", linkReferralHandler(svc))
		rr.Post("/payout-onboarding", payoutOnboardingHandler(svc))
	})
}

// RegisterAdminRoutes se monta dentro del grupo /admin (AdminOnly).
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/referrals/export", exportReferralsHandler(svc))
}

type codeResponse struct {
	Code     string `json:"code"`
	ShareURL string `json:"share_url"`
}

type referralResponse struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	ReferredEmail    string           `json:"referred_email"`
	PlanInterval     string           `json:"plan_interval"`
	CommissionStatus CommissionStatus `json:"commission_status"`
	CommissionCents  int64            `json:"commission_cents"`
	TrialCompletedAt time.Time        `json:"trial_completed_at"`
	ApprovalDue      time.Time        `json:"approval_due"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
}

type myReferralsResponse struct {
	Summary
	Items []referralResponse `json:"items"`
}

type linkRequest struct {
	Code string `json:"code"`
}

// myCodeHandler godoc
// @Summary Obtener mi código de referido
// @Description Devuelve el código de referido del usuario; lo crea la primera vez.
// @Tags referrals
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} codeResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /referrals/code [get]
func myCodeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		c, err := svc.MyCode(r.Context(), claims.UserID, claims.Email)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, codeResponse{
			Code:     c.Code,
			ShareURL: strings.TrimRight(svc.cfg.AppURL, "/") + "/share/referral/" + c.Code,
		})
	}
}

func myReferralsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		sum, err := svc.MyReferrals(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		items := make([]referralResponse, 0, len(sum.Referrals))
		for _, ref := range sum.Referrals {
			items = append(items, referralResponse{
				ID:               ref.ID,
				Code:             ref.Code,
				ReferredEmail:    ref.ReferredEmail,
				PlanInterval:     string(ref.PlanInterval),
				CommissionStatus: ref.CommissionStatus,
				CommissionCents:  ref.CommissionCents,
				TrialCompletedAt: ref.TrialCompletedAt,
				ApprovalDue:      ApprovalDue(ref.TrialCompletedAt),
				ApprovedAt:       ref.ApprovedAt,
				PaidAt:           ref.PaidAt,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, myReferralsResponse{Summary: sum, Items: items})
	}
}

// linkReferralHandler godoc
// @Summary Vincular código de referido
// @Description Vincula el usuario autenticado (con plan anual confirmado) al código de un referidor.
// @Tags referrals
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body linkRequest true "Código de referido"
// @Success 201 {object} referralResponse
// @Failure 400 {object} httpx.ErrorResponse "código vacío / auto-referido / plan no anual"
// @Failure 404 {object} httpx.ErrorResponse "referral code not found"
// @Failure 409 {object} httpx.ErrorResponse "email already linked to a referral"
// @Router /referrals/link [post]
func linkReferralHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req linkRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		ref, err := svc.Link(r.Context(), subscribers.ReferralLink{
			Code:           req.Code,
			ReferredUserID: claims.UserID,
			ReferredEmail:  claims.Email,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, referralResponse{
			ID:               ref.ID,
			Code:             ref.Code,
			ReferredEmail:    ref.ReferredEmail,
			PlanInterval:     string(ref.PlanInterval),
			CommissionStatus: ref.CommissionStatus,
			CommissionCents:  ref.CommissionCents,
			TrialCompletedAt: ref.TrialCompletedAt,
			ApprovalDue:      ApprovalDue(ref.TrialCompletedAt),
		})
	}
}

func payoutOnboardingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		res, err := svc.StartPayoutOnboarding(r.Context(), claims.UserID, claims.Email)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}

// exportReferralsHandler godoc
// @Summary Exportar comisiones (admin)
// @Description Descarga un .xlsx con todas las comisiones de referidos y totales por referidor.
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 403 {object} httpx.ErrorResponse
// @Router /admin/referrals/export [get]
func exportReferralsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := fmt.Sprintf("referrals-%s.xlsx", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		if err := svc.WriteExport(r.Context(), w); err != nil {
			svc.log.Error("referral export failed", map[string]any{"error": err})
			// los headers ya pueden haber salido; no hay más que hacer
			return
		}
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrSelfReferral), errors.Is(err, ErrNotYearly):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCodeNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrAlreadyLinked):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
