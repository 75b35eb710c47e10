package gifts

import (
	"errors"
	"net/http"
	"time"

	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /gifts. redeemLimit (opcional) limita los intentos de canje por cliente.
func RegisterRoutes(r chi.Router, svc *Service, redeemLimit func(http.Handler) http.Handler) {
	r.Route("/gifts", func(gr chi.Router) {
		gr.Post("/checkout", giftCheckoutHandler(svc))
		gr.Post("/verify", verifyPurchaseHandler(svc))
		if redeemLimit != nil {
			gr.With(redeemLimit).Post("/redeem", redeemHandler(svc))
		} else {
			gr.Post("/redeem", redeemHandler(svc))
		}
	})
}

// RegisterAdminRoutes se monta dentro del grupo /admin (AdminOnly).
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/gifts", listGiftsHandler(svc))
	r.Post("/gifts/recover", recoverGiftHandler(svc))
}

type giftCheckoutRequest struct {
	PurchaserEmail string `json:"purchaser_email"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	Message        string `json:"message"`
	AdditionalPets int    `json:"additional_pets"`
	SendDate       string `json:"send_date" example:"2026-12-24"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type redeemRequest struct {
	Code string `json:"code"`
}

type giftResponse struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	PurchaserEmail string     `json:"purchaser_email"`
	RecipientEmail string     `json:"recipient_email"`
	RecipientName  string     `json:"recipient_name,omitempty"`
	Message        string     `json:"message,omitempty"`
	AdditionalPets int        `json:"additional_pets"`
	Status         Status     `json:"status"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type scheduledResponse struct {
	ID                string         `json:"id"`
	RecipientEmail    string         `json:"recipient_email"`
	ScheduledSendDate string         `json:"scheduled_send_date"`
	Status            ScheduleStatus `json:"status"`
}

type verifyResponse struct {
	Scheduled        bool               `json:"scheduled"`
	AlreadyProcessed bool               `json:"already_processed"`
	Gift             *giftResponse      `json:"gift,omitempty"`
	ScheduledGift    *scheduledResponse `json:"scheduled_gift,omitempty"`
}

type recoverResponse struct {
	Created bool         `json:"created"`
	Gift    giftResponse `json:"gift"`
}

func toGiftResponse(g GiftMembership) giftResponse {
	return giftResponse{
		ID:             g.ID,
		Code:           g.Code,
		PurchaserEmail: g.PurchaserEmail,
		RecipientEmail: g.RecipientEmail,
		RecipientName:  g.RecipientName,
		Message:        g.Message,
		AdditionalPets: g.AdditionalPets,
		Status:         g.Status,
		ActivatedAt:    g.ActivatedAt,
		ExpiresAt:      g.ExpiresAt,
		CreatedAt:      g.CreatedAt,
	}
}

// giftCheckoutHandler godoc
// @Summary Comprar una membresía de regalo
// @Description Crea una sesión de pago único para un gift. Si hay sesión, el comprador es el usuario autenticado.
// @Tags gifts
// @Accept json
// @Produce json
// @Param payload body giftCheckoutRequest true "Datos del gift"
// @Success 200 {object} checkoutResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /gifts/checkout [post]
func giftCheckoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req giftCheckoutRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if claims, ok := middleware.GetClaims(r.Context()); ok && claims.Email != "" {
			req.PurchaserEmail = claims.Email
		}

		sess, err := svc.Checkout(r.Context(), CheckoutInput{
			PurchaserEmail: req.PurchaserEmail,
			RecipientEmail: req.RecipientEmail,
			RecipientName:  req.RecipientName,
			Message:        req.Message,
			AdditionalPets: req.AdditionalPets,
			SendDate:       req.SendDate,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, checkoutResponse{ID: sess.ID, URL: sess.URL})
	}
}

// verifyPurchaseHandler godoc
// @Summary Verificar compra de gift
// @Description Procesa una sesión pagada: crea el gift (o lo programa). Idempotente por sesión.
// @Tags gifts
// @Accept json
// @Produce json
// @Param payload body sessionRequest true "Sesión de checkout"
// @Success 200 {object} verifyResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /gifts/verify [post]
func verifyPurchaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		res, err := svc.VerifyPurchase(r.Context(), req.SessionID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := verifyResponse{AlreadyProcessed: res.AlreadyProcessed}
		if res.Gift != nil {
			g := toGiftResponse(*res.Gift)
			// el código se entrega por email al destinatario
			g.Code = ""
			out.Gift = &g
		}
		if res.Scheduled != nil {
			out.Scheduled = true
			out.ScheduledGift = &scheduledResponse{
				ID:                res.Scheduled.ID,
				RecipientEmail:    res.Scheduled.RecipientEmail,
				ScheduledSendDate: res.Scheduled.ScheduledSendDate.Format(dateLayout),
				Status:            res.Scheduled.Status,
			}
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// redeemHandler godoc
// @Summary Canjear un gift
// @Description Activa el gift para la cuenta autenticada. Un código solo se canjea una vez.
// @Tags gifts
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body redeemRequest true "Código del gift"
// @Success 200 {object} giftResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "gift code not found"
// @Failure 409 {object} httpx.ErrorResponse "gift already redeemed or expired"
// @Failure 429 {object} httpx.ErrorResponse
// @Router /gifts/redeem [post]
func redeemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req redeemRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		g, err := svc.Redeem(r.Context(), claims.UserID, claims.Email, req.Code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toGiftResponse(g))
	}
}

func listGiftsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]giftResponse, 0, len(list))
		for _, g := range list {
			out = append(out, toGiftResponse(g))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// recoverGiftHandler godoc
// @Summary Recuperar gift (admin)
// @Description Re-crea el gift de una sesión pagada cuyo registro no se guardó.
// @Tags admin
// @Accept json
// @Produce json
// @Param payload body sessionRequest true "Sesión de checkout"
// @Success 200 {object} recoverResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /admin/gifts/recover [post]
func recoverGiftHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		g, created, err := svc.Recover(r.Context(), req.SessionID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, recoverResponse{Created: created, Gift: toGiftResponse(g)})
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrSessionRequired), errors.Is(err, ErrPaymentIncomplete), errors.Is(err, ErrNotGiftSession):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrGiftNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrAlreadyRedeemed):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
