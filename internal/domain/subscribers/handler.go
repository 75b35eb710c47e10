package subscribers

import (
	"errors"
	"net/http"

	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/subscriptions", func(sr chi.Router) {
		sr.Post("/checkout", createCheckoutHandler(svc))
		sr.Post("/verify-checkout", verifyCheckoutHandler(svc))
		sr.Post("/check", checkSubscriptionHandler(svc))
		sr.Get("/me", myEntitlementHandler(svc))
	})
}

type createCheckoutRequest struct {
	Plan         PlanInterval `json:"plan" enums:"monthly,yearly"`
	ExtraPets    int          `json:"extra_pets"`
	ReferralCode string       `json:"referral_code"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type verifyCheckoutRequest struct {
	SessionID string `json:"session_id"`
}

type verifyCheckoutResponse struct {
	Email          string       `json:"email"`
	Status         Status       `json:"status"`
	PlanInterval   PlanInterval `json:"plan_interval"`
	Tier           Tier         `json:"tier"`
	PetSlots       int          `json:"pet_slots"`
	FirstTime      bool         `json:"first_time"`
	ReferralLinked bool         `json:"referral_linked"`
}

// createCheckoutHandler godoc
// @Summary Crear checkout de suscripción
// @Description Crea una sesión de checkout (modo suscripción, con trial) para el usuario autenticado.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createCheckoutRequest true "Plan y mascotas extra"
// @Success 200 {object} checkoutResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /subscriptions/checkout [post]
func createCheckoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createCheckoutRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		sess, err := svc.CreateCheckout(r.Context(), CheckoutInput{
			Email:        claims.Email,
			UserID:       claims.UserID,
			Plan:         req.Plan,
			ExtraPets:    req.ExtraPets,
			ReferralCode: req.ReferralCode,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, checkoutResponse{ID: sess.ID, URL: sess.URL})
	}
}

// verifyCheckoutHandler godoc
// @Summary Verificar checkout
// @Description Verifica una sesión de checkout pagada y activa al suscriptor. No exige auth: el comprador puede no tener cuenta todavía (recibe invitación por email).
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param payload body verifyCheckoutRequest true "ID de la sesión"
// @Success 200 {object} verifyCheckoutResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /subscriptions/verify-checkout [post]
func verifyCheckoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyCheckoutRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		userID := ""
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			userID = claims.UserID
		}

		res, err := svc.VerifyCheckout(r.Context(), req.SessionID, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		ent := svc.entitlementOf(res.Subscriber)
		httpx.WriteJSON(w, http.StatusOK, verifyCheckoutResponse{
			Email:          res.Subscriber.Email,
			Status:         res.Subscriber.Status,
			PlanInterval:   res.Subscriber.PlanInterval,
			Tier:           res.Subscriber.Tier,
			PetSlots:       ent.PetSlots,
			FirstTime:      res.FirstTime,
			ReferralLinked: res.ReferralLinked,
		})
	}
}

// checkSubscriptionHandler godoc
// @Summary Consultar estado de suscripción
// @Description Consulta la suscripción en el procesador de pagos, aplica reglas de gracia y devuelve los pet slots.
// @Tags subscriptions
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} Entitlement
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /subscriptions/check [post]
func checkSubscriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if claims.Email == "" {
			httpx.WriteError(w, http.StatusBadRequest, "email required")
			return
		}

		ent, err := svc.CheckSubscription(r.Context(), claims.Email, claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ent)
	}
}

func myEntitlementHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ent, err := svc.Entitlement(r.Context(), claims.Email)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ent)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionRequired),
		errors.Is(err, ErrPaymentIncomplete),
		errors.Is(err, ErrNoEmail),
		errors.Is(err, ErrNotSubscription):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrSessionNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "subscriber not found")
	case errors.Is(err, ErrUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
