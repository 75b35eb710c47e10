package reviews

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/reviews", submitReviewHandler(svc))
}

// RegisterPublicRoutes: listado de reviews publicadas (landing).
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/reviews", listPublishedHandler(svc))
}

// RegisterAdminRoutes se monta dentro del grupo /admin (AdminOnly).
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Route("/reviews", func(rr chi.Router) {
		rr.Get("/pending", listPendingHandler(svc))
		rr.Post("/{reviewID}/publish", moderateHandler(svc, StatusPublished))
		rr.Post("/{reviewID}/reject", moderateHandler(svc, StatusRejected))
	})
}

type submitRequest struct {
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	Body        string `json:"body"`
}

type reviewResponse struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Rating      int        `json:"rating"`
	Body        string     `json:"body"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
}

func toResponse(rv Review) reviewResponse {
	return reviewResponse{
		ID:          rv.ID,
		DisplayName: rv.DisplayName,
		Rating:      rv.Rating,
		Body:        rv.Body,
		Status:      rv.Status,
		CreatedAt:   rv.CreatedAt,
		ModeratedAt: rv.ModeratedAt,
	}
}

func toResponses(items []Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(items))
	for _, rv := range items {
		out = append(out, toResponse(rv))
	}
	return out
}

// submitReviewHandler godoc
// @Summary Enviar review
// @Description Guarda una review pendiente de moderación y avisa a los admins.
// @Tags reviews
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body submitRequest true "Review"
// @Success 201 {object} reviewResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /reviews [post]
func submitReviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req submitRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		rv, err := svc.Submit(r.Context(), claims.UserID, SubmitInput{
			DisplayName: req.DisplayName,
			Rating:      req.Rating,
			Body:        req.Body,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toResponse(rv))
	}
}

func listPublishedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Published(r.Context(), queryLimit(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

func listPendingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Pending(r.Context(), queryLimit(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

func moderateHandler(svc *Service, to Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		id := chi.URLParam(r, "reviewID")

		var (
			rv  Review
			err error
		)
		if to == StatusPublished {
			rv, err = svc.Publish(r.Context(), id, claims.Email)
		} else {
			rv, err = svc.Reject(r.Context(), id, claims.Email)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(rv))
	}
}

// queryLimit: ?limit=N; inválido => default del service.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBadState):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
