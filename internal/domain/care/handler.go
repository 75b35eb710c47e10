package care

import (
	"errors"
	"net/http"
	"time"

	"petport/internal/domain/pets"
	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/pets/{petID}/care", getCareHandler(svc))
	r.Put("/pets/{petID}/care", putCareHandler(svc))
}

type careRequest struct {
	Feeding         string `json:"feeding"`
	Medication      string `json:"medication"`
	Exercise        string `json:"exercise"`
	Behavior        string `json:"behavior"`
	Grooming        string `json:"grooming"`
	Other           string `json:"other"`
	NotifyCaretaker bool   `json:"notify_caretaker"`
}

type careResponse struct {
	PetID      string     `json:"pet_id"`
	Feeding    string     `json:"feeding"`
	Medication string     `json:"medication"`
	Exercise   string     `json:"exercise"`
	Behavior   string     `json:"behavior"`
	Grooming   string     `json:"grooming"`
	Other      string     `json:"other"`
	UpdatedBy  string     `json:"updated_by,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	Notified   bool       `json:"caretaker_notified"`
}

func toResponse(in Instructions, notified bool) careResponse {
	out := careResponse{
		PetID:      in.PetID,
		Feeding:    in.Feeding,
		Medication: in.Medication,
		Exercise:   in.Exercise,
		Behavior:   in.Behavior,
		Grooming:   in.Grooming,
		Other:      in.Other,
		UpdatedBy:  in.UpdatedBy,
		Notified:   notified,
	}
	if !in.UpdatedAt.IsZero() {
		t := in.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func getCareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		in, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(in, false))
	}
}

// putCareHandler godoc
// @Summary Guardar instrucciones de cuidado
// @Description Reemplaza las instrucciones. Con notify_caretaker avisa por email al cuidador (si tiene email).
// @Tags care
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body careRequest true "Instrucciones"
// @Success 200 {object} careResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID}/care [put]
func putCareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req careRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		res, err := svc.Put(r.Context(), chi.URLParam(r, "petID"), claims.UserID, PutInput{
			Feeding:         req.Feeding,
			Medication:      req.Medication,
			Exercise:        req.Exercise,
			Behavior:        req.Behavior,
			Grooming:        req.Grooming,
			Other:           req.Other,
			NotifyCaretaker: req.NotifyCaretaker,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(res.Instructions, res.Notified))
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	if pets.WriteError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
