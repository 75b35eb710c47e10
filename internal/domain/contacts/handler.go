package contacts

import (
	"errors"
	"net/http"

	"petport/internal/domain/pets"
	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/contacts", func(cr chi.Router) {
		cr.Get("/", listContactsHandler(svc))
		cr.Put("/{type}", upsertContactHandler(svc))
		cr.Delete("/{type}", deleteContactHandler(svc))
	})
}

type upsertRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

type contactResponse struct {
	ID     string `json:"id,omitempty"`
	Type   Type   `json:"type"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Legacy bool   `json:"legacy"`
}

func toResponse(c Contact) contactResponse {
	return contactResponse{
		ID:     c.ID,
		Type:   c.Type,
		Name:   c.Name,
		Phone:  c.Phone,
		Email:  c.Email,
		Notes:  c.Notes,
		Legacy: c.Legacy,
	}
}

// listContactsHandler godoc
// @Summary Contactos de la mascota
// @Description Devuelve los contactos en orden emergency, secondary_emergency, veterinary, caretaker. Si no hay contactos cargados se parsea el texto libre.
// @Tags contacts
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} contactResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID}/contacts [get]
func listContactsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		list, err := svc.List(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]contactResponse, 0, len(list))
		for _, c := range list {
			out = append(out, toResponse(c))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func upsertContactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req upsertRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		c, err := svc.Upsert(r.Context(), chi.URLParam(r, "petID"), claims.UserID, Type(chi.URLParam(r, "type")), UpsertInput{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
			Notes: req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(c))
	}
}

func deleteContactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), claims.UserID, Type(chi.URLParam(r, "type"))); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	if pets.WriteError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
