package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))

		pr.Post("/{petID}/lost", reportLostHandler(svc))
		pr.Post("/{petID}/found", markFoundHandler(svc))
	})
}

// RegisterPublicRoutes: sin auth.
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/public/pets/{petID}", publicProfileHandler(svc))
}

type createPetRequest struct {
	Name           string     `json:"name"`
	Species        string     `json:"species" enums:"dog,cat,other"`
	Breed          string     `json:"breed"`
	Sex            string     `json:"sex" enums:"male,female,unknown"`
	BirthDate      string     `json:"birth_date"` // YYYY-MM-DD opcional
	Age            string     `json:"age"`
	Weight         string     `json:"weight"`
	Microchip      string     `json:"microchip"`
	Bio            string     `json:"bio"`
	Notes          string     `json:"notes"`
	LegacyContacts string     `json:"legacy_contacts"`
	IsPublic       bool       `json:"is_public"`
	Alerts         AlertFlags `json:"alerts"`
}

type petResponse struct {
	ID             string     `json:"id"`
	OwnerUserID    string     `json:"owner_user_id"`
	Name           string     `json:"name"`
	Species        Species    `json:"species"`
	Breed          string     `json:"breed"`
	Sex            Sex        `json:"sex"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Age            string     `json:"age"`
	Weight         string     `json:"weight"`
	Microchip      string     `json:"microchip"`
	Bio            string     `json:"bio"`
	Notes          string     `json:"notes"`
	LegacyContacts string     `json:"legacy_contacts"`
	IsPublic       bool       `json:"is_public"`
	Alerts         AlertFlags `json:"alerts"`
	IsLost         bool       `json:"is_lost"`
	LostSince      *time.Time `json:"lost_since,omitempty"`
	LostLocation   string     `json:"lost_location,omitempty"`
	LostMessage    string     `json:"lost_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name            *string `json:"name"`
	Species         *string `json:"species"`
	Breed           *string `json:"breed"`
	Sex             *string `json:"sex"`
	BirthDate       *string `json:"birth_date"` // YYYY-MM-DD. Para limpiar: enviar null
	Age             *string `json:"age"`
	Weight          *string `json:"weight"`
	Microchip       *string `json:"microchip"`
	Bio             *string `json:"bio"`
	Notes           *string `json:"notes"`
	LegacyContacts  *string `json:"legacy_contacts"`
	IsPublic        *bool   `json:"is_public"`
	HasAllergies    *bool   `json:"has_allergies"`
	NeedsMedication *bool   `json:"needs_medication"`
	SpecialNeeds    *bool   `json:"special_needs"`
}

type lostRequest struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Description Crea una mascota para el usuario autenticado. Respeta el cupo de mascotas del plan.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse "pet limit reached"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createPetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse(dateLayout, req.BirthDate)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, claims.Email, CreateInput{
			Name:           req.Name,
			Species:        req.Species,
			Breed:          req.Breed,
			Sex:            req.Sex,
			BirthDate:      bd,
			Age:            req.Age,
			Weight:         req.Weight,
			Microchip:      req.Microchip,
			Bio:            req.Bio,
			Notes:          req.Notes,
			LegacyContacts: req.LegacyContacts,
			IsPublic:       req.IsPublic,
			Alerts:         req.Alerts,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		p, err := svc.GetOwned(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota (PATCH)
// @Description Solo los campos enviados se modifican. "birth_date": null limpia la fecha.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// Para soportar birth_date: null hay que detectar presencia del campo:
		// primero a map, después al struct.
		var raw map[string]json.RawMessage
		if err := httpx.DecodeJSON(r, &raw); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		var req updatePetRequest
		{
			b, _ := json.Marshal(raw)
			dec := json.NewDecoder(strings.NewReader(string(b)))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		bd := BirthDatePatch{}
		if v, exists := raw["birth_date"]; exists {
			bd.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD or null")
					return
				}
				bd.Value = &s
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), chi.URLParam(r, "petID"), claims.UserID, UpdateProfileInput{
			Name:            req.Name,
			Species:         req.Species,
			Breed:           req.Breed,
			Sex:             req.Sex,
			BirthDate:       bd,
			Age:             req.Age,
			Weight:          req.Weight,
			Microchip:       req.Microchip,
			Bio:             req.Bio,
			Notes:           req.Notes,
			LegacyContacts:  req.LegacyContacts,
			IsPublic:        req.IsPublic,
			HasAllergies:    req.HasAllergies,
			NeedsMedication: req.NeedsMedication,
			SpecialNeeds:    req.SpecialNeeds,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// deletePetHandler godoc
// @Summary Borrar mascota
// @Description Borra la mascota con sus contactos, fichas médicas, cuidados y fotos.
// @Tags pets
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), claims.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func reportLostHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req lostRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		p, err := svc.ReportLost(r.Context(), chi.URLParam(r, "petID"), claims.UserID, LostInput{
			Location: req.Location,
			Message:  req.Message,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func markFoundHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		p, err := svc.MarkFound(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// publicProfileHandler godoc
// @Summary Perfil público de mascota
// @Description Perfil visible sin sesión, solo si la mascota es pública o está perdida. Incluye contactos ordenados.
// @Tags public
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} PublicProfile
// @Failure 404 {object} httpx.ErrorResponse
// @Router /public/pets/{petID} [get]
func publicProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prof, err := svc.PublicProfile(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, prof)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:             p.ID,
		OwnerUserID:    p.OwnerUserID,
		Name:           p.Name,
		Species:        p.Species,
		Breed:          p.Breed,
		Sex:            p.Sex,
		BirthDate:      p.BirthDate,
		Age:            p.Age,
		Weight:         p.Weight,
		Microchip:      p.Microchip,
		Bio:            p.Bio,
		Notes:          p.Notes,
		LegacyContacts: p.LegacyContacts,
		IsPublic:       p.IsPublic,
		Alerts:         p.Alerts,
		IsLost:         p.Lost.IsLost,
		LostSince:      p.Lost.LostSince,
		LostLocation:   p.Lost.LostLocation,
		LostMessage:    p.Lost.LostMessage,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// WriteError mapea los errores de pets; lo reutilizan los módulos hijos para la parte de ownership.
func WriteError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrPetLimit):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	default:
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if !WriteError(w, err) {
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
