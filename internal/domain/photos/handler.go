package photos

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"petport/internal/domain/pets"
	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 10 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/pets/{petID}/photos", uploadPhotoHandler(svc))
	r.Delete("/pets/{petID}/photos/{photoID}", deletePhotoHandler(svc))
}

// RegisterPublicRoutes: la galería de una mascota pública se ve sin sesión.
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/pets/{petID}/photos", listPhotosHandler(svc))
}

type photoResponse struct {
	ID        string    `json:"id"`
	PetID     string    `json:"pet_id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(p Photo) photoResponse {
	return photoResponse{ID: p.ID, PetID: p.PetID, URL: p.URL, Caption: p.Caption, CreatedAt: p.CreatedAt}
}

// uploadPhotoHandler godoc
// @Summary Subir foto
// @Description Sube una imagen (multipart, campo "file", máx 10MB) a la galería de la mascota.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param file formData file true "Imagen"
// @Param caption formData string false "Texto de la foto"
// @Success 201 {object} photoResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse "photo limit reached"
// @Failure 503 {object} httpx.ErrorResponse
// @Router /pets/{petID}/photos [post]
func uploadPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "file required")
			return
		}
		defer file.Close()
		if ct := hdr.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
			httpx.WriteError(w, http.StatusBadRequest, "file must be an image")
			return
		}

		ph, err := svc.Upload(r.Context(), chi.URLParam(r, "petID"), claims.UserID, UploadInput{
			Body:    file,
			Caption: r.FormValue("caption"),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toResponse(ph))
	}
}

func listPhotosHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// auth opcional
		claims, _ := middleware.GetClaims(r.Context())
		list, err := svc.List(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]photoResponse, 0, len(list))
		for _, p := range list {
			out = append(out, toResponse(p))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func deletePhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "photoID")); err != nil {
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
	case errors.Is(err, ErrLimitReached):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
