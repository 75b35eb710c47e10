package medical

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"petport/internal/domain/pets"
	"petport/internal/middleware"
	"petport/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/records", func(mr chi.Router) {
		mr.Post("/", createRecordHandler(svc))
		mr.Get("/", listRecordsHandler(svc))
		mr.Post("/{recordID}/void", voidRecordHandler(svc))
	})
}

// createRecordRequest es el cuerpo para registrar una ficha médica.
type createRecordRequest struct {
	Type       RecordType `json:"type" enums:"vaccination,medication,condition,allergy,visit,procedure,note"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	OccurredAt string     `json:"occurred_at"` // RFC3339
	DueAt      string     `json:"due_at"`      // RFC3339 opcional
}

type recordResponse struct {
	ID         string     `json:"id"`
	PetID      string     `json:"pet_id"`
	Type       RecordType `json:"type"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	OccurredAt time.Time  `json:"occurred_at"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
	RecordedBy string     `json:"recorded_by"`
	Status     Status     `json:"status"`
}

// createRecordHandler godoc
// @Summary Crear ficha médica
// @Description Registra una vacuna, medicación, condición, alergia, visita, procedimiento o nota. Solo el dueño.
// @Tags medical
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "Datos de la ficha; fechas en RFC3339"
// @Success 201 {object} recordResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "pet not found"
// @Router /pets/{petID}/records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createRecordRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		occurred, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "occurred_at must be RFC3339")
			return
		}
		var due *time.Time
		if strings.TrimSpace(req.DueAt) != "" {
			t, err := time.Parse(time.RFC3339, req.DueAt)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "due_at must be RFC3339")
				return
			}
			due = &t
		}

		rec, err := svc.Create(r.Context(), chi.URLParam(r, "petID"), claims.UserID, CreateInput{
			Type:       req.Type,
			Title:      req.Title,
			Notes:      req.Notes,
			OccurredAt: occurred,
			DueAt:      due,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar fichas médicas
// @Description Historial médico de la mascota, más reciente primero. Filtra por tipos, rango de fechas y texto.
// @Tags medical
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de fichas a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: vaccination,allergy)"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Param q query string false "Texto de búsqueda libre en título/notas"
// @Param include_voided query bool false "Incluir fichas anuladas"
// @Success 200 {array} recordResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID}/records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := svc.List(r.Context(), chi.URLParam(r, "petID"), claims.UserID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func voidRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		rec, err := svc.Void(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "recordID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	filter := ListFilter{Limit: limit}

	// types=vaccination,allergy
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			t := RecordType(strings.ToLower(strings.TrimSpace(p)))
			if t == "" {
				continue
			}
			if !t.Valid() {
				return ListFilter{}, errors.New("unknown record type " + string(t))
			}
			filter.Types = append(filter.Types, t)
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	filter.IncludeVoided, _ = strconv.ParseBool(q.Get("include_voided"))
	return filter, nil
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:         rec.ID,
		PetID:      rec.PetID,
		Type:       rec.Type,
		Title:      rec.Title,
		Notes:      rec.Notes,
		OccurredAt: rec.OccurredAt,
		DueAt:      rec.DueAt,
		RecordedAt: rec.RecordedAt,
		RecordedBy: rec.RecordedBy,
		Status:     rec.Status,
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
