package tutors

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/platform/respond"
	"vet-clinic-api/internal/validation"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/tutors", func(tr chi.Router) {
		tr.Post("/", registerTutorHandler(svc))
		tr.Get("/", listTutorsHandler(svc))
		tr.Get("/search", searchTutorsHandler(svc))

		tr.Get("/{id}", getTutorHandler(svc))
		tr.Put("/{id}", updateTutorHandler(svc))
		tr.Patch("/{id}", updateTutorHandler(svc))
		tr.Delete("/{id}", deleteTutorHandler(svc))
	})
}

type tutorResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CPF            string    `json:"cpf"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	BirthDate      string    `json:"birthDate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

func toTutorResponse(t Tutor) tutorResponse {
	return tutorResponse{
		ID:             t.ID,
		Name:           t.Name,
		CPF:            t.CPF,
		Email:          t.Email,
		Phone:          t.Phone,
		Address:        t.Address,
		BirthDate:      validation.FormatDate(&t.BirthDate),
		Active:         t.Active,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		LastModifiedBy: t.LastModifiedBy,
	}
}

// registerTutorHandler godoc
// @Summary Registrar tutor
// @Description Alta de tutor. Address, birthDate y password (+ confirmPassword) son obligatorios.
// @Tags tutors
// @Accept json
// @Produce json
// @Param payload body CreateInput true "Datos del tutor"
// @Success 201 {object} tutorResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody
// @Router /tutors [post]
func registerTutorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInput
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := svc.Register(r.Context(), req, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toTutorResponse(t))
	}
}

// listTutorsHandler godoc
// @Summary Listar tutores
// @Tags tutors
// @Produce json
// @Param name query string false "Parte del nombre"
// @Param cpf query string false "Parte del CPF"
// @Param email query string false "Parte del email"
// @Param phone query string false "Parte del teléfono"
// @Param page query int false "Página. Por defecto 1"
// @Param pageSize query int false "Tamaño de página. Por defecto 10"
// @Success 200 {object} paging.Page[tutorResponse]
// @Router /tutors [get]
func listTutorsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, errs := filterFromQuery(r)
		if errs != nil {
			respond.Validation(w, errs)
			return
		}
		f.Page = paging.FromQuery(r)

		items, total, err := svc.List(r.Context(), f)
		if err != nil {
			respond.Internal(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, paging.NewPage(items, total, f.Page, toTutorResponse))
	}
}

// @Summary Buscar tutores
// @Tags tutors
// @Produce json
// @Param orderBy query string false "name (default) o created"
// @Success 200 {array} tutorResponse
// @Router /tutors/search [get]
func searchTutorsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, errs := filterFromQuery(r)
		if errs != nil {
			respond.Validation(w, errs)
			return
		}

		items, err := svc.Search(r.Context(), f)
		if err != nil {
			respond.Internal(w, r, err)
			return
		}
		out := make([]tutorResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTutorResponse(t))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func getTutorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toTutorResponse(t))
	}
}

func updateTutorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateInput
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toTutorResponse(t))
	}
}

func deleteTutorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id"), middleware.ActorID(r)); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func filterFromQuery(r *http.Request) (Filter, validation.Errors) {
	q := r.URL.Query()
	f := Filter{
		Name:    q.Get("name"),
		CPF:     q.Get("cpf"),
		Email:   q.Get("email"),
		Phone:   q.Get("phone"),
		OrderBy: Order(strings.ToLower(strings.TrimSpace(q.Get("orderBy")))),
	}
	switch f.OrderBy {
	case "", OrderCreated, OrderName:
	default:
		return Filter{}, validation.Errors{"orderBy": "must be one of: name, created"}
	}
	f.IncludeInactive = strings.EqualFold(q.Get("includeInactive"), "true")
	return f, nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := validation.AsErrors(err); ok {
		respond.Validation(w, errs)
		return
	}

	var ce *ConflictError
	switch {
	case errors.As(err, &ce):
		respond.JSON(w, http.StatusConflict, respond.ErrorBody{
			Message: ce.Error(),
			Errors:  validation.Errors{ce.Field: "already registered"},
		})
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "tutor not found")
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Internal(w, r, err)
	}
}
