package users

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/platform/respond"
	"vet-clinic-api/internal/validation"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Post("/", createUserHandler(svc))
		ur.Get("/", listUsersHandler(svc))
		ur.Get("/search", searchUsersHandler(svc))

		ur.Get("/{id}", getUserHandler(svc))
		ur.Put("/{id}", updateUserHandler(svc))
		ur.Patch("/{id}", updateUserHandler(svc))
		ur.Delete("/{id}", deleteUserHandler(svc))
	})
}

type userResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username,omitempty"`
	CPF            string    `json:"cpf"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           Role      `json:"role"`
	AdmissionDate  string    `json:"admissionDate,omitempty"`
	Address        string    `json:"address,omitempty"`
	BirthDate      string    `json:"birthDate,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		CPF:            u.CPF,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		AdmissionDate:  validation.FormatDate(u.AdmissionDate),
		Address:        u.Address,
		BirthDate:      validation.FormatDate(u.BirthDate),
		Active:         u.Active,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		LastModifiedBy: u.LastModifiedBy,
	}
}

// createUserHandler godoc
// @Summary Registrar usuario
// @Description Crea un usuario del staff o un cliente. CPF con o sin máscara. Staff exige admissionDate; CLIENTE exige address y birthDate.
// @Tags users
// @Accept json
// @Produce json
// @Param adminId query string false "ID del administrador que registra (lastModifiedBy)"
// @Param payload body CreateInput true "Datos del usuario; fechas YYYY-MM-DD"
// @Success 201 {object} userResponse
// @Failure 400 {object} respond.ErrorBody "validation failed"
// @Failure 409 {object} respond.ErrorBody "cpf/email/username already registered"
// @Router /users [post]
func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInput
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, err := svc.Create(r.Context(), req, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toUserResponse(u))
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Description Listado paginado. Filtros secuenciales: name (contiene), cpf (contiene dígitos), role (exacto).
// @Tags users
// @Produce json
// @Param name query string false "Parte del nombre"
// @Param cpf query string false "Parte del CPF"
// @Param role query string false "ATENDENTE, VETERINARIO, ADMINISTRADOR o CLIENTE"
// @Param includeInactive query bool false "Incluir desactivados"
// @Param page query int false "Página (1-based). Por defecto 1"
// @Param pageSize query int false "Tamaño de página. Por defecto 10"
// @Success 200 {object} paging.Page[userResponse]
// @Router /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
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
		respond.JSON(w, http.StatusOK, paging.NewPage(items, total, f.Page, toUserResponse))
	}
}

// searchUsersHandler godoc
// @Summary Buscar usuarios
// @Description Búsqueda sin paginar sobre usuarios activos, con rango de fecha de admisión.
// @Tags users
// @Produce json
// @Param name query string false "Parte del nombre"
// @Param cpf query string false "Parte del CPF"
// @Param role query string false "Rol exacto"
// @Param admissionStart query string false "Admisión desde (YYYY-MM-DD)"
// @Param admissionEnd query string false "Admisión hasta (YYYY-MM-DD)"
// @Param orderBy query string false "name (default) o date"
// @Success 200 {array} userResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /users/search [get]
func searchUsersHandler(svc *Service) http.HandlerFunc {
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

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// @Summary Obtener usuario
// @Tags users
// @Produce json
// @Param id path string true "ID del usuario"
// @Success 200 {object} userResponse
// @Failure 404 {object} respond.ErrorBody
// @Router /users/{id} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toUserResponse(u))
	}
}

// updateUserHandler godoc
// @Summary Actualizar usuario
// @Description Patch parcial; el resultado se revalida completo (p.ej. pasar a CLIENTE exige address y birthDate).
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID del usuario"
// @Param adminId query string false "ID del administrador que edita (lastModifiedBy)"
// @Param payload body UpdateInput true "Campos a modificar"
// @Success 200 {object} userResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody
// @Router /users/{id} [patch]
func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateInput
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toUserResponse(u))
	}
}

// deleteUserHandler godoc
// @Summary Desactivar usuario
// @Description Soft delete: el usuario queda inactivo y deja de aparecer en listados. Administradores no se pueden borrar.
// @Tags users
// @Param id path string true "ID del usuario"
// @Param adminId query string false "ID del administrador"
// @Success 204
// @Failure 404 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody "administrators cannot be deleted"
// @Router /users/{id} [delete]
func deleteUserHandler(svc *Service) http.HandlerFunc {
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
	errs := validation.Errors{}

	f := Filter{
		Name:    strings.TrimSpace(q.Get("name")),
		CPF:     q.Get("cpf"),
		Role:    Role(strings.ToUpper(strings.TrimSpace(q.Get("role")))),
		OrderBy: Order(strings.ToLower(strings.TrimSpace(q.Get("orderBy")))),
	}
	if f.Role != "" && !f.Role.Valid() {
		errs.Add("role", "must be one of: ATENDENTE, VETERINARIO, ADMINISTRADOR, CLIENTE")
	}
	switch f.OrderBy {
	case OrderCreated, OrderName, OrderDate:
	default:
		errs.Add("orderBy", "must be one of: name, date")
	}
	if v := q.Get("includeInactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs.Add("includeInactive", "must be a boolean")
		}
		f.IncludeInactive = b
	}

	var err error
	if f.AdmissionFrom, err = validation.ParseOptionalDate(q.Get("admissionStart")); err != nil {
		errs.Add("admissionStart", "must be a date in YYYY-MM-DD format")
	}
	if f.AdmissionTo, err = validation.ParseOptionalDate(q.Get("admissionEnd")); err != nil {
		errs.Add("admissionEnd", "must be a date in YYYY-MM-DD format")
	}

	if len(errs) > 0 {
		return Filter{}, errs
	}
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
	case errors.Is(err, ErrProtected):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Internal(w, r, err)
	}
}
