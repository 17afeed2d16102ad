package pets

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
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/search", searchPetsHandler(svc))

		// POST /pets/{id}: {id} es el tutor (ruta de la consola). El resto usa {id} = mascota.
		pr.Post("/{id}", createPetHandler(svc))
		pr.Get("/{id}", getPetHandler(svc))
		pr.Put("/{id}", updatePetHandler(svc))
		pr.Patch("/{id}", updatePetHandler(svc))
		pr.Delete("/{id}", deletePetHandler(svc))
	})
}

type petResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Species        Species   `json:"species"`
	Breed          string    `json:"breed"`
	Sex            Sex       `json:"sex"`
	BirthDate      string    `json:"birthDate"`
	Age            int       `json:"age"`
	Color          string    `json:"color"`
	Weight         float64   `json:"weight"`
	TutorID        string    `json:"tutorId"`
	TutorName      string    `json:"tutorName"`
	TutorCPF       string    `json:"tutorCpf"`
	Notes          string    `json:"notes"`
	PhotoURL       string    `json:"photoUrl,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

func responder(svc *Service) func(Pet) petResponse {
	return func(p Pet) petResponse {
		return petResponse{
			ID:             p.ID,
			Name:           p.Name,
			Species:        p.Species,
			Breed:          p.Breed,
			Sex:            p.Sex,
			BirthDate:      validation.FormatDate(&p.BirthDate),
			Age:            svc.Age(p),
			Color:          p.Color,
			Weight:         p.Weight,
			TutorID:        p.TutorID,
			TutorName:      p.Owner.Name,
			TutorCPF:       p.Owner.CPF,
			Notes:          p.Notes,
			PhotoURL:       p.PhotoURL,
			Active:         p.Active,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
			LastModifiedBy: p.LastModifiedBy,
		}
	}
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description Crea una mascota para un tutor activo. En POST /pets/{id} el tutor sale del path y tiene prioridad sobre tutorId del body.
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body CreateInput true "Datos de la mascota; birthDate YYYY-MM-DD, weight en kg"
// @Success 201 {object} petResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	toResponse := responder(svc)
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInput
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if tutorID := chi.URLParam(r, "id"); tutorID != "" {
			req.TutorID = tutorID
		}

		p, err := svc.Create(r.Context(), req, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Tags pets
// @Produce json
// @Param name query string false "Parte del nombre"
// @Param species query string false "Especie exacta"
// @Param breed query string false "Parte de la raza"
// @Param ownerName query string false "Parte del nombre del tutor"
// @Param ownerCpf query string false "Parte del CPF del tutor"
// @Param tutorId query string false "ID del tutor"
// @Param orderBy query string false "name, owner o created"
// @Param page query int false "Página. Por defecto 1"
// @Param pageSize query int false "Tamaño de página. Por defecto 10"
// @Success 200 {object} paging.Page[petResponse]
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	toResponse := responder(svc)
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
		respond.JSON(w, http.StatusOK, paging.NewPage(items, total, f.Page, toResponse))
	}
}

func searchPetsHandler(svc *Service) http.HandlerFunc {
	toResponse := responder(svc)
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
		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toResponse(p))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// @Summary Perfil de mascota
// @Description Incluye nombre y CPF del tutor y la edad calculada.
// @Tags pets
// @Produce json
// @Param id path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 404 {object} respond.ErrorBody
// @Router /pets/{id} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	toResponse := responder(svc)
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Description Edita peso, color, notas, nombre, raza y foto. Color vacío se ignora.
// @Tags pets
// @Accept json
// @Produce json
// @Param id path string true "ID de la mascota"
// @Param payload body UpdateInput true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /pets/{id} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	toResponse := responder(svc)
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateInput
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponse(p))
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
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
		Name:      q.Get("name"),
		Species:   Species(strings.ToUpper(strings.TrimSpace(q.Get("species")))),
		Breed:     q.Get("breed"),
		OwnerName: q.Get("ownerName"),
		OwnerCPF:  q.Get("ownerCpf"),
		TutorID:   q.Get("tutorId"),
		OrderBy:   Order(strings.ToLower(strings.TrimSpace(q.Get("orderBy")))),
	}
	switch f.Species {
	case "", SpeciesDog, SpeciesCat, SpeciesRabbit, SpeciesBird, SpeciesRodent, SpeciesOther:
	default:
		errs.Add("species", "must be one of: CACHORRO, GATO, COELHO, AVE, ROEDOR, OUTRO")
	}
	switch f.OrderBy {
	case "", OrderCreated, OrderName, OrderOwner:
	default:
		errs.Add("orderBy", "must be one of: name, owner, created")
	}
	f.IncludeInactive = strings.EqualFold(q.Get("includeInactive"), "true")

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
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Internal(w, r, err)
	}
}
