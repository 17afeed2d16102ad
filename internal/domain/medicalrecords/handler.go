package medicalrecords

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/platform/respond"
	"vet-clinic-api/internal/validation"
)

const (
	// VeterinarianHeader identifica al veterinario que edita (lastModifiedBy).
	VeterinarianHeader = "veterinarianId"

	maxUploadMemory = 32 << 20
	maxUploadBody   = 64 << 20
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medical-records", func(mr chi.Router) {
		mr.Post("/", createRecordHandler(svc))
		mr.Get("/", listRecordsHandler(svc))
		mr.Get("/search", searchRecordsHandler(svc))
		mr.Get("/attachments/{id}", downloadAttachmentsHandler(svc))

		mr.Get("/{id}", getRecordHandler(svc))
		mr.Put("/{id}", updateRecordHandler(svc))
		mr.Patch("/{id}", updateRecordHandler(svc))
		mr.Delete("/{id}", deleteRecordHandler(svc))
	})
}

type attachmentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type recordResponse struct {
	ID               string               `json:"id"`
	PetID            string               `json:"petId"`
	PetName          string               `json:"petName,omitempty"`
	VeterinarianID   string               `json:"veterinarianId"`
	VeterinarianName string               `json:"veterinarianName"`
	ConsultationDate string               `json:"consultationDate"`
	Diagnosis        string               `json:"diagnosis"`
	Prescription     string               `json:"prescription"`
	Notes            string               `json:"notes"`
	Attachments      []attachmentResponse `json:"attachments"`
	Active           bool                 `json:"active"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
	LastModifiedBy   string               `json:"lastModifiedBy,omitempty"`
}

func toRecordResponse(rec Record) recordResponse {
	atts := make([]attachmentResponse, 0, len(rec.Attachments))
	for _, a := range rec.Attachments {
		atts = append(atts, attachmentResponse{
			ID:          a.ID,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Size:        a.Size,
			UploadedAt:  a.UploadedAt,
		})
	}
	return recordResponse{
		ID:               rec.ID,
		PetID:            rec.PetID,
		PetName:          rec.PetName,
		VeterinarianID:   rec.VeterinarianID,
		VeterinarianName: rec.VeterinarianName,
		ConsultationDate: validation.FormatDate(&rec.ConsultationDate),
		Diagnosis:        rec.Diagnosis,
		Prescription:     rec.Prescription,
		Notes:            rec.Notes,
		Attachments:      atts,
		Active:           rec.Active,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
		LastModifiedBy:   rec.LastModifiedBy,
	}
}

// createRecordHandler godoc
// @Summary Registrar consulta
// @Description Acepta JSON, o multipart/form-data con la parte "data" (JSON) y una o más partes "files". El veterinario debe tener rol VETERINARIO.
// @Tags medical-records
// @Accept json,mpfd
// @Produce json
// @Param payload body CreateInput true "Datos de la consulta; consultationDate YYYY-MM-DD"
// @Success 201 {object} recordResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /medical-records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInput
		uploads, cleanup, err := decodeRequest(w, r, &req)
		defer cleanup()
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := svc.Create(r.Context(), req, uploads, middleware.ActorID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar consultas
// @Tags medical-records
// @Produce json
// @Param petId query string false "ID de la mascota"
// @Param page query int false "Página. Por defecto 1"
// @Param pageSize query int false "Tamaño de página. Por defecto 10"
// @Success 200 {object} paging.Page[recordResponse]
// @Router /medical-records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
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
		respond.JSON(w, http.StatusOK, paging.NewPage(items, total, f.Page, toRecordResponse))
	}
}

// searchRecordsHandler godoc
// @Summary Historia clínica de una mascota
// @Description Consultas activas de la mascota, de la más reciente a la más antigua.
// @Tags medical-records
// @Produce json
// @Param petId query string true "ID de la mascota"
// @Param startDate query string false "Desde (YYYY-MM-DD)"
// @Param endDate query string false "Hasta (YYYY-MM-DD)"
// @Param veterinarianId query string false "ID del veterinario"
// @Param diagnosisKeyword query string false "Texto dentro del diagnóstico"
// @Success 200 {array} recordResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /medical-records/search [get]
func searchRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, errs := filterFromQuery(r)
		if errs != nil {
			respond.Validation(w, errs)
			return
		}

		items, err := svc.Search(r.Context(), f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func getRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

// updateRecordHandler godoc
// @Summary Actualizar consulta
// @Description Edita diagnóstico, prescripción y notas; los archivos nuevos se agregan a los existentes. El header veterinarianId queda como lastModifiedBy.
// @Tags medical-records
// @Accept json,mpfd
// @Produce json
// @Param id path string true "ID de la consulta"
// @Param veterinarianId header string false "ID del veterinario que edita"
// @Param payload body UpdateInput true "Campos a modificar"
// @Success 200 {object} recordResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /medical-records/{id} [patch]
func updateRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateInput
		uploads, cleanup, err := decodeRequest(w, r, &req)
		defer cleanup()
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req, uploads, middleware.ActorID(r, VeterinarianHeader))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func deleteRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id"), middleware.ActorID(r, VeterinarianHeader)); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// downloadAttachmentsHandler godoc
// @Summary Descargar adjuntos
// @Description Zip con todos los adjuntos de la consulta. 204 si no tiene adjuntos.
// @Tags medical-records
// @Produce application/zip
// @Param id path string true "ID de la consulta"
// @Success 200 {file} file
// @Success 204
// @Failure 404 {object} respond.ErrorBody
// @Router /medical-records/attachments/{id} [get]
func downloadAttachmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if len(rec.Attachments) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="medical-record-%s.zip"`, rec.ID))
		w.WriteHeader(http.StatusOK)

		// Con los headers ya enviados sólo queda loguear.
		if err := svc.WriteArchive(r.Context(), rec, w); err != nil {
			logger.FromContext(r.Context()).Error("write attachments zip failed", logger.Fields{"id": rec.ID, "err": err})
		}
	}
}

// decodeRequest acepta JSON o multipart (parte "data" como campo o como archivo, más "files").
// cleanup libera los archivos temporales del multipart.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) ([]Upload, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := respond.DecodeJSON(r, v); err != nil {
			return nil, noop, errors.New("invalid json")
		}
		return nil, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, noop, errors.New("invalid multipart body")
	}
	form := r.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	data, err := dataPart(form)
	if err != nil {
		return nil, cleanup, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, cleanup, errors.New("invalid json in data part")
	}

	uploads := make([]Upload, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, cleanup, fmt.Errorf("cannot read file %s", fh.Filename)
		}
		prev := cleanup
		cleanup = func() { _ = f.Close(); prev() }

		uploads = append(uploads, Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	return uploads, cleanup, nil
}

func dataPart(form *multipart.Form) ([]byte, error) {
	if vals := form.Value["data"]; len(vals) > 0 {
		return []byte(vals[0]), nil
	}
	if fhs := form.File["data"]; len(fhs) > 0 {
		f, err := fhs[0].Open()
		if err != nil {
			return nil, errors.New("cannot read data part")
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, respond.MaxJSONBody))
	}
	// sin "data": update que sólo agrega archivos
	return []byte("{}"), nil
}

func filterFromQuery(r *http.Request) (Filter, validation.Errors) {
	q := r.URL.Query()
	errs := validation.Errors{}

	f := Filter{
		PetID:            q.Get("petId"),
		VeterinarianID:   q.Get("veterinarianId"),
		DiagnosisKeyword: q.Get("diagnosisKeyword"),
		IncludeInactive:  strings.EqualFold(q.Get("includeInactive"), "true"),
	}

	var err error
	if f.From, err = validation.ParseOptionalDate(q.Get("startDate")); err != nil {
		errs.Add("startDate", "must be a date in YYYY-MM-DD format")
	}
	if f.To, err = validation.ParseOptionalDate(q.Get("endDate")); err != nil {
		errs.Add("endDate", "must be a date in YYYY-MM-DD format")
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
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "medical record not found")
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Internal(w, r, err)
	}
}
