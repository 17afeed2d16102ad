package clinicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"vet-clinic-api/internal/domain/medicalrecords"
	"vet-clinic-api/internal/platform/httpclient"
)

type Attachment struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type MedicalRecord struct {
	ID               string       `json:"id"`
	PetID            string       `json:"petId"`
	PetName          string       `json:"petName,omitempty"`
	VeterinarianID   string       `json:"veterinarianId"`
	VeterinarianName string       `json:"veterinarianName"`
	ConsultationDate string       `json:"consultationDate"`
	Diagnosis        string       `json:"diagnosis"`
	Prescription     string       `json:"prescription"`
	Notes            string       `json:"notes"`
	Attachments      []Attachment `json:"attachments"`
	Active           bool         `json:"active"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	LastModifiedBy   string       `json:"lastModifiedBy,omitempty"`
}

// File es un adjunto a subir.
type File struct {
	Name    string
	Content io.Reader
}

type RecordQuery struct {
	PetID            string
	VeterinarianID   string
	StartDate        string
	EndDate          string
	DiagnosisKeyword string
	IncludeInactive  bool
	Paging
}

func (q RecordQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "petId", q.PetID)
	setIf(v, "veterinarianId", q.VeterinarianID)
	setIf(v, "startDate", q.StartDate)
	setIf(v, "endDate", q.EndDate)
	setIf(v, "diagnosisKeyword", q.DiagnosisKeyword)
	setBool(v, "includeInactive", q.IncludeInactive)
	q.Paging.set(v)
	return v
}

// CreateRecord manda JSON si no hay archivos, y multipart ("data" + "files") si los hay.
func (c *Client) CreateRecord(ctx context.Context, in medicalrecords.CreateInput, files []File) (MedicalRecord, error) {
	var out MedicalRecord
	err := c.send(ctx, http.MethodPost, "/medical-records", nil, in, files, &out)
	return out, err
}

func (c *Client) GetRecord(ctx context.Context, id string) (MedicalRecord, error) {
	var out MedicalRecord
	err := c.get(ctx, "/medical-records/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) ListRecords(ctx context.Context, q RecordQuery) (Page[MedicalRecord], error) {
	var out Page[MedicalRecord]
	err := c.get(ctx, "/medical-records", q.values(), &out)
	return out, err
}

// SearchRecords devuelve la historia de q.PetID, más reciente primero.
func (c *Client) SearchRecords(ctx context.Context, q RecordQuery) ([]MedicalRecord, error) {
	var out []MedicalRecord
	err := c.get(ctx, "/medical-records/search", q.values(), &out)
	return out, err
}

// UpdateRecord edita textos y agrega files. veterinarianID va en el header veterinarianId.
func (c *Client) UpdateRecord(ctx context.Context, id string, patch medicalrecords.UpdateInput, files []File, veterinarianID string) (MedicalRecord, error) {
	var headers map[string]string
	if veterinarianID != "" {
		headers = map[string]string{medicalrecords.VeterinarianHeader: veterinarianID}
	}
	var out MedicalRecord
	err := c.send(ctx, http.MethodPatch, "/medical-records/"+escape(id), headers, patch, files, &out)
	return out, err
}

func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.http.DoJSON(ctx, http.MethodDelete, "/medical-records/"+escape(id), nil, nil, nil)
}

// DownloadAttachments devuelve el zip de adjuntos. Sin adjuntos => nil, nil.
func (c *Client) DownloadAttachments(ctx context.Context, id string) ([]byte, error) {
	b, status, err := c.http.DoRaw(ctx, "/medical-records/attachments/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return b, nil
}

func (c *Client) send(ctx context.Context, method, path string, headers map[string]string, in any, files []File, out any) error {
	if len(files) == 0 {
		return c.http.DoJSON(ctx, method, path, headers, in, out)
	}

	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("clinicapi: marshal data part: %w", err)
	}
	parts := make([]httpclient.Part, 0, len(files))
	for _, f := range files {
		parts = append(parts, httpclient.Part{Field: "files", FileName: f.Name, Content: f.Content})
	}
	return c.http.DoMultipart(ctx, method, path, headers, map[string]string{"data": string(data)}, parts, out)
}
