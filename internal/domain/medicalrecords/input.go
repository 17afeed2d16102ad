package medicalrecords

import (
	"io"
	"strings"
)

type CreateInput struct {
	PetID            string `json:"petId" validate:"required"`
	VeterinarianID   string `json:"veterinarianId" validate:"required"`
	ConsultationDate string `json:"consultationDate" validate:"required,date"`
	Diagnosis        string `json:"diagnosis" validate:"required,max=1000"`
	Prescription     string `json:"prescription" validate:"required,max=1000"`
	Notes            string `json:"notes" validate:"max=1000"`
}

// UpdateInput: diagnóstico, prescripción y notas. nil = no tocar.
type UpdateInput struct {
	Diagnosis    *string `json:"diagnosis"`
	Prescription *string `json:"prescription"`
	Notes        *string `json:"notes"`
}

// Upload es un archivo recibido en multipart, todavía sin guardar.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

func (in CreateInput) normalized() CreateInput {
	in.PetID = strings.TrimSpace(in.PetID)
	in.VeterinarianID = strings.TrimSpace(in.VeterinarianID)
	in.ConsultationDate = strings.TrimSpace(in.ConsultationDate)
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	in.Prescription = strings.TrimSpace(in.Prescription)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}
