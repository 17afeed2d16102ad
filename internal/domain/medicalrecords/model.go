package medicalrecords

import "time"

// Attachment es un archivo asociado a una consulta. StoredName ("<uuid>_<FileName>")
// es la clave en files.Storage.
type Attachment struct {
	ID          string
	FileName    string
	StoredName  string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

// Record es una entrada de la historia clínica de una mascota.
type Record struct {
	ID             string
	PetID          string
	VeterinarianID string

	ConsultationDate time.Time
	Diagnosis        string
	Prescription     string
	Notes            string

	// Sólo se agregan; un update nunca borra adjuntos previos.
	Attachments []Attachment

	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastModifiedBy string

	// Los completa el repositorio en lecturas.
	PetName          string
	VeterinarianName string
}
