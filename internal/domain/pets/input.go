package pets

import (
	"strings"

	"vet-clinic-api/internal/validation"
)

type CreateInput struct {
	TutorID   string  `json:"tutorId" validate:"required"`
	Name      string  `json:"name" validate:"required,max=100"`
	Species   Species `json:"species" validate:"required,oneof=CACHORRO GATO COELHO AVE ROEDOR OUTRO"`
	Breed     string  `json:"breed" validate:"required,max=100"`
	Sex       Sex     `json:"sex" validate:"required,oneof=MACHO FEMEA INDEFINIDO"`
	BirthDate string  `json:"birthDate" validate:"required,notfuture"`
	Color     string  `json:"color" validate:"required,max=50"`
	Weight    float64 `json:"weight" validate:"gt=0,lte=500"`
	Notes     string  `json:"notes" validate:"max=500"`
	PhotoURL  string  `json:"photoUrl" validate:"omitempty,url"`
}

// UpdateInput: nil = no tocar. Especie, sexo, fecha de nacimiento y tutor no se editan.
type UpdateInput struct {
	Name     *string  `json:"name"`
	Breed    *string  `json:"breed"`
	Color    *string  `json:"color"`
	Weight   *float64 `json:"weight"`
	Notes    *string  `json:"notes"`
	PhotoURL *string  `json:"photoUrl"`
}

func (in CreateInput) normalized() CreateInput {
	in.TutorID = strings.TrimSpace(in.TutorID)
	in.Name = strings.TrimSpace(in.Name)
	in.Species = Species(strings.ToUpper(strings.TrimSpace(string(in.Species))))
	in.Breed = strings.TrimSpace(in.Breed)
	in.Sex = Sex(strings.ToUpper(strings.TrimSpace(string(in.Sex))))
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.Color = strings.TrimSpace(in.Color)
	in.Notes = strings.TrimSpace(in.Notes)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
	return in
}

func formOf(p Pet) CreateInput {
	return CreateInput{
		TutorID:   p.TutorID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Sex:       p.Sex,
		BirthDate: validation.FormatDate(&p.BirthDate),
		Color:     p.Color,
		Weight:    p.Weight,
		Notes:     p.Notes,
		PhotoURL:  p.PhotoURL,
	}
}

func (in CreateInput) apply(u UpdateInput) CreateInput {
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Breed != nil {
		in.Breed = *u.Breed
	}
	// color vacío no pisa el actual
	if u.Color != nil && strings.TrimSpace(*u.Color) != "" {
		in.Color = *u.Color
	}
	if u.Weight != nil {
		in.Weight = *u.Weight
	}
	if u.Notes != nil {
		in.Notes = *u.Notes
	}
	if u.PhotoURL != nil {
		in.PhotoURL = *u.PhotoURL
	}
	return in
}
