package pets

import "time"

// Species define las especies atendidas.
// @Enum CACHORRO, GATO, COELHO, AVE, ROEDOR, OUTRO
type Species string

const (
	SpeciesDog    Species = "CACHORRO"
	SpeciesCat    Species = "GATO"
	SpeciesRabbit Species = "COELHO"
	SpeciesBird   Species = "AVE"
	SpeciesRodent Species = "ROEDOR"
	SpeciesOther  Species = "OUTRO"
)

// Sex define el sexo de la mascota.
// @Enum MACHO, FEMEA, INDEFINIDO
type Sex string

const (
	SexMale    Sex = "MACHO"
	SexFemale  Sex = "FEMEA"
	SexUnknown Sex = "INDEFINIDO"
)

// Pet representa el perfil de una mascota registrada en la clínica.
type Pet struct {
	ID      string
	TutorID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate time.Time
	Color     string
	Weight    float64 // kg

	Notes    string
	PhotoURL string

	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastModifiedBy string

	// Owner lo completa el repositorio en lecturas (join con tutors). No se persiste.
	Owner Owner
}

type Owner struct {
	Name string
	CPF  string
}

// AgeAt devuelve la edad en años cumplidos a la fecha de now.
func (p Pet) AgeAt(now time.Time) int {
	if p.BirthDate.IsZero() || now.Before(p.BirthDate) {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	if !sameOrAfterBirthday(now, p.BirthDate) {
		years--
	}
	return years
}

func sameOrAfterBirthday(now, birth time.Time) bool {
	if now.Month() != birth.Month() {
		return now.Month() > birth.Month()
	}
	return now.Day() >= birth.Day()
}
