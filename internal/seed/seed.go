// Package seed carga datos de demostración a través de los servicios de dominio, así pasan
// por las mismas validaciones que la API.
package seed

import (
	"context"
	"errors"
	"fmt"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/platform/logger"
)

// DemoPassword es la contraseña de todos los usuarios y tutores de demo.
const DemoPassword = "Clinica@2024"

const actor = "seed"

var demoUsers = []users.CreateInput{
	{Name: "Helena Prado", Username: "helena_admin", CPF: "529.982.247-25", Email: "helena@clinica.test", Phone: "11987654321", Role: users.RoleAdministrator, AdmissionDate: "2019-02-01"},
	{Name: "Dra. Paula Mendes", Username: "paula_vet", CPF: "456.789.123-64", Email: "paula@clinica.test", Phone: "11976543210", Role: users.RoleVeterinarian, AdmissionDate: "2021-08-16"},
	{Name: "Carlos Lima", Username: "carlos_atend", CPF: "111.444.777-35", Email: "carlos@clinica.test", Phone: "1133334444", Role: users.RoleAttendant, AdmissionDate: "2023-03-01"},
}

var demoTutor = tutors.CreateInput{
	Name:      "Marina Souza",
	CPF:       "862.451.390-15",
	Email:     "marina@mail.test",
	Phone:     "21998765432",
	Address:   "Rua das Flores, 120 - Rio de Janeiro",
	BirthDate: "1988-11-23",
}

// Services es lo que necesita Demo.
type Services struct {
	Users  *users.Service
	Tutors *tutors.Service
	Pets   *pets.Service
}

// Demo crea staff, un tutor y sus mascotas. Lo que ya existe (CPF/email repetido) se saltea,
// así se puede correr en cada arranque.
func Demo(ctx context.Context, svc Services, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	for _, in := range demoUsers {
		in.Password, in.ConfirmPassword = DemoPassword, DemoPassword
		_, err := svc.Users.Create(ctx, in, actor)
		switch {
		case errors.Is(err, users.ErrConflict):
			log.Debug("seed user exists", logger.Fields{"email": in.Email})
		case err != nil:
			return fmt.Errorf("seed user %s: %w", in.Email, err)
		}
	}

	in := demoTutor
	in.Password, in.ConfirmPassword = DemoPassword, DemoPassword
	tutor, err := svc.Tutors.Register(ctx, in, actor)
	if errors.Is(err, tutors.ErrConflict) {
		log.Info("demo data already loaded", nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed tutor: %w", err)
	}

	for _, p := range []pets.CreateInput{
		{Name: "Thor", Species: pets.SpeciesDog, Breed: "Golden Retriever", Sex: pets.SexMale, BirthDate: "2019-05-10", Color: "Dourado", Weight: 32.4},
		{Name: "Luna", Species: pets.SpeciesCat, Breed: "Siamês", Sex: pets.SexFemale, BirthDate: "2021-09-02", Color: "Creme", Weight: 4.1, Notes: "Alérgica a dipirona"},
	} {
		p.TutorID = tutor.ID
		if _, err := svc.Pets.Create(ctx, p, actor); err != nil {
			return fmt.Errorf("seed pet %s: %w", p.Name, err)
		}
	}

	log.Info("demo data loaded", logger.Fields{"users": len(demoUsers), "tutor_id": tutor.ID})
	return nil
}
