package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/validation"
)

// TutorDirectory es lo que pets necesita de tutors.
type TutorDirectory interface {
	GetActive(ctx context.Context, id string) (tutors.Tutor, error)
}

type Service struct {
	repo     Repository
	tutors   TutorDirectory
	validate *validation.Validator
	now      func() time.Time
}

func NewService(repo Repository, tutorsDir TutorDirectory) *Service {
	s := &Service{
		repo:   repo,
		tutors: tutorsDir,
		now:    time.Now,
	}
	s.validate = validation.New(func() time.Time { return s.now() })
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID string) (Pet, error) {
	in = in.normalized()
	if err := s.validate.Struct(in); err != nil {
		return Pet{}, err
	}

	owner, err := s.tutors.GetActive(ctx, in.TutorID)
	if errors.Is(err, tutors.ErrNotFound) {
		return Pet{}, validation.Errors{"tutorId": "does not reference an active tutor"}
	}
	if err != nil {
		return Pet{}, err
	}

	birth, err := validation.ParseDate(in.BirthDate)
	if err != nil {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:             uuid.NewString(),
		TutorID:        owner.ID,
		Name:           in.Name,
		Species:        in.Species,
		Breed:          in.Breed,
		Sex:            in.Sex,
		BirthDate:      birth,
		Color:          in.Color,
		Weight:         in.Weight,
		Notes:          in.Notes,
		PhotoURL:       in.PhotoURL,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: strings.TrimSpace(actorID),
		Owner:          Owner{Name: owner.Name, CPF: owner.CPF},
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Pet, int, error) {
	f = normalizeFilter(f)
	f.Page = f.Page.Normalize()
	return s.repo.List(ctx, f)
}

// Search: activos, sin paginar, por nombre salvo orderBy=owner.
func (s *Service) Search(ctx context.Context, f Filter) ([]Pet, error) {
	f = normalizeFilter(f)
	f.IncludeInactive = false
	f.Page = paging.Params{}
	if f.OrderBy == "" {
		f.OrderBy = OrderName
	}
	out, _, err := s.repo.List(ctx, f)
	return out, err
}

func (s *Service) Update(ctx context.Context, id string, patch UpdateInput, actorID string) (Pet, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if !current.Active {
		return Pet{}, ErrNotFound
	}

	in := formOf(current).apply(patch).normalized()
	if err := s.validate.Struct(in); err != nil {
		return Pet{}, err
	}

	p := current
	p.Name = in.Name
	p.Breed = in.Breed
	p.Color = in.Color
	p.Weight = in.Weight
	p.Notes = in.Notes
	p.PhotoURL = in.PhotoURL
	p.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		p.LastModifiedBy = a
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Active {
		return ErrNotFound
	}
	p.Active = false
	p.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		p.LastModifiedBy = a
	}
	return s.repo.Update(ctx, p)
}

// Age es la edad actual en años según el reloj del service.
func (s *Service) Age(p Pet) int {
	return p.AgeAt(s.now())
}

func normalizeFilter(f Filter) Filter {
	f.Name = strings.TrimSpace(f.Name)
	f.Species = Species(strings.ToUpper(strings.TrimSpace(string(f.Species))))
	f.Breed = strings.TrimSpace(f.Breed)
	f.OwnerName = strings.TrimSpace(f.OwnerName)
	f.OwnerCPF = validation.OnlyDigits(f.OwnerCPF)
	f.TutorID = strings.TrimSpace(f.TutorID)
	return f
}
