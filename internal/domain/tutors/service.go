package tutors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/ports/notifications"
	"vet-clinic-api/internal/validation"
)

type Service struct {
	repo     Repository
	events   notifications.Publisher
	log      logger.Logger
	validate *validation.Validator
	now      func() time.Time
	hashCost int
}

func NewService(repo Repository, events notifications.Publisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo:     repo,
		events:   events,
		log:      log,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	s.validate = validation.New(func() time.Time { return s.now() })
	s.validate.RegisterStructRules(confirmPassword, CreateInput{})
	return s
}

func (s *Service) Register(ctx context.Context, in CreateInput, actorID string) (Tutor, error) {
	in = in.normalized()
	if err := s.check(in, true); err != nil {
		return Tutor{}, err
	}
	if err := s.ensureUnique(ctx, "", in); err != nil {
		return Tutor{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return Tutor{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	t := Tutor{
		ID:             uuid.NewString(),
		PasswordHash:   string(hash),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: strings.TrimSpace(actorID),
	}
	if err := fill(&t, in); err != nil {
		return Tutor{}, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return Tutor{}, err
	}

	if s.events != nil {
		ev := notifications.Event{
			Type:       notifications.TutorRegistered,
			OccurredAt: now,
			Payload:    map[string]any{"id": t.ID, "name": t.Name, "email": t.Email},
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("publish event failed", logger.Fields{"type": ev.Type, "err": err})
		}
	}
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Tutor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Tutor{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// GetActive es lo que usan pets: un tutor inactivo no puede recibir mascotas.
func (s *Service) GetActive(ctx context.Context, id string) (Tutor, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return Tutor{}, err
	}
	if !t.Active {
		return Tutor{}, ErrNotFound
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Tutor, int, error) {
	f = normalizeFilter(f)
	f.Page = f.Page.Normalize()
	return s.repo.List(ctx, f)
}

func (s *Service) Search(ctx context.Context, f Filter) ([]Tutor, error) {
	f = normalizeFilter(f)
	f.IncludeInactive = false
	f.Page = paging.Params{}
	if f.OrderBy == "" {
		f.OrderBy = OrderName
	}
	out, _, err := s.repo.List(ctx, f)
	return out, err
}

func (s *Service) Update(ctx context.Context, id string, patch UpdateInput, actorID string) (Tutor, error) {
	current, err := s.GetActive(ctx, id)
	if err != nil {
		return Tutor{}, err
	}

	in := formOf(current).apply(patch).normalized()
	if err := s.check(in, false); err != nil {
		return Tutor{}, err
	}
	if err := s.ensureUnique(ctx, current.ID, in); err != nil {
		return Tutor{}, err
	}

	t := current
	if err := fill(&t, in); err != nil {
		return Tutor{}, err
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
		if err != nil {
			return Tutor{}, fmt.Errorf("hash password: %w", err)
		}
		t.PasswordHash = string(hash)
	}
	t.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		t.LastModifiedBy = a
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return Tutor{}, err
	}
	return t, nil
}

// Delete es soft delete. Las mascotas del tutor quedan como están.
func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	t, err := s.GetActive(ctx, id)
	if err != nil {
		return err
	}
	t.Active = false
	t.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		t.LastModifiedBy = a
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) check(in CreateInput, requirePassword bool) error {
	errs := validation.Errors{}
	if err := s.validate.Struct(in); err != nil {
		ve, ok := validation.AsErrors(err)
		if !ok {
			return err
		}
		errs = ve
	}
	if requirePassword && in.Password == "" {
		errs.Add("password", "is required")
	}
	return errs.OrNil()
}

func (s *Service) ensureUnique(ctx context.Context, selfID string, in CreateInput) error {
	other, err := s.repo.FindByCPF(ctx, in.CPF)
	switch {
	case err == nil && other.ID != selfID:
		return &ConflictError{Field: "cpf"}
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	other, err = s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && other.ID != selfID:
		return &ConflictError{Field: "email"}
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}
	return nil
}

func normalizeFilter(f Filter) Filter {
	f.Name = strings.TrimSpace(f.Name)
	f.CPF = validation.OnlyDigits(f.CPF)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = validation.OnlyDigits(f.Phone)
	return f
}

func fill(t *Tutor, in CreateInput) error {
	birth, err := validation.ParseDate(in.BirthDate)
	if err != nil {
		return ErrInvalidInput
	}
	t.Name = in.Name
	t.CPF = in.CPF
	t.Email = in.Email
	t.Phone = in.Phone
	t.Address = in.Address
	t.BirthDate = birth
	return nil
}
