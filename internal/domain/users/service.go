package users

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
	s.validate.RegisterStructRules(crossFieldRules, CreateInput{})
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID string) (User, error) {
	in = in.normalized()
	if err := s.check(in, true); err != nil {
		return User{}, err
	}
	if err := s.ensureUnique(ctx, "", in); err != nil {
		return User{}, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	u := User{
		ID:             uuid.NewString(),
		PasswordHash:   hash,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: strings.TrimSpace(actorID),
	}
	if err := fill(&u, in); err != nil {
		return User{}, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}

	s.publish(ctx, notifications.Event{
		Type:       notifications.UserCreated,
		OccurredAt: now,
		Payload: map[string]any{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
			"role":  string(u.Role),
		},
	})
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List es el listado paginado (GET /users).
func (s *Service) List(ctx context.Context, f Filter) ([]User, int, error) {
	f.CPF = validation.OnlyDigits(f.CPF)
	f.Page = f.Page.Normalize()
	return s.repo.List(ctx, f)
}

// Search devuelve todos los activos que cumplen el filtro, sin paginar. Orden por nombre salvo
// que se pida por fecha de admisión.
func (s *Service) Search(ctx context.Context, f Filter) ([]User, error) {
	f.CPF = validation.OnlyDigits(f.CPF)
	f.IncludeInactive = false
	f.Page = paging.Params{}
	if f.OrderBy == OrderCreated {
		f.OrderBy = OrderName
	}
	out, _, err := s.repo.List(ctx, f)
	return out, err
}

// Update aplica el patch sobre el estado actual y revalida el formulario completo.
func (s *Service) Update(ctx context.Context, id string, patch UpdateInput, actorID string) (User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !current.Active {
		return User{}, ErrNotFound
	}

	in := formOf(current).apply(patch).normalized()
	if err := s.check(in, false); err != nil {
		return User{}, err
	}
	if err := s.ensureUnique(ctx, current.ID, in); err != nil {
		return User{}, err
	}

	u := current
	if err := fill(&u, in); err != nil {
		return User{}, err
	}
	if in.Password != "" {
		if u.PasswordHash, err = s.hash(in.Password); err != nil {
			return User{}, err
		}
	}
	u.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		u.LastModifiedBy = a
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete desactiva al usuario (soft delete). Los administradores no se pueden borrar.
func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.Active {
		return ErrNotFound
	}
	if u.Role == RoleAdministrator {
		return ErrProtected
	}

	u.Active = false
	u.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		u.LastModifiedBy = a
	}
	return s.repo.Update(ctx, u)
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

// ensureUnique revisa CPF, email y username contra los demás usuarios (activos o no).
func (s *Service) ensureUnique(ctx context.Context, selfID string, in CreateInput) error {
	type lookup struct {
		field string
		value string
		find  func(context.Context, string) (User, error)
	}
	checks := []lookup{
		{"cpf", in.CPF, s.repo.FindByCPF},
		{"email", in.Email, s.repo.FindByEmail},
		{"username", in.Username, s.repo.FindByUsername},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		other, err := c.find(ctx, c.value)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return err
		case other.ID != selfID:
			return &ConflictError{Field: c.field}
		}
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) publish(ctx context.Context, ev notifications.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed", logger.Fields{"type": ev.Type, "err": err})
	}
}

// CheckPassword compara plain contra el hash guardado.
func CheckPassword(u User, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// fill copia el formulario ya validado y normalizado al modelo.
func fill(u *User, in CreateInput) error {
	admission, err := validation.ParseOptionalDate(in.AdmissionDate)
	if err != nil {
		return ErrInvalidInput
	}
	birth, err := validation.ParseOptionalDate(in.BirthDate)
	if err != nil {
		return ErrInvalidInput
	}

	u.Name = in.Name
	u.Username = in.Username
	u.CPF = in.CPF
	u.Email = in.Email
	u.Phone = in.Phone
	u.Role = in.Role
	u.AdmissionDate = admission
	u.Address = in.Address
	u.BirthDate = birth
	return nil
}
