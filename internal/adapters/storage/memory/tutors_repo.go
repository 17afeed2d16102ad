package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/validation"
)

type TutorRepo struct {
	mu   sync.RWMutex
	byID map[string]tutors.Tutor
	opts Options
}

func NewTutorRepo(opts Options) *TutorRepo {
	return &TutorRepo{
		byID: make(map[string]tutors.Tutor),
		opts: opts,
	}
}

func (r *TutorRepo) Create(ctx context.Context, t tutors.Tutor) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" {
		return errors.New("tutor id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errors.New("tutor already exists")
	}
	if err := r.conflict(t); err != nil {
		return err
	}
	r.byID[t.ID] = t
	return nil
}

func (r *TutorRepo) Update(ctx context.Context, t tutors.Tutor) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[t.ID]; !exists {
		return tutors.ErrNotFound
	}
	if err := r.conflict(t); err != nil {
		return err
	}
	r.byID[t.ID] = t
	return nil
}

// Requiere r.mu.
func (r *TutorRepo) conflict(t tutors.Tutor) error {
	for _, other := range r.byID {
		if other.ID == t.ID {
			continue
		}
		if other.CPF == t.CPF {
			return &tutors.ConflictError{Field: "cpf"}
		}
		if strings.EqualFold(other.Email, t.Email) {
			return &tutors.ConflictError{Field: "email"}
		}
	}
	return nil
}

func (r *TutorRepo) GetByID(ctx context.Context, id string) (tutors.Tutor, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return tutors.Tutor{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return tutors.Tutor{}, tutors.ErrNotFound
	}
	return t, nil
}

func (r *TutorRepo) FindByCPF(ctx context.Context, cpf string) (tutors.Tutor, error) {
	return r.find(ctx, func(t tutors.Tutor) bool { return t.CPF == cpf })
}

func (r *TutorRepo) FindByEmail(ctx context.Context, email string) (tutors.Tutor, error) {
	return r.find(ctx, func(t tutors.Tutor) bool { return strings.EqualFold(t.Email, email) })
}

func (r *TutorRepo) find(ctx context.Context, match func(tutors.Tutor) bool) (tutors.Tutor, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return tutors.Tutor{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.byID {
		if match(t) {
			return t, nil
		}
	}
	return tutors.Tutor{}, tutors.ErrNotFound
}

func (r *TutorRepo) List(ctx context.Context, f tutors.Filter) ([]tutors.Tutor, int, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	out := make([]tutors.Tutor, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	r.mu.RUnlock()

	if !f.IncludeInactive {
		out = keep(out, func(t tutors.Tutor) bool { return t.Active })
	}
	if f.Name != "" {
		out = keep(out, func(t tutors.Tutor) bool { return contains(t.Name, f.Name) })
	}
	if cpf := validation.OnlyDigits(f.CPF); cpf != "" {
		out = keep(out, func(t tutors.Tutor) bool { return strings.Contains(t.CPF, cpf) })
	}
	if f.Email != "" {
		out = keep(out, func(t tutors.Tutor) bool { return contains(t.Email, f.Email) })
	}
	if phone := validation.OnlyDigits(f.Phone); phone != "" {
		out = keep(out, func(t tutors.Tutor) bool { return strings.Contains(t.Phone, phone) })
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.OrderBy == tutors.OrderName && !strings.EqualFold(a.Name, b.Name) {
			return lessFold(a.Name, b.Name)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return paging.Slice(out, f.Page), len(out), nil
}

// owner resuelve el tutor de una mascota sin latencia. Tutor desconocido => Owner vacío.
func (r *TutorRepo) owner(id string) pets.Owner {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return pets.Owner{}
	}
	return pets.Owner{Name: t.Name, CPF: t.CPF}
}
