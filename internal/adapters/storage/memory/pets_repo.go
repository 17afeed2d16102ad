package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/validation"
)

// PetRepo completa Owner en cada lectura desde el TutorRepo, como haría un join.
type PetRepo struct {
	mu     sync.RWMutex
	byID   map[string]pets.Pet
	tutors *TutorRepo
	opts   Options
}

func NewPetRepo(tutors *TutorRepo, opts Options) *PetRepo {
	return &PetRepo{
		byID:   make(map[string]pets.Pet),
		tutors: tutors,
		opts:   opts,
	}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	p.Owner = pets.Owner{}
	r.byID[p.ID] = p
	return nil
}

func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return pets.ErrNotFound
	}
	p.Owner = pets.Owner{}
	r.byID[p.ID] = p
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return pets.Pet{}, err
	}
	p, ok := r.get(id)
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

// get lee sin latencia y con Owner resuelto.
func (r *PetRepo) get(id string) (pets.Pet, bool) {
	r.mu.RLock()
	p, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return pets.Pet{}, false
	}
	p.Owner = r.tutors.owner(p.TutorID)
	return p, true
}

func (r *PetRepo) List(ctx context.Context, f pets.Filter) ([]pets.Pet, int, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	r.mu.RUnlock()

	for i := range out {
		out[i].Owner = r.tutors.owner(out[i].TutorID)
	}

	if !f.IncludeInactive {
		out = keep(out, func(p pets.Pet) bool { return p.Active })
	}
	if f.TutorID != "" {
		out = keep(out, func(p pets.Pet) bool { return p.TutorID == f.TutorID })
	}
	if f.Name != "" {
		out = keep(out, func(p pets.Pet) bool { return contains(p.Name, f.Name) })
	}
	if f.Species != "" {
		out = keep(out, func(p pets.Pet) bool { return p.Species == f.Species })
	}
	if f.Breed != "" {
		out = keep(out, func(p pets.Pet) bool { return contains(p.Breed, f.Breed) })
	}
	if f.OwnerName != "" {
		out = keep(out, func(p pets.Pet) bool { return contains(p.Owner.Name, f.OwnerName) })
	}
	if cpf := validation.OnlyDigits(f.OwnerCPF); cpf != "" {
		out = keep(out, func(p pets.Pet) bool { return strings.Contains(p.Owner.CPF, cpf) })
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.OrderBy {
		case pets.OrderOwner:
			if !strings.EqualFold(a.Owner.Name, b.Owner.Name) {
				return lessFold(a.Owner.Name, b.Owner.Name)
			}
			fallthrough
		case pets.OrderName:
			if !strings.EqualFold(a.Name, b.Name) {
				return lessFold(a.Name, b.Name)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return paging.Slice(out, f.Page), len(out), nil
}
