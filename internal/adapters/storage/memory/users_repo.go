package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/platform/paging"
)

type UserRepo struct {
	mu   sync.RWMutex
	byID map[string]users.User
	opts Options
}

func NewUserRepo(opts Options) *UserRepo {
	return &UserRepo{
		byID: make(map[string]users.User),
		opts: opts,
	}
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.byID[u.ID] = u
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u users.User) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[u.ID]; !exists {
		return users.ErrNotFound
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.byID[u.ID] = u
	return nil
}

// conflict revisa unicidad contra todos los registros, activos o no. Requiere r.mu.
func (r *UserRepo) conflict(u users.User) error {
	for _, other := range r.byID {
		if other.ID == u.ID {
			continue
		}
		switch {
		case other.CPF == u.CPF:
			return &users.ConflictError{Field: "cpf"}
		case strings.EqualFold(other.Email, u.Email):
			return &users.ConflictError{Field: "email"}
		case u.Username != "" && strings.EqualFold(other.Username, u.Username):
			return &users.ConflictError{Field: "username"}
		}
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return users.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) FindByCPF(ctx context.Context, cpf string) (users.User, error) {
	return r.find(ctx, func(u users.User) bool { return u.CPF == cpf })
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return r.find(ctx, func(u users.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (users.User, error) {
	if username == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.find(ctx, func(u users.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepo) find(ctx context.Context, match func(users.User) bool) (users.User, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return users.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if match(u) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *UserRepo) List(ctx context.Context, f users.Filter) ([]users.User, int, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	out := make([]users.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	r.mu.RUnlock()

	// filtros en secuencia, cada uno sobre el resultado del anterior
	if !f.IncludeInactive {
		out = keep(out, func(u users.User) bool { return u.Active })
	}
	if f.Name != "" {
		out = keep(out, func(u users.User) bool { return contains(u.Name, f.Name) })
	}
	if f.CPF != "" {
		out = keep(out, func(u users.User) bool { return strings.Contains(u.CPF, f.CPF) })
	}
	if f.Role != "" {
		out = keep(out, func(u users.User) bool { return u.Role == f.Role })
	}
	if f.AdmissionFrom != nil || f.AdmissionTo != nil {
		out = keep(out, func(u users.User) bool {
			return u.AdmissionDate != nil && inRange(*u.AdmissionDate, f.AdmissionFrom, f.AdmissionTo)
		})
	}

	sortUsers(out, f.OrderBy)
	return paging.Slice(out, f.Page), len(out), nil
}

func sortUsers(out []users.User, by users.Order) {
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch by {
		case users.OrderName:
			if !strings.EqualFold(a.Name, b.Name) {
				return lessFold(a.Name, b.Name)
			}
		case users.OrderDate:
			switch {
			case a.AdmissionDate == nil && b.AdmissionDate != nil:
				return false
			case a.AdmissionDate != nil && b.AdmissionDate == nil:
				return true
			case a.AdmissionDate != nil && !a.AdmissionDate.Equal(*b.AdmissionDate):
				return a.AdmissionDate.Before(*b.AdmissionDate)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func keep[T any](items []T, pred func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}
