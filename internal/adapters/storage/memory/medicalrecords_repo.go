package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/medicalrecords"
	"vet-clinic-api/internal/platform/paging"
)

// MedicalRecordRepo completa PetName y VeterinarianName en cada lectura.
type MedicalRecordRepo struct {
	mu    sync.RWMutex
	byID  map[string]medicalrecords.Record
	pets  *PetRepo
	users *UserRepo
	opts  Options
}

func NewMedicalRecordRepo(pets *PetRepo, users *UserRepo, opts Options) *MedicalRecordRepo {
	return &MedicalRecordRepo{
		byID:  make(map[string]medicalrecords.Record),
		pets:  pets,
		users: users,
		opts:  opts,
	}
}

func (r *MedicalRecordRepo) Create(ctx context.Context, rec medicalrecords.Record) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("medical record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("medical record already exists")
	}
	r.byID[rec.ID] = stored(rec)
	return nil
}

func (r *MedicalRecordRepo) Update(ctx context.Context, rec medicalrecords.Record) error {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.ID]; !exists {
		return medicalrecords.ErrNotFound
	}
	r.byID[rec.ID] = stored(rec)
	return nil
}

// stored copia los adjuntos y descarta los campos derivados.
func stored(rec medicalrecords.Record) medicalrecords.Record {
	rec.Attachments = append([]medicalrecords.Attachment(nil), rec.Attachments...)
	rec.PetName = ""
	rec.VeterinarianName = ""
	return rec
}

func (r *MedicalRecordRepo) GetByID(ctx context.Context, id string) (medicalrecords.Record, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return medicalrecords.Record{}, err
	}
	r.mu.RLock()
	rec, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return medicalrecords.Record{}, medicalrecords.ErrNotFound
	}
	return r.resolve(rec), nil
}

func (r *MedicalRecordRepo) resolve(rec medicalrecords.Record) medicalrecords.Record {
	rec.Attachments = append([]medicalrecords.Attachment(nil), rec.Attachments...)
	if p, ok := r.pets.get(rec.PetID); ok {
		rec.PetName = p.Name
	}
	r.users.mu.RLock()
	rec.VeterinarianName = r.users.byID[rec.VeterinarianID].Name
	r.users.mu.RUnlock()
	return rec
}

func (r *MedicalRecordRepo) List(ctx context.Context, f medicalrecords.Filter) ([]medicalrecords.Record, int, error) {
	if err := wait(ctx, r.opts.Latency); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	out := make([]medicalrecords.Record, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	if !f.IncludeInactive {
		out = keep(out, func(rec medicalrecords.Record) bool { return rec.Active })
	}
	if f.PetID != "" {
		out = keep(out, func(rec medicalrecords.Record) bool { return rec.PetID == f.PetID })
	}
	if f.VeterinarianID != "" {
		out = keep(out, func(rec medicalrecords.Record) bool { return rec.VeterinarianID == f.VeterinarianID })
	}
	if f.From != nil || f.To != nil {
		out = keep(out, func(rec medicalrecords.Record) bool { return inRange(rec.ConsultationDate, f.From, f.To) })
	}
	if f.DiagnosisKeyword != "" {
		out = keep(out, func(rec medicalrecords.Record) bool { return contains(rec.Diagnosis, f.DiagnosisKeyword) })
	}

	// más reciente primero
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ConsultationDate.Equal(b.ConsultationDate) {
			return a.ConsultationDate.After(b.ConsultationDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	page := paging.Slice(out, f.Page)
	for i := range page {
		page[i] = r.resolve(page[i])
	}
	return page, len(out), nil
}
