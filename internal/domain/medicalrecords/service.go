package medicalrecords

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/platform/paging"
	"vet-clinic-api/internal/ports/files"
	"vet-clinic-api/internal/ports/notifications"
	"vet-clinic-api/internal/validation"
)

type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type StaffDirectory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Deps struct {
	Repo   Repository
	Pets   PetDirectory
	Staff  StaffDirectory
	Files  files.Storage
	Events notifications.Publisher
	Log    logger.Logger
}

type Service struct {
	repo     Repository
	pets     PetDirectory
	staff    StaffDirectory
	files    files.Storage
	events   notifications.Publisher
	log      logger.Logger
	validate *validation.Validator
	now      func() time.Time
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo:   d.Repo,
		pets:   d.Pets,
		staff:  d.Staff,
		files:  d.Files,
		events: d.Events,
		log:    log,
		now:    time.Now,
	}
	s.validate = validation.New(func() time.Time { return s.now() })
	return s
}

// Create registra la consulta. Sólo un usuario activo con rol VETERINARIO puede firmarla.
func (s *Service) Create(ctx context.Context, in CreateInput, uploads []Upload, actorID string) (Record, error) {
	in = in.normalized()
	if err := s.validate.Struct(in); err != nil {
		return Record{}, err
	}

	pet, vet, err := s.references(ctx, in)
	if err != nil {
		return Record{}, err
	}

	date, err := validation.ParseDate(in.ConsultationDate)
	if err != nil {
		return Record{}, ErrInvalidInput
	}

	attachments, err := s.store(ctx, uploads)
	if err != nil {
		return Record{}, err
	}

	actor := strings.TrimSpace(actorID)
	if actor == "" {
		actor = vet.ID
	}

	now := s.now()
	rec := Record{
		ID:               uuid.NewString(),
		PetID:            pet.ID,
		VeterinarianID:   vet.ID,
		ConsultationDate: date,
		Diagnosis:        in.Diagnosis,
		Prescription:     in.Prescription,
		Notes:            in.Notes,
		Attachments:      attachments,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
		LastModifiedBy:   actor,
		PetName:          pet.Name,
		VeterinarianName: vet.Name,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.discard(ctx, attachments)
		return Record{}, err
	}

	s.log.Info("medical record saved", logger.Fields{"id": rec.ID, "pet_id": rec.PetID, "attachments": len(attachments)})

	if s.events != nil {
		ev := notifications.Event{
			Type:       notifications.MedicalRecordCreated,
			OccurredAt: now,
			Payload: map[string]any{
				"id":               rec.ID,
				"petId":            rec.PetID,
				"veterinarianId":   rec.VeterinarianID,
				"consultationDate": validation.FormatDate(&rec.ConsultationDate),
			},
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("publish event failed", logger.Fields{"type": ev.Type, "err": err})
		}
	}
	return rec, nil
}

func (s *Service) references(ctx context.Context, in CreateInput) (pets.Pet, users.User, error) {
	errs := validation.Errors{}

	pet, err := s.pets.GetByID(ctx, in.PetID)
	switch {
	case errors.Is(err, pets.ErrNotFound), err == nil && !pet.Active:
		errs.Add("petId", "does not reference an active pet")
	case err != nil:
		return pets.Pet{}, users.User{}, err
	}

	vet, err := s.staff.GetByID(ctx, in.VeterinarianID)
	switch {
	case errors.Is(err, users.ErrNotFound), err == nil && (!vet.Active || vet.Role != users.RoleVeterinarian):
		errs.Add("veterinarianId", "must reference an active veterinarian")
	case err != nil:
		return pets.Pet{}, users.User{}, err
	}

	if len(errs) > 0 {
		return pets.Pet{}, users.User{}, errs
	}
	return pet, vet, nil
}

func (s *Service) store(ctx context.Context, uploads []Upload) ([]Attachment, error) {
	out := make([]Attachment, 0, len(uploads))
	for _, u := range uploads {
		if s.files == nil {
			return nil, errors.New("attachments storage not configured")
		}

		cr := &countingReader{r: u.Content}
		stored, err := s.files.Save(ctx, u.FileName, cr)
		if err != nil {
			s.discard(ctx, out)
			return nil, fmt.Errorf("save attachment %q: %w", u.FileName, err)
		}

		out = append(out, Attachment{
			ID:          uuid.NewString(),
			FileName:    u.FileName,
			StoredName:  stored,
			ContentType: u.ContentType,
			Size:        cr.n,
			UploadedAt:  s.now(),
		})
	}
	return out, nil
}

// discard borra archivos ya guardados de una operación que no llegó al repo.
func (s *Service) discard(ctx context.Context, atts []Attachment) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range atts {
		if err := s.files.Remove(ctx, a.StoredName); err != nil {
			s.log.Warn("remove attachment failed", logger.Fields{"stored": a.StoredName, "err": err})
		}
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Record, int, error) {
	f = normalizeFilter(f)
	f.Page = f.Page.Normalize()
	return s.repo.List(ctx, f)
}

// Search es la historia clínica de una mascota: petId obligatorio, activos, sin paginar.
func (s *Service) Search(ctx context.Context, f Filter) ([]Record, error) {
	f = normalizeFilter(f)
	if f.PetID == "" {
		return nil, validation.Errors{"petId": "is required"}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, validation.Errors{"endDate": "must not be before startDate"}
	}
	f.IncludeInactive = false
	f.Page = paging.Params{}
	out, _, err := s.repo.List(ctx, f)
	return out, err
}

// Update edita textos y agrega adjuntos nuevos. actorID (header veterinarianId) queda en lastModifiedBy.
func (s *Service) Update(ctx context.Context, id string, patch UpdateInput, uploads []Upload, actorID string) (Record, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !current.Active {
		return Record{}, ErrNotFound
	}

	in := CreateInput{
		PetID:            current.PetID,
		VeterinarianID:   current.VeterinarianID,
		ConsultationDate: validation.FormatDate(&current.ConsultationDate),
		Diagnosis:        current.Diagnosis,
		Prescription:     current.Prescription,
		Notes:            current.Notes,
	}
	if patch.Diagnosis != nil {
		in.Diagnosis = *patch.Diagnosis
	}
	if patch.Prescription != nil {
		in.Prescription = *patch.Prescription
	}
	if patch.Notes != nil {
		in.Notes = *patch.Notes
	}
	in = in.normalized()
	if err := s.validate.Struct(in); err != nil {
		return Record{}, err
	}

	added, err := s.store(ctx, uploads)
	if err != nil {
		return Record{}, err
	}

	rec := current
	rec.Diagnosis = in.Diagnosis
	rec.Prescription = in.Prescription
	rec.Notes = in.Notes
	rec.Attachments = append(append([]Attachment{}, current.Attachments...), added...)
	rec.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		rec.LastModifiedBy = a
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		s.discard(ctx, added)
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Active {
		return ErrNotFound
	}
	rec.Active = false
	rec.UpdatedAt = s.now()
	if a := strings.TrimSpace(actorID); a != "" {
		rec.LastModifiedBy = a
	}
	return s.repo.Update(ctx, rec)
}

func normalizeFilter(f Filter) Filter {
	f.PetID = strings.TrimSpace(f.PetID)
	f.VeterinarianID = strings.TrimSpace(f.VeterinarianID)
	f.DiagnosisKeyword = strings.TrimSpace(f.DiagnosisKeyword)
	return f
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
