package medicalrecords

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/ports/files"
	"vet-clinic-api/internal/ports/notifications"
	"vet-clinic-api/internal/validation"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	byID     map[string]Record
	last     Filter
	writeErr error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Record{}}
}

func (r *testRepo) Create(ctx context.Context, rec Record) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) Update(ctx context.Context, rec Record) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.byID[rec.ID]; !ok {
		return ErrNotFound
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Record, error) {
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) List(ctx context.Context, f Filter) ([]Record, int, error) {
	r.last = f
	out := make([]Record, 0)
	for _, rec := range r.byID {
		if f.PetID != "" && rec.PetID != f.PetID {
			continue
		}
		if rec.Active || f.IncludeInactive {
			out = append(out, rec)
		}
	}
	return out, len(out), nil
}

type petDir map[string]pets.Pet

func (d petDir) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	p, ok := d[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

type staffDir map[string]users.User

func (d staffDir) GetByID(ctx context.Context, id string) (users.User, error) {
	u, ok := d[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

// memFiles guarda en memoria; el nombre guardado es "<n>_<name>".
// failAt > 0 hace fallar el Save número failAt.
type memFiles struct {
	data   map[string][]byte
	seq    int
	failAt int
}

func newMemFiles() *memFiles {
	return &memFiles{data: map[string][]byte{}}
}

func (m *memFiles) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	if m.seq == m.failAt {
		return "", errors.New("disk full")
	}
	stored := fmt.Sprintf("%d_%s", m.seq, name)
	m.data[stored] = b
	return stored, nil
}

func (m *memFiles) Open(ctx context.Context, stored string) (io.ReadCloser, error) {
	b, ok := m.data[stored]
	if !ok {
		return nil, files.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memFiles) Remove(ctx context.Context, stored string) error {
	delete(m.data, stored)
	return nil
}

type recordingPublisher struct {
	events []notifications.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev notifications.Event) error {
	p.events = append(p.events, ev)
	return nil
}

var today = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	repo   *testRepo
	files  *memFiles
	events *recordingPublisher
}

func newFixture() fixture {
	f := fixture{
		repo:   newTestRepo(),
		files:  newMemFiles(),
		events: &recordingPublisher{},
	}
	f.svc = NewService(Deps{
		Repo: f.repo,
		Pets: petDir{
			"pet-1": {ID: "pet-1", Name: "Rex", Active: true},
			"pet-2": {ID: "pet-2", Name: "Mia", Active: false},
		},
		Staff: staffDir{
			"vet-1": {ID: "vet-1", Name: "Dra. Paula", Role: users.RoleVeterinarian, Active: true},
			"vet-2": {ID: "vet-2", Name: "Dr. Ex", Role: users.RoleVeterinarian, Active: false},
			"att-1": {ID: "att-1", Name: "Carlos", Role: users.RoleAttendant, Active: true},
		},
		Files:  f.files,
		Events: f.events,
	})
	f.svc.now = func() time.Time { return today }
	return f
}

func consultation() CreateInput {
	return CreateInput{
		PetID:            "pet-1",
		VeterinarianID:   "vet-1",
		ConsultationDate: "2025-06-10",
		Diagnosis:        " Otite externa ",
		Prescription:     "Limpeza e antibiótico tópico",
	}
}

// -------------------------
// Tests
// -------------------------

func TestCreate_OK(t *testing.T) {
	f := newFixture()

	uploads := []Upload{{FileName: "exame.pdf", ContentType: "application/pdf", Content: strings.NewReader("pdf-bytes")}}
	rec, err := f.svc.Create(context.Background(), consultation(), uploads, "")
	require.NoError(t, err)

	assert.Equal(t, "Otite externa", rec.Diagnosis)
	assert.Equal(t, "Rex", rec.PetName)
	assert.Equal(t, "Dra. Paula", rec.VeterinarianName)
	assert.Equal(t, "vet-1", rec.LastModifiedBy)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), rec.ConsultationDate)
	assert.True(t, rec.Active)

	require.Len(t, rec.Attachments, 1)
	assert.Equal(t, "exame.pdf", rec.Attachments[0].FileName)
	assert.Equal(t, int64(len("pdf-bytes")), rec.Attachments[0].Size)
	assert.Contains(t, f.files.data, rec.Attachments[0].StoredName)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, notifications.MedicalRecordCreated, f.events.events[0].Type)
	assert.Equal(t, "2025-06-10", f.events.events[0].Payload["consultationDate"])
}

func TestCreate_References(t *testing.T) {
	cases := map[string]struct {
		mutate func(*CreateInput)
		field  string
	}{
		"missing pet":      {func(in *CreateInput) { in.PetID = "nope" }, "petId"},
		"inactive pet":     {func(in *CreateInput) { in.PetID = "pet-2" }, "petId"},
		"missing vet":      {func(in *CreateInput) { in.VeterinarianID = "nope" }, "veterinarianId"},
		"inactive vet":     {func(in *CreateInput) { in.VeterinarianID = "vet-2" }, "veterinarianId"},
		"not veterinarian": {func(in *CreateInput) { in.VeterinarianID = "att-1" }, "veterinarianId"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			in := consultation()
			tc.mutate(&in)

			_, err := f.svc.Create(context.Background(), in, nil, "")
			errs, ok := validation.AsErrors(err)
			require.True(t, ok, "expected validation errors, got %v", err)
			assert.Contains(t, errs, tc.field)
			assert.Empty(t, f.repo.byID)
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	in := consultation()
	in.Diagnosis = ""
	in.Prescription = strings.Repeat("x", 1001)
	in.ConsultationDate = "10/06/2025"

	_, err := f.svc.Create(context.Background(), in, nil, "")
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "is required", errs["diagnosis"])
	assert.Equal(t, "must have at most 1000 characters", errs["prescription"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", errs["consultationDate"])
}

func TestCreate_StorageFailureRemovesSavedFiles(t *testing.T) {
	f := newFixture()
	f.files.failAt = 2

	uploads := []Upload{
		{FileName: "exame.pdf", Content: strings.NewReader("pdf")},
		{FileName: "raio-x.png", Content: strings.NewReader("png")},
	}
	_, err := f.svc.Create(context.Background(), consultation(), uploads, "")
	require.Error(t, err)

	assert.Empty(t, f.files.data)
	assert.Empty(t, f.repo.byID)
}

func TestCreate_RepoFailureRemovesSavedFiles(t *testing.T) {
	f := newFixture()
	f.repo.writeErr = errors.New("db down")

	uploads := []Upload{
		{FileName: "exame.pdf", Content: strings.NewReader("pdf")},
		{FileName: "raio-x.png", Content: strings.NewReader("png")},
	}
	_, err := f.svc.Create(context.Background(), consultation(), uploads, "")
	require.ErrorIs(t, err, f.repo.writeErr)

	assert.Empty(t, f.files.data)
	assert.Empty(t, f.events.events)
}

func TestUpdate_RepoFailureKeepsExistingFiles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, consultation(), []Upload{{FileName: "raio-x.png", Content: strings.NewReader("png")}}, "")
	require.NoError(t, err)

	f.repo.writeErr = errors.New("db down")
	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{}, []Upload{{FileName: "laudo.pdf", Content: strings.NewReader("pdf")}}, "")
	require.ErrorIs(t, err, f.repo.writeErr)

	require.Len(t, f.files.data, 1)
	assert.Contains(t, f.files.data, rec.Attachments[0].StoredName)
}

func TestSearch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Search(ctx, Filter{})
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "is required", errs["petId"])

	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Search(ctx, Filter{PetID: "pet-1", From: &from, To: &to})
	errs, ok = validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "endDate")

	_, err = f.svc.Create(ctx, consultation(), nil, "")
	require.NoError(t, err)

	out, err := f.svc.Search(ctx, Filter{PetID: " pet-1 ", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.False(t, f.repo.last.IncludeInactive)
	assert.True(t, f.repo.last.Page.Unbounded())
}

func TestUpdate_AppendsAttachments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := []Upload{{FileName: "raio-x.png", Content: strings.NewReader("png")}}
	rec, err := f.svc.Create(ctx, consultation(), first, "")
	require.NoError(t, err)

	notes := "Retorno em 7 dias"
	second := []Upload{{FileName: "laudo.pdf", Content: strings.NewReader("pdf")}}
	updated, err := f.svc.Update(ctx, rec.ID, UpdateInput{Notes: &notes}, second, "vet-9")
	require.NoError(t, err)

	assert.Equal(t, "Retorno em 7 dias", updated.Notes)
	assert.Equal(t, rec.Diagnosis, updated.Diagnosis)
	assert.Equal(t, "vet-9", updated.LastModifiedBy)
	require.Len(t, updated.Attachments, 2)
	assert.Equal(t, "raio-x.png", updated.Attachments[0].FileName)
	assert.Equal(t, "laudo.pdf", updated.Attachments[1].FileName)

	empty := ""
	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{Diagnosis: &empty}, nil, "")
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)
}

func TestDelete_Soft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, consultation(), nil, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, rec.ID, "vet-1"))

	got, err := f.svc.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.ErrorIs(t, f.svc.Delete(ctx, rec.ID, "vet-1"), ErrNotFound)
	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{}, nil, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteArchive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uploads := []Upload{
		{FileName: "exame.pdf", Content: strings.NewReader("primeiro")},
		{FileName: "exame.pdf", Content: strings.NewReader("segundo")},
	}
	rec, err := f.svc.Create(ctx, consultation(), uploads, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.WriteArchive(ctx, rec, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	contents := map[string]string{}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		contents[zf.Name] = string(b)
	}
	assert.Equal(t, map[string]string{"exame.pdf": "primeiro", "2_exame.pdf": "segundo"}, contents)
}

func TestWriteArchive_PrefixedNameAlreadyTaken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uploads := []Upload{
		{FileName: "exame.pdf", Content: strings.NewReader("a")},
		{FileName: "2_exame.pdf", Content: strings.NewReader("b")},
		{FileName: "exame.pdf", Content: strings.NewReader("c")},
	}
	rec, err := f.svc.Create(ctx, consultation(), uploads, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.WriteArchive(ctx, rec, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	assert.Equal(t, []string{"exame.pdf", "2_exame.pdf", "3_exame.pdf"}, names)
}
