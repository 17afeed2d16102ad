package router_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-api/internal/adapters/files/local"
	"vet-clinic-api/internal/clinicapi"
	"vet-clinic-api/internal/domain/medicalrecords"
	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/httpclient"
	"vet-clinic-api/internal/router"
)

const password = "g@briel984gM"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)

	ts := httptest.NewServer(router.NewRouter(router.Options{Files: store}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_UserLifecycle(t *testing.T) {
	ts := newServer(t)
	adminID := "admin-1"

	// 1) Alta de veterinario con CPF con máscara
	userID := createUser(t, ts.URL, adminID, map[string]any{
		"name":            "Gabriel Rocha",
		"cpf":             "615.983.920-93",
		"email":           "gabriel@clinica.test",
		"phone":           "(11) 98765-4321",
		"role":            "VETERINARIO",
		"admissionDate":   "2022-04-01",
		"password":        password,
		"confirmPassword": password,
	})

	// 2) Edición de email
	{
		st, body := doReq(t, ts.URL, "PATCH", "/users/"+userID+"?adminId="+adminID, "", map[string]any{
			"email": "gabriel.rocha@clinica.test",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch user, got %d body=%s", st, string(body))
		}
		var u struct {
			Email          string `json:"email"`
			CPF            string `json:"cpf"`
			LastModifiedBy string `json:"lastModifiedBy"`
		}
		require.NoError(t, json.Unmarshal(body, &u))
		assert.Equal(t, "gabriel.rocha@clinica.test", u.Email)
		assert.Equal(t, "61598392093", u.CPF)
		assert.Equal(t, adminID, u.LastModifiedBy)
	}

	// 3) Aparece en el listado
	assert.Contains(t, listUserIDs(t, ts.URL, "/users"), userID)

	// 4) Baja lógica
	{
		st, body := doReq(t, ts.URL, "DELETE", "/users/"+userID, adminID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete user, got %d body=%s", st, string(body))
		}
	}

	// 5) Ya no aparece en listados ni búsquedas
	assert.NotContains(t, listUserIDs(t, ts.URL, "/users"), userID)
	assert.NotContains(t, listUserIDs(t, ts.URL, "/users?role=VETERINARIO"), userID)
	{
		st, body := doReq(t, ts.URL, "GET", "/users/search?cpf=61598392093", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 search users, got %d body=%s", st, string(body))
		}
		assert.JSONEq(t, "[]", string(body))
	}

	// 6) Sigue existiendo como inactivo
	assert.Contains(t, listUserIDs(t, ts.URL, "/users?includeInactive=true"), userID)
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/users/"+userID, adminID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 deleting twice, got %d", st)
		}
	}

	// 7) El CPF sigue reservado
	{
		st, body := doReq(t, ts.URL, "POST", "/users", adminID, map[string]any{
			"name":            "Outro",
			"cpf":             "61598392093",
			"email":           "outro@clinica.test",
			"phone":           "11987654321",
			"role":            "ATENDENTE",
			"admissionDate":   "2023-01-01",
			"password":        password,
			"confirmPassword": password,
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicated cpf, got %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_CreateUser_ValidationErrors(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "POST", "/users", "", map[string]any{
		"name":            "Maria",
		"cpf":             "123.456.789-00",
		"email":           "not-an-email",
		"phone":           "11987654321",
		"role":            "CLIENTE",
		"password":        "abc",
		"confirmPassword": "abd",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", st, string(body))
	}

	var resp struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "validation failed", resp.Message)
	assert.Equal(t, "is not a valid CPF", resp.Errors["cpf"])
	assert.Equal(t, "must be a valid email", resp.Errors["email"])
	assert.Equal(t, "passwords do not match", resp.Errors["confirmPassword"])
	assert.Contains(t, resp.Errors, "password")
	assert.Contains(t, resp.Errors, "address")
	assert.Contains(t, resp.Errors, "birthDate")
}

func TestHTTP_AdministratorsCannotBeDeleted(t *testing.T) {
	ts := newServer(t)

	adminID := createUser(t, ts.URL, "", map[string]any{
		"name":            "Helena Prado",
		"cpf":             "529.982.247-25",
		"email":           "helena@clinica.test",
		"phone":           "11987654321",
		"role":            "ADMINISTRADOR",
		"admissionDate":   "2019-02-01",
		"password":        password,
		"confirmPassword": password,
	})

	st, _ := doReq(t, ts.URL, "DELETE", "/users/"+adminID, "", nil)
	assert.Equal(t, http.StatusConflict, st)

	ids := listUserIDs(t, ts.URL, "/users?role=ADMINISTRADOR")
	assert.Equal(t, []string{adminID}, ids)
}

func TestHTTP_MedicalRecordFlow(t *testing.T) {
	ts := newServer(t)
	ctx := context.Background()

	api, err := clinicapi.New(ts.URL, 5*time.Second)
	require.NoError(t, err)

	vet, err := api.CreateUser(ctx, users.CreateInput{
		Name:            "Dra. Paula Mendes",
		CPF:             "456.789.123-64",
		Email:           "paula@clinica.test",
		Phone:           "11976543210",
		Role:            users.RoleVeterinarian,
		AdmissionDate:   "2021-08-16",
		Password:        password,
		ConfirmPassword: password,
	}, "admin-1")
	require.NoError(t, err)

	tutor, err := api.RegisterTutor(ctx, tutors.CreateInput{
		Name:            "Marina Souza",
		CPF:             "862.451.390-15",
		Email:           "marina@mail.test",
		Phone:           "21998765432",
		Address:         "Rua das Flores, 120",
		BirthDate:       "1988-11-23",
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)

	pet, err := api.CreatePetForTutor(ctx, tutor.ID, pets.CreateInput{
		Name:      "Thor",
		Species:   pets.SpeciesDog,
		Breed:     "Golden Retriever",
		Sex:       pets.SexMale,
		BirthDate: "2019-05-10",
		Color:     "Dourado",
		Weight:    32.4,
	})
	require.NoError(t, err)
	assert.Equal(t, tutor.ID, pet.TutorID)
	assert.Equal(t, "Marina Souza", pet.TutorName)
	assert.Equal(t, "86245139015", pet.TutorCPF)

	// Consulta con dos adjuntos por multipart
	rec, err := api.CreateRecord(ctx, medicalrecords.CreateInput{
		PetID:            pet.ID,
		VeterinarianID:   vet.ID,
		ConsultationDate: "2025-03-02",
		Diagnosis:        "Otite externa",
		Prescription:     "Limpeza auricular diária",
	}, []clinicapi.File{
		{Name: "otoscopia.png", Content: strings.NewReader("png-bytes")},
		{Name: "receita.pdf", Content: strings.NewReader("pdf-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Thor", rec.PetName)
	assert.Equal(t, "Dra. Paula Mendes", rec.VeterinarianName)
	require.Len(t, rec.Attachments, 2)

	archive, err := api.DownloadAttachments(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"otoscopia.png": "png-bytes", "receita.pdf": "pdf-bytes"}, unzip(t, archive))

	// Consulta posterior sin adjuntos => 204 en la descarga
	later, err := api.CreateRecord(ctx, medicalrecords.CreateInput{
		PetID:            pet.ID,
		VeterinarianID:   vet.ID,
		ConsultationDate: "2025-04-10",
		Diagnosis:        "Retorno, otite resolvida",
		Prescription:     "Sem medicação",
	}, nil)
	require.NoError(t, err)

	archive, err = api.DownloadAttachments(ctx, later.ID)
	require.NoError(t, err)
	assert.Nil(t, archive)

	// Update agrega un adjunto y registra al veterinario que edita
	notes := "Tutor relatou melhora"
	updated, err := api.UpdateRecord(ctx, later.ID, medicalrecords.UpdateInput{Notes: &notes},
		[]clinicapi.File{{Name: "foto.jpg", Content: strings.NewReader("jpg")}}, vet.ID)
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, vet.ID, updated.LastModifiedBy)
	assert.Len(t, updated.Attachments, 1)

	// Historia: más reciente primero
	history, err := api.SearchRecords(ctx, clinicapi.RecordQuery{PetID: pet.ID})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, later.ID, history[0].ID)
	assert.Equal(t, rec.ID, history[1].ID)

	history, err = api.SearchRecords(ctx, clinicapi.RecordQuery{PetID: pet.ID, DiagnosisKeyword: "EXTERNA"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)

	_, err = api.SearchRecords(ctx, clinicapi.RecordQuery{})
	assert.Equal(t, http.StatusBadRequest, httpclient.StatusCode(err))
	assert.Equal(t, "is required", clinicapi.FieldErrors(err)["petId"])

	// Sólo un veterinario activo puede firmar
	_, err = api.CreateRecord(ctx, medicalrecords.CreateInput{
		PetID:            pet.ID,
		VeterinarianID:   tutor.ID,
		ConsultationDate: "2025-04-11",
		Diagnosis:        "x",
		Prescription:     "y",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, httpclient.StatusCode(err))
	assert.Contains(t, clinicapi.FieldErrors(err), "veterinarianId")

	// Baja lógica de la consulta
	require.NoError(t, api.DeleteRecord(ctx, rec.ID))
	history, err = api.SearchRecords(ctx, clinicapi.RecordQuery{PetID: pet.ID})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = api.GetRecord(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, httpclient.StatusCode(err))
	assert.Equal(t, "medical record not found", clinicapi.ErrorMessage(err))
}

func TestHTTP_PetsRequireActiveTutor(t *testing.T) {
	ts := newServer(t)
	ctx := context.Background()

	api, err := clinicapi.New(ts.URL, 5*time.Second)
	require.NoError(t, err)

	tutor, err := api.RegisterTutor(ctx, tutors.CreateInput{
		Name:            "Artur Dias",
		CPF:             "111.444.777-35",
		Email:           "artur@mail.test",
		Phone:           "1133334444",
		Address:         "Av. Paulista, 1000",
		BirthDate:       "1975-01-30",
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	require.NoError(t, api.DeleteTutor(ctx, tutor.ID, "admin-1"))

	_, err = api.CreatePet(ctx, pets.CreateInput{
		TutorID:   tutor.ID,
		Name:      "Mia",
		Species:   pets.SpeciesCat,
		Breed:     "SRD",
		Sex:       pets.SexFemale,
		BirthDate: "2022-01-01",
		Color:     "Preta",
		Weight:    3.5,
	})
	assert.Equal(t, http.StatusBadRequest, httpclient.StatusCode(err))
	assert.Contains(t, clinicapi.FieldErrors(err), "tutorId")
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHTTP_RateLimitIgnoresForwardedFor(t *testing.T) {
	hit := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	limiter := middleware.NewIPRateLimiter(0.001, 1)
	t.Cleanup(limiter.Stop)
	h := router.NewRouter(router.Options{RateLimiter: limiter})

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.2"))

	// detrás de un proxy propio cada cliente tiene su bucket
	trusted := middleware.NewIPRateLimiter(0.001, 1)
	t.Cleanup(trusted.Stop)
	h = router.NewRouter(router.Options{RateLimiter: trusted, TrustProxy: true})

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
}

func createUser(t *testing.T, baseURL, adminID string, payload map[string]any) string {
	t.Helper()

	path := "/users"
	if adminID != "" {
		path += "?adminId=" + adminID
	}
	st, body := doReq(t, baseURL, "POST", path, "", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create user, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create user: missing id body=%s", string(body))
	}
	return resp.ID
}

func listUserIDs(t *testing.T, baseURL, path string) []string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", path, "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list users, got %d body=%s", st, string(body))
	}

	var page struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("list users: %v body=%s", err, string(body))
	}
	ids := make([]string, 0, len(page.Data))
	for _, u := range page.Data {
		ids = append(ids, u.ID)
	}
	return ids
}

func unzip(t *testing.T, b []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		out[f.Name] = string(data)
	}
	return out
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
