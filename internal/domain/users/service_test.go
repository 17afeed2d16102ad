package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vet-clinic-api/internal/ports/notifications"
	"vet-clinic-api/internal/validation"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, u User) error {
	return m.Called(u).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, u User) error {
	return m.Called(u).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}

func (m *mockRepo) FindByCPF(ctx context.Context, cpf string) (User, error) {
	args := m.Called(cpf)
	return args.Get(0).(User), args.Error(1)
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}

func (m *mockRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, f Filter) ([]User, int, error) {
	args := m.Called(f)
	return args.Get(0).([]User), args.Int(1), args.Error(2)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev notifications.Event) error {
	return m.Called(ev).Error(0)
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, pub notifications.Publisher) *Service {
	s := NewService(repo, pub, nil)
	s.now = func() time.Time { return fixedNow }
	s.hashCost = bcrypt.MinCost
	return s
}

func vetInput() CreateInput {
	return CreateInput{
		Name:            "  Gabriel Souza ",
		CPF:             "615.983.920-93",
		Email:           "Gabriel@Clinic.com",
		Phone:           "(11) 98765-4321",
		Role:            RoleVeterinarian,
		AdmissionDate:   "2024-02-01",
		Password:        "g@briel984gM",
		ConfirmPassword: "g@briel984gM",
	}
}

func expectFree(repo *mockRepo) {
	repo.On("FindByCPF", mock.Anything).Return(User{}, ErrNotFound)
	repo.On("FindByEmail", mock.Anything).Return(User{}, ErrNotFound)
	repo.On("FindByUsername", mock.Anything).Return(User{}, ErrNotFound)
}

func TestCreate_NormalizesHashesAndPublishes(t *testing.T) {
	repo := new(mockRepo)
	pub := new(mockPublisher)
	expectFree(repo)
	repo.On("Create", mock.AnythingOfType("users.User")).Return(nil).Once()
	pub.On("Publish", mock.MatchedBy(func(ev notifications.Event) bool {
		return ev.Type == notifications.UserCreated && ev.Payload["email"] == "gabriel@clinic.com"
	})).Return(nil).Once()

	u, err := newTestService(repo, pub).Create(context.Background(), vetInput(), "admin-1")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Gabriel Souza", u.Name)
	assert.Equal(t, "61598392093", u.CPF)
	assert.Equal(t, "11987654321", u.Phone)
	assert.Equal(t, "gabriel@clinic.com", u.Email)
	assert.Equal(t, "2024-02-01", validation.FormatDate(u.AdmissionDate))
	assert.True(t, u.Active)
	assert.Equal(t, "admin-1", u.LastModifiedBy)
	assert.True(t, CheckPassword(u, "g@briel984gM"))
	assert.NotContains(t, u.PasswordHash, "g@briel984gM")

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	repo := new(mockRepo)
	pub := new(mockPublisher)
	expectFree(repo)
	repo.On("Create", mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything).Return(errors.New("broker down"))

	_, err := newTestService(repo, pub).Create(context.Background(), vetInput(), "")
	assert.NoError(t, err)
}

func TestCreate_ValidationNeverTouchesRepo(t *testing.T) {
	repo := new(mockRepo)
	in := vetInput()
	in.CPF = "615.983.920-94"
	in.Password = "gabriel984gM"
	in.ConfirmPassword = "other"
	in.AdmissionDate = "2025-03-11"

	_, err := newTestService(repo, nil).Create(context.Background(), in, "")

	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "is not a valid CPF", errs["cpf"])
	assert.Equal(t, "must contain a special character", errs["password"])
	assert.Equal(t, "passwords do not match", errs["confirmPassword"])
	assert.Equal(t, "cannot be in the future", errs["admissionDate"])
	repo.AssertNotCalled(t, "Create", mock.Anything)
	repo.AssertNotCalled(t, "FindByCPF", mock.Anything)
}

func TestCreate_RoleConditionalFields(t *testing.T) {
	svc := newTestService(new(mockRepo), nil)

	staff := vetInput()
	staff.AdmissionDate = ""
	errs, ok := validation.AsErrors(func() error { _, err := svc.Create(context.Background(), staff, ""); return err }())
	require.True(t, ok)
	assert.Equal(t, "is required for staff members", errs["admissionDate"])

	client := vetInput()
	client.Role = RoleClient
	client.AdmissionDate = ""
	errs, ok = validation.AsErrors(func() error { _, err := svc.Create(context.Background(), client, ""); return err }())
	require.True(t, ok)
	assert.Equal(t, "is required for clients", errs["address"])
	assert.Equal(t, "is required for clients", errs["birthDate"])
	assert.NotContains(t, errs, "admissionDate")
}

func TestCreate_PasswordRequired(t *testing.T) {
	in := vetInput()
	in.Password, in.ConfirmPassword = "", ""

	_, err := newTestService(new(mockRepo), nil).Create(context.Background(), in, "")
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "is required", errs["password"])
}

func TestCreate_DuplicateCPF(t *testing.T) {
	repo := new(mockRepo)
	repo.On("FindByCPF", "61598392093").Return(User{ID: "other", Active: false}, nil)

	_, err := newTestService(repo, nil).Create(context.Background(), vetInput(), "")

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cpf", ce.Field)
	assert.ErrorIs(t, err, ErrConflict)
}

func stored() User {
	admission := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return User{
		ID:            "u-1",
		Name:          "Gabriel Souza",
		CPF:           "61598392093",
		Email:         "gabriel@clinic.com",
		Phone:         "11987654321",
		Role:          RoleVeterinarian,
		AdmissionDate: &admission,
		PasswordHash:  "hash",
		Active:        true,
		CreatedAt:     fixedNow.Add(-time.Hour),
	}
}

func TestUpdate_EmailKeepsOtherFields(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", "u-1").Return(stored(), nil)
	repo.On("FindByCPF", "61598392093").Return(stored(), nil)
	repo.On("FindByEmail", "new@clinic.com").Return(User{}, ErrNotFound)
	repo.On("Update", mock.MatchedBy(func(u User) bool {
		return u.Email == "new@clinic.com" && u.PasswordHash == "hash" && u.LastModifiedBy == "admin-9"
	})).Return(nil).Once()

	email := "new@clinic.com"
	u, err := newTestService(repo, nil).Update(context.Background(), "u-1", UpdateInput{Email: &email}, "admin-9")
	require.NoError(t, err)
	assert.Equal(t, "new@clinic.com", u.Email)
	assert.Equal(t, fixedNow, u.UpdatedAt)
	repo.AssertExpectations(t)
}

func TestUpdate_RevalidatesMergedState(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", "u-1").Return(stored(), nil)

	role := RoleClient
	_, err := newTestService(repo, nil).Update(context.Background(), "u-1", UpdateInput{Role: &role}, "")

	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "address")
	assert.Contains(t, errs, "birthDate")
	repo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestUpdate_EmailTakenByAnother(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", "u-1").Return(stored(), nil)
	repo.On("FindByCPF", mock.Anything).Return(stored(), nil)
	repo.On("FindByEmail", "taken@clinic.com").Return(User{ID: "u-2"}, nil)

	email := "taken@clinic.com"
	_, err := newTestService(repo, nil).Update(context.Background(), "u-1", UpdateInput{Email: &email}, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDelete_SoftDeletes(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", "u-1").Return(stored(), nil)
	repo.On("Update", mock.MatchedBy(func(u User) bool { return !u.Active && u.LastModifiedBy == "admin-1" })).Return(nil).Once()

	require.NoError(t, newTestService(repo, nil).Delete(context.Background(), "u-1", "admin-1"))
	repo.AssertExpectations(t)
}

func TestDelete_AdministratorProtected(t *testing.T) {
	admin := stored()
	admin.Role = RoleAdministrator

	repo := new(mockRepo)
	repo.On("GetByID", "u-1").Return(admin, nil)

	err := newTestService(repo, nil).Delete(context.Background(), "u-1", "")
	assert.ErrorIs(t, err, ErrProtected)
	repo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestDelete_AlreadyInactive(t *testing.T) {
	gone := stored()
	gone.Active = false

	repo := new(mockRepo)
	repo.On("GetByID", "u-1").Return(gone, nil)

	assert.ErrorIs(t, newTestService(repo, nil).Delete(context.Background(), "u-1", ""), ErrNotFound)
}

func TestSearch_ForcesActiveUnpagedByName(t *testing.T) {
	repo := new(mockRepo)
	repo.On("List", mock.MatchedBy(func(f Filter) bool {
		return !f.IncludeInactive && f.Page.Unbounded() && f.OrderBy == OrderName && f.CPF == "615983"
	})).Return([]User{stored()}, 1, nil)

	out, err := newTestService(repo, nil).Search(context.Background(), Filter{CPF: "615.983", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
