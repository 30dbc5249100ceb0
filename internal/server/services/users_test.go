package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	usersrepo "github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// fakeUsersRepo is an in-memory users.Repository with injectable faults.
type fakeUsersRepo struct {
	byID map[string]*models.User

	createErr error
	getErr    error
	takenErr  error
	updateErr error
	foldErr   error
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) FindByEmailFold(ctx context.Context, normalized string) (*models.User, error) {
	if f.foldErr != nil {
		return nil, f.foldErr
	}
	for _, u := range f.byID {
		if models.FoldEmail(u.Email) == normalized {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) EmailTaken(ctx context.Context, email string, exceptID string) (bool, error) {
	if f.takenErr != nil {
		return false, f.takenErr
	}
	for id, u := range f.byID {
		if u.Email == email && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }

// failingHasher lets hashing fail after construction.
type failingHasher struct {
	cryptox.PasswordHasher
	hashErr error
}

func (h *failingHasher) Hash(plaintext string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.PasswordHasher.Hash(plaintext)
}

func newHasher(t *testing.T) *failingHasher {
	t.Helper()
	h, err := cryptox.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return &failingHasher{PasswordHasher: h}
}

func newUserService(t *testing.T, db *sql.DB, repo *fakeUsersRepo, h cryptox.PasswordHasher) *UserService {
	t.Helper()
	cfg := &config.Config{EqualizeTiming: true}
	s, err := NewUserService(db, &fakeRepoManager{u: repo}, h, logging.Nop(), cfg)
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }

func candidate() models.Candidate {
	return models.Candidate{
		FirstName:            "Test",
		LastName:             "User",
		Email:                "test@test.com",
		Password:             "test123",
		PasswordConfirmation: strPtr("test123"),
	}
}

func requireValidation(t *testing.T, err error, field, msg string) {
	t.Helper()
	var errs validation.Errors
	require.True(t, errors.As(err, &errs), "want validation.Errors, got %v", err)
	assert.True(t, errs.Has(field, msg), "errors: %v", errs)
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := newFakeUsersRepo()
	h := newHasher(t)
	s := newUserService(t, nil, repo, h)

	u, err := s.Register(context.Background(), candidate())
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "test@test.com", u.Email)
	assert.NotEqual(t, "test123", u.PasswordDigest)

	ok, err := h.Verify("test123", u.PasswordDigest)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordDigest, stored.PasswordDigest)
}

func TestRegister_ValidationFailure(t *testing.T) {
	repo := newFakeUsersRepo()
	s := newUserService(t, nil, repo, newHasher(t))

	c := candidate()
	c.PasswordConfirmation = strPtr("test1234")

	u, err := s.Register(context.Background(), c)
	assert.Nil(t, u)
	requireValidation(t, err, validation.FieldPasswordConfirmation, validation.MsgConfirmation)
	assert.Empty(t, repo.byID, "nothing must be stored")
}

func TestRegister_IgnoresSuppliedDigest(t *testing.T) {
	s := newUserService(t, nil, newFakeUsersRepo(), newHasher(t))

	c := candidate()
	c.Password = ""
	c.PasswordConfirmation = nil
	c.PasswordDigest = "$2a$04$smuggled"

	_, err := s.Register(context.Background(), c)
	requireValidation(t, err, validation.FieldPasswordDigest, validation.MsgBlank)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUsersRepo(&models.User{ID: "u1", Email: "test@test.com"})
	s := newUserService(t, nil, repo, newHasher(t))

	_, err := s.Register(context.Background(), candidate())
	requireValidation(t, err, validation.FieldEmail, validation.MsgTaken)
}

func TestRegister_LostRace(t *testing.T) {
	repo := newFakeUsersRepo()
	repo.createErr = common.ErrorAlreadyExists
	s := newUserService(t, nil, repo, newHasher(t))

	_, err := s.Register(context.Background(), candidate())
	requireValidation(t, err, validation.FieldEmail, validation.MsgTaken)
}

func TestRegister_InfrastructureFaults(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *fakeUsersRepo, h *failingHasher)
	}{
		{"uniqueness query", func(r *fakeUsersRepo, h *failingHasher) { r.takenErr = errBoom{} }},
		{"hash", func(r *fakeUsersRepo, h *failingHasher) { h.hashErr = errBoom{} }},
		{"insert", func(r *fakeUsersRepo, h *failingHasher) { r.createErr = errBoom{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUsersRepo()
			h := newHasher(t)
			s := newUserService(t, nil, repo, h)
			tt.setup(repo, h)

			_, err := s.Register(context.Background(), candidate())
			assert.ErrorIs(t, err, common.ErrorInternal)
		})
	}
}

// --- Authenticate ---

func TestAuthenticate(t *testing.T) {
	repo := newFakeUsersRepo()
	s := newUserService(t, nil, repo, newHasher(t))

	registered, err := s.Register(context.Background(), candidate())
	require.NoError(t, err)

	u, err := s.Authenticate(context.Background(), " TEST@test.com ", "test123")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, registered.ID, u.ID)

	u, err = s.Authenticate(context.Background(), "test@test.com", "test1234")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.Authenticate(context.Background(), "nobody@test.com", "test123")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestAuthenticate_StoreFault(t *testing.T) {
	repo := newFakeUsersRepo()
	repo.foldErr = errBoom{}
	s := newUserService(t, nil, repo, newHasher(t))

	u, err := s.Authenticate(context.Background(), "test@test.com", "test123")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestNewUserService_AuthenticatorError(t *testing.T) {
	h := newHasher(t)
	h.hashErr = errBoom{}

	_, err := NewUserService(nil, &fakeRepoManager{u: newFakeUsersRepo()}, h, logging.Nop(),
		&config.Config{EqualizeTiming: true})
	require.Error(t, err)
}

// --- GetByID ---

func TestGetByID(t *testing.T) {
	repo := newFakeUsersRepo(&models.User{ID: "u1", Email: "a@test.com"})
	s := newUserService(t, nil, repo, newHasher(t))

	u, err := s.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@test.com", u.Email)

	_, err = s.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	repo.getErr = errBoom{}
	_, err = s.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

// --- Update ---

func existingUser(t *testing.T, h cryptox.PasswordHasher) *models.User {
	t.Helper()
	d, err := h.Hash("test123")
	require.NoError(t, err)
	return &models.User{ID: "u1", FirstName: "Test", LastName: "User", Email: "test@test.com", PasswordDigest: d}
}

func TestUpdate_KeepsDigestWithoutPassword(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	h := newHasher(t)
	orig := existingUser(t, h)
	repo := newFakeUsersRepo(orig)
	s := newUserService(t, db, repo, h)

	c := candidate()
	c.FirstName = "Renamed"
	c.Password = ""
	c.PasswordConfirmation = nil

	u, err := s.Update(context.Background(), "u1", c)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.FirstName)
	assert.Equal(t, orig.PasswordDigest, u.PasswordDigest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RehashesNewPassword(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	h := newHasher(t)
	repo := newFakeUsersRepo(existingUser(t, h))
	s := newUserService(t, db, repo, h)

	c := candidate()
	c.Password = "newsecret"
	c.PasswordConfirmation = strPtr("newsecret")

	u, err := s.Update(context.Background(), "u1", c)
	require.NoError(t, err)
	ok, err := h.Verify("newsecret", u.PasswordDigest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdate_OwnEmailIsNotTaken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	h := newHasher(t)
	s := newUserService(t, db, newFakeUsersRepo(existingUser(t, h)), h)

	c := candidate()
	c.Password = ""
	c.PasswordConfirmation = nil

	_, err := s.Update(context.Background(), "u1", c)
	require.NoError(t, err)
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		mutate func(c *models.Candidate, r *fakeUsersRepo)
		check  func(t *testing.T, err error)
	}{
		{
			name: "missing user",
			id:   "ghost",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrorNotFound)
			},
		},
		{
			name: "validation failure",
			id:   "u1",
			mutate: func(c *models.Candidate, r *fakeUsersRepo) {
				c.Password = "short"
				c.PasswordConfirmation = nil
			},
			check: func(t *testing.T, err error) {
				requireValidation(t, err, validation.FieldPassword, validation.MsgTooShort)
			},
		},
		{
			name: "email of another user",
			id:   "u1",
			mutate: func(c *models.Candidate, r *fakeUsersRepo) {
				r.byID["u2"] = &models.User{ID: "u2", Email: "other@test.com"}
				c.Email = "other@test.com"
			},
			check: func(t *testing.T, err error) {
				requireValidation(t, err, validation.FieldEmail, validation.MsgTaken)
			},
		},
		{
			name: "lost race on update",
			id:   "u1",
			mutate: func(c *models.Candidate, r *fakeUsersRepo) {
				r.updateErr = common.ErrorAlreadyExists
			},
			check: func(t *testing.T, err error) {
				requireValidation(t, err, validation.FieldEmail, validation.MsgTaken)
			},
		},
		{
			name: "store fault",
			id:   "u1",
			mutate: func(c *models.Candidate, r *fakeUsersRepo) {
				r.updateErr = errBoom{}
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrorInternal)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			defer db.Close()
			mock.ExpectBegin()
			mock.ExpectRollback()

			h := newHasher(t)
			repo := newFakeUsersRepo(existingUser(t, h))
			s := newUserService(t, db, repo, h)

			c := candidate()
			if tt.mutate != nil {
				tt.mutate(&c, repo)
			}

			u, err := s.Update(context.Background(), tt.id, c)
			assert.Nil(t, u)
			tt.check(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
