package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/dbx"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/config"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/models"
	refreshtokensrepo "github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/refreshtokens"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/repomanager"
	usersrepo "github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/users"
	vaultsrepo "github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/vaults"
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

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}
func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr error

	createErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	return f.createErr
}
func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}
func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Vaults(db dbx.DBTX) vaultsrepo.Repository               { return nil }

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefreshToken_NoDatabaseHandle(t *testing.T) {
	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, nil, rm)

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-1 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestRefreshToken_Unknown(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{r: &fakeRefreshRepo{findErr: common.ErrNotFound}}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestRefreshToken_FindErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{r: &fakeRefreshRepo{findErr: errBoom{}}}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error searching refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped find error, got %v", err)
	}
}

func TestRefreshToken_DeleteErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
			delErr:  errBoom{},
		},
	}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error deleting refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
}

func TestRefreshToken_GeneratePair_CreateErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut:   &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
			createErr: errBoom{},
		},
	}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrInternal) {
		t.Fatalf("want ErrInternal, got %v", err)
	}
}

func TestRegister_SuccessAndError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rmOK := &fakeRepoManager{
		u: &fakeUsersRepo{createOut: &models.User{ID: "42", UserName: "alice"}},
		r: &fakeRefreshRepo{},
	}
	sOK := newUserService(t, db, rmOK)
	u, err := sOK.Register(context.Background(), "alice", []byte("s"), []byte("v"))
	if err != nil || u.ID != "42" {
		t.Fatalf("Register ok: got (%v, %v)", u, err)
	}

	rmDup := &fakeRepoManager{
		u: &fakeUsersRepo{createErr: common.ErrLoginAlreadyExists},
		r: &fakeRefreshRepo{},
	}
	sDup := newUserService(t, db, rmDup)
	_, err = sDup.Register(context.Background(), "alice", []byte("s"), []byte("v"))
	if !errors.Is(err, common.ErrLoginAlreadyExists) {
		t.Fatalf("Register duplicate: want ErrLoginAlreadyExists, got %v", err)
	}

	rmErr := &fakeRepoManager{
		u: &fakeUsersRepo{createErr: errBoom{}},
		r: &fakeRefreshRepo{},
	}
	sErr := newUserService(t, db, rmErr)
	_, err = sErr.Register(context.Background(), "bob", []byte("s"), []byte("v"))
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("Register expected wrapped error, got %v", err)
	}
}

func TestGetSalt_Found_NotFound_Internal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rmFound := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{Salt: []byte("SALT")}},
		r: &fakeRefreshRepo{},
	}
	s := newUserService(t, db, rmFound)
	salt, err := s.GetSalt(context.Background(), "alice")
	if err != nil || string(salt) != "SALT" {
		t.Fatalf("GetSalt found: got (%q, %v)", string(salt), err)
	}

	rmNF := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: common.ErrNotFound},
		r: &fakeRefreshRepo{},
	}
	s2 := newUserService(t, db, rmNF)
	salt2, err := s2.GetSalt(context.Background(), "ghost")
	if err != nil || len(salt2) != 32 {
		t.Fatalf("GetSalt not found: len=%d err=%v", len(salt2), err)
	}

	rmErr := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: errBoom{}},
		r: &fakeRefreshRepo{},
	}
	s3 := newUserService(t, db, rmErr)
	_, err = s3.GetSalt(context.Background(), "xx")
	if !errors.Is(err, common.ErrInternal) {
		t.Fatalf("GetSalt internal: want ErrInternal, got %v", err)
	}
}

func TestLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	// not found → unauthorized
	rmNF := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: common.ErrNotFound},
		r: &fakeRefreshRepo{},
	}
	sNF := newUserService(t, db, rmNF)
	if _, _, err := sNF.Login(context.Background(), "ghost", []byte("x")); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("notfound → unauthorized, got %v", err)
	}

	// internal error
	rmIE := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: errBoom{}},
		r: &fakeRefreshRepo{},
	}
	sIE := newUserService(t, db, rmIE)
	if _, _, err := sIE.Login(context.Background(), "u", []byte("x")); !errors.Is(err, common.ErrInternal) {
		t.Fatalf("internal → ErrInternal, got %v", err)
	}

	// wrong verifier → unauthorized
	rmWV := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", Verifier: []byte("right")}},
		r: &fakeRefreshRepo{},
	}
	sWV := newUserService(t, db, rmWV)
	if _, _, err := sWV.Login(context.Background(), "u", []byte("wrong")); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("wrong verifier → unauthorized, got %v", err)
	}

	rmOK := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", Verifier: []byte("right")}},
		r: &fakeRefreshRepo{},
	}
	sOK := newUserService(t, db, rmOK)
	user, pair, err := sOK.Login(context.Background(), "u", []byte("right"))
	if err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Login success: pair=%+v err=%v", pair, err)
	}
	if user.ID != "u1" {
		t.Fatalf("Login success: user=%+v", user)
	}
}
