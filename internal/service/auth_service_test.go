package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

// ---------------------------------------------------------------------------
// In-memory stub user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	clone := *user
	clone.ID = id
	r.users[id] = &clone
	return id, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) List(_ context.Context, skip, limit int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

const testJWTSecret = "test-secret-not-for-production"

func newAuthFixture() (AuthService, *stubUserRepo) {
	repo := newStubUserRepo()
	return NewAuthService(repo, testJWTSecret, time.Hour), repo
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "ana@example.com", "ana", "correct horse", "Ana P")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password must be stored hashed")
	}
	if !user.IsActive {
		t.Error("new accounts must be active")
	}
	if user.IsAdmin {
		t.Error("self-registered accounts must not be admin")
	}

	token, loggedIn, err := svc.Login(context.Background(), "ana@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Error("login must return the registered user")
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token must verify against the secret: %v", err)
	}
	if claims.Subject != user.ID.Hex() {
		t.Errorf("token subject must be the user id, got %q", claims.Subject)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "ana@example.com", "ana", "password-one", ""); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "ana@example.com", "other", "password-two", ""); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate email must be rejected, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "other@example.com", "ana", "password-two", ""); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate username must be rejected, got %v", err)
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()
	svc.Register(context.Background(), "ana@example.com", "ana", "right password", "")

	if _, _, err := svc.Login(context.Background(), "ana@example.com", "wrong password"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong password must fail authentication, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever pass"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("unknown email must fail the same way, got %v", err)
	}
}

func TestAuthService_LoginDeactivatedAccount(t *testing.T) {
	svc, repo := newAuthFixture()
	user, _ := svc.Register(context.Background(), "ana@example.com", "ana", "some password", "")

	repo.users[user.ID].IsActive = false

	if _, _, err := svc.Login(context.Background(), "ana@example.com", "some password"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("deactivated account must not log in, got %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _ := newAuthFixture()
	user, _ := svc.Register(context.Background(), "ana@example.com", "ana", "some password", "Ana")
	svc.Register(context.Background(), "bob@example.com", "bob", "other password", "Bob")

	newName := "Ana Paulina"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{FullName: &newName})
	if err != nil {
		t.Fatalf("profile update failed: %v", err)
	}
	if updated.FullName != "Ana Paulina" {
		t.Errorf("full name not updated, got %q", updated.FullName)
	}
	if updated.Email != "ana@example.com" {
		t.Error("email must be untouched by a name-only update")
	}

	taken := "bob@example.com"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Email: &taken}); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("taking another user's email must be rejected, got %v", err)
	}
}
