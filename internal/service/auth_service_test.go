package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/internal/dto"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return domain.ErrEmailTaken
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

const testSecret = "test-secret"

func TestSignup_IssuesValidToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret, 0)

	token, user, err := svc.Signup(context.Background(), &dto.SignupRequest{
		Email:    "Alice@Example.com",
		Password: "correct horse",
		Name:     "Alice",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %s", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in plain text")
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["user_id"] != user.ID {
		t.Errorf("token user_id mismatch: %v", claims["user_id"])
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret, 0)
	ctx := context.Background()

	req := &dto.SignupRequest{Email: "a@b.com", Password: "password1", Name: "A"}
	if _, _, err := svc.Signup(ctx, req); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, _, err := svc.Signup(ctx, req); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin_CredentialChecks(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret, 0)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, &dto.SignupRequest{
		Email: "a@b.com", Password: "password1", Name: "A",
	}); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@b.com", Password: "password1"}); err != nil {
		t.Errorf("valid login failed: %v", err)
	}

	// Wrong password and unknown account look identical to the caller.
	_, _, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@b.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	_, _, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@b.com", Password: "password1"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
