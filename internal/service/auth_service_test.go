package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
)

const testJWTSecret = "test-secret-do-not-use"

func newTestAuthService(userRepo *fakeUserRepo) AuthService {
	return NewAuthService(userRepo, testJWTSecret, 15*time.Minute, time.Hour)
}

func TestRegisterDefaultsToAthlete(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), "jane", "jane@example.com", "Jane", "Doe", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Profile.Role != domain.RoleAthlete {
		t.Errorf("role = %q, want %q", user.Profile.Role, domain.RoleAthlete)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not be returned")
	}
	if user.Calendar.Events == nil {
		t.Error("registration must initialize an empty calendar")
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "jane", "jane@example.com", "", "", "s3cretpass", "ADMIN"); !errors.Is(err, ErrValidation) {
		t.Errorf("Register() error = %v, want ErrValidation", err)
	}
}

func TestRegisterDuplicateCreatesNoSecondUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "jane", "jane@example.com", "Jane", "Doe", "s3cretpass", domain.RolePro); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	if _, err := svc.Register(ctx, "jane", "other@example.com", "", "", "s3cretpass", domain.RoleAthlete); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("duplicate username error = %v, want ErrDuplicateUsername", err)
	}
	if _, err := svc.Register(ctx, "janet", "jane@example.com", "", "", "s3cretpass", domain.RoleAthlete); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateEmail", err)
	}
	if len(repo.users) != 1 {
		t.Errorf("user count = %d, want 1; duplicates must not create partial records", len(repo.users))
	}
}

func TestLoginAndRefresh(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "jane", "jane@example.com", "Jane", "Doe", "s3cretpass", domain.RolePro); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	pair, user, err := svc.Login(ctx, "jane", "s3cretpass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("Login() must return both access and refresh tokens")
	}
	if user.PasswordHash != "" {
		t.Error("Login() must strip the password hash")
	}

	fresh, err := svc.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if fresh.Access == "" || fresh.Refresh == "" {
		t.Error("Refresh() must return a full new pair")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "jane", "jane@example.com", "", "", "s3cretpass", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, _, err := svc.Login(ctx, "jane", "wrongpass"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong password error = %v, want ErrAuthenticationFailed", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "s3cretpass"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("unknown username error = %v, want ErrAuthenticationFailed", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "jane", "jane@example.com", "", "", "s3cretpass", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	pair, _, err := svc.Login(ctx, "jane", "s3cretpass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.Access); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh(access token) error = %v, want ErrInvalidRefreshToken", err)
	}
	if _, err := svc.Refresh(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh(garbage) error = %v, want ErrInvalidRefreshToken", err)
	}
}
