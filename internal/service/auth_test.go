package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/auth"
	"github.com/mystockfolio/backend/internal/model"
)

func newAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	svc := NewAuthService(
		users,
		auth.NewPasswordServiceForTest(4),
		testTokens(t),
		testLogger(),
	)
	return svc, users
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "Bob@Example.com", "bob", "hunter2hunter2", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if user.Email != "bob@example.com" {
		t.Errorf("Email = %q, want lower-cased %q", user.Email, "bob@example.com")
	}
	if user.Provider != model.ProviderLocal {
		t.Errorf("Provider = %q, want local", user.Provider)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "hunter2hunter2" {
		t.Error("password was not hashed")
	}

	res, err := svc.SignIn(ctx, "bob@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if res.UserID != user.ID || res.AccessToken == "" {
		t.Errorf("SignIn() = %+v, want the registered user with a token", res)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name                                        string
		email, nickname, password, passwordConfirm string
	}{
		{"bad email", "not-an-email", "n", "password123", "password123"},
		{"empty nickname", "a@b.com", "  ", "password123", "password123"},
		{"short password", "a@b.com", "n", "short", "short"},
		{"confirm mismatch", "a@b.com", "n", "password123", "password124"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.email, tt.nickname, tt.password, tt.passwordConfirm)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("SignUp() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "dup@example.com", "one", "password123", "password123"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	_, err := svc.SignUp(ctx, "dup@example.com", "two", "password123", "password123")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("SignUp() with duplicate email error = %v, want ErrConflict", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "carol@example.com", "carol", "password123", "password123"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	_, err := svc.SignIn(ctx, "carol@example.com", "wrong-password")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("SignIn() wrong password error = %v, want ErrInvalidCredentials", err)
	}

	_, err = svc.SignIn(ctx, "nobody@example.com", "password123")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("SignIn() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignInRejectsPasswordlessAccount(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()

	// An OAuth account has no password hash. Password sign-in must fail
	// without panicking on the nil hash.
	oauthUser := &model.User{
		Email: "social@example.com", Nickname: "social",
		Provider: model.ProviderGoogle, ProviderID: "g-1",
	}
	if err := users.Create(ctx, oauthUser); err != nil {
		t.Fatalf("seeding OAuth user: %v", err)
	}

	_, err := svc.SignIn(ctx, "social@example.com", "anything")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("SignIn() on OAuth account error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginOrRegisterOAuth(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	profile := &auth.Profile{
		Provider: "google", ProviderID: "g-42",
		Email: "dana@example.com", Nickname: "dana",
	}

	res, err := svc.LoginOrRegisterOAuth(ctx, profile)
	if err != nil {
		t.Fatalf("LoginOrRegisterOAuth() error = %v", err)
	}
	if !res.IsNewUser {
		t.Error("IsNewUser = false on first OAuth login")
	}

	// Same provider identity again: same account, not a new one.
	again, err := svc.LoginOrRegisterOAuth(ctx, profile)
	if err != nil {
		t.Fatalf("LoginOrRegisterOAuth() error = %v", err)
	}
	if again.IsNewUser {
		t.Error("IsNewUser = true on a returning OAuth login")
	}
	if again.UserID != res.UserID {
		t.Errorf("UserID = %d, want %d", again.UserID, res.UserID)
	}
}

func TestLoginOrRegisterOAuthWithheldEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	profile := &auth.Profile{Provider: "kakao", ProviderID: "12345"}
	res, err := svc.LoginOrRegisterOAuth(context.Background(), profile)
	if err != nil {
		t.Fatalf("LoginOrRegisterOAuth() error = %v", err)
	}
	if res.Email != "12345@kakao.oauth" {
		t.Errorf("Email = %q, want synthesized %q", res.Email, "12345@kakao.oauth")
	}
	if res.Nickname == "" {
		t.Error("Nickname is empty, want a provider fallback")
	}
}

func TestCompleteOAuth2(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.LoginOrRegisterOAuth(ctx, &auth.Profile{
		Provider: "naver", ProviderID: "n-1", Email: "eve@example.com", Nickname: "temp",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterOAuth() error = %v", err)
	}

	done, err := svc.CompleteOAuth2(ctx, res.UserID, "eve")
	if err != nil {
		t.Fatalf("CompleteOAuth2() error = %v", err)
	}
	if done.Nickname != "eve" {
		t.Errorf("Nickname = %q, want %q", done.Nickname, "eve")
	}
	if done.AccessToken == "" {
		t.Error("CompleteOAuth2() returned no fresh token")
	}

	if _, err := svc.CompleteOAuth2(ctx, 424242, "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CompleteOAuth2() for missing user error = %v, want ErrNotFound", err)
	}

	if _, err := svc.CompleteOAuth2(ctx, res.UserID, " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("CompleteOAuth2() with blank nickname error = %v, want ErrValidation", err)
	}
}
