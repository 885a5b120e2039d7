package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/model"
)

// newTestDB creates an in-memory database that disappears when the test
// finishes. Each test gets a fresh schema — no cross-test contamination.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestUserCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	u := &model.User{
		Email:        "alice@example.com",
		Nickname:     "alice",
		PasswordHash: strPtr("$2a$04$fakehash"),
		Provider:     model.ProviderLocal,
	}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == 0 {
		t.Fatal("Create() did not assign an ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	got, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "alice@example.com" || got.Nickname != "alice" {
		t.Errorf("GetByID() = %+v, want the created user", got)
	}
	if got.WalletAddress != nil {
		t.Errorf("WalletAddress = %v, want nil for a local account", *got.WalletAddress)
	}

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetByEmail().ID = %d, want %d", byEmail.ID, u.ID)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	first := &model.User{Email: "dup@example.com", Nickname: "one", Provider: model.ProviderLocal}
	if err := users.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &model.User{Email: "dup@example.com", Nickname: "two", Provider: model.ProviderLocal}
	err := users.Create(ctx, second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() with duplicate email error = %v, want ErrConflict", err)
	}
}

func TestUserCreateDuplicateWalletAddress(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	addr := "0x52908400098527886e0f7030069857d2e4169ee7"
	first := &model.User{
		Email:         addr + "@metamask.wallet",
		Nickname:      "w1",
		WalletAddress: strPtr(addr),
		Provider:      model.ProviderMetaMask,
		ProviderID:    addr,
	}
	if err := users.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &model.User{
		Email:         "other@example.com",
		Nickname:      "w2",
		WalletAddress: strPtr(addr),
		Provider:      model.ProviderMetaMask,
		ProviderID:    addr,
	}
	err := users.Create(ctx, second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() with duplicate wallet error = %v, want ErrConflict", err)
	}
}

func TestUserGetByWalletAddress(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	addr := "0xde709f2102306220921060314715629080e2fb77"
	u := &model.User{
		Email:         addr + "@metamask.wallet",
		Nickname:      "walleteer",
		WalletAddress: strPtr(addr),
		Provider:      model.ProviderMetaMask,
		ProviderID:    addr,
	}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := users.GetByWalletAddress(ctx, addr)
	if err != nil {
		t.Fatalf("GetByWalletAddress() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByWalletAddress().ID = %d, want %d", got.ID, u.ID)
	}

	_, err = users.GetByWalletAddress(ctx, "0x0000000000000000000000000000000000000000")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByWalletAddress() for unknown address error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdateNickname(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	u := &model.User{Email: "nick@example.com", Nickname: "before", Provider: model.ProviderGoogle, ProviderID: "g-123"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := users.UpdateNickname(ctx, u.ID, "after"); err != nil {
		t.Fatalf("UpdateNickname() error = %v", err)
	}

	got, err := users.GetByProvider(ctx, model.ProviderGoogle, "g-123")
	if err != nil {
		t.Fatalf("GetByProvider() error = %v", err)
	}
	if got.Nickname != "after" {
		t.Errorf("Nickname = %q, want %q", got.Nickname, "after")
	}

	if err := users.UpdateNickname(ctx, 99999, "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateNickname() for missing user error = %v, want ErrNotFound", err)
	}
}

func TestUserExistsByEmail(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	exists, err := users.ExistsByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("ExistsByEmail() error = %v", err)
	}
	if exists {
		t.Error("ExistsByEmail() = true for an unregistered email")
	}

	u := &model.User{Email: "somebody@example.com", Nickname: "sb", Provider: model.ProviderLocal}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	exists, err = users.ExistsByEmail(ctx, "somebody@example.com")
	if err != nil {
		t.Fatalf("ExistsByEmail() error = %v", err)
	}
	if !exists {
		t.Error("ExistsByEmail() = false for a registered email")
	}
}
