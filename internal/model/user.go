// Package model defines the data structures used throughout the application.
package model

import "time"

// Auth providers a user account can originate from.
//
// "local" accounts sign up with email + password. OAuth2 accounts
// (google/naver/kakao) and wallet accounts (metamask) never set a password,
// which is why PasswordHash is a pointer — NULL in the database for them.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderNaver    = "naver"
	ProviderKakao    = "kakao"
	ProviderMetaMask = "metamask"
)

// User represents a registered account.
//
// WHY WalletAddress *string?
// Only MetaMask users have a wallet address. An empty string would be
// ambiguous (and would collide on the UNIQUE index), so absence is modelled
// as NULL. When present the address is normalized to lower case and is
// exactly 42 characters starting with "0x".
//
// WHY a synthesized email for wallet users?
// The users table keys uniqueness on email, a leftover from password-based
// accounts. Wallet-only users get "{address}@metamask.wallet" so the
// constraint holds without implying a real mailbox. Provider is the real
// discriminator for how the account authenticates.
type User struct {
	ID            int64     `json:"userId"        db:"id"`
	Email         string    `json:"email"         db:"email"`
	Nickname      string    `json:"nickname"      db:"nickname"`
	PasswordHash  *string   `json:"-"             db:"password_hash"`
	WalletAddress *string   `json:"walletAddress" db:"wallet_address"`
	Provider      string    `json:"provider"      db:"provider"`
	ProviderID    string    `json:"-"             db:"provider_id"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
}
