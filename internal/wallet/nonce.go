package wallet

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Nonce lookup failures. The auth flow maps both onto a single
// invalid-credentials error; they are distinct here so tests (and logs) can
// tell a replayed nonce from a stale one.
var (
	ErrNonceNotFound = errors.New("wallet: nonce not found")
	ErrNonceExpired  = errors.New("wallet: nonce expired")
)

// nonceTTL is how long an issued challenge stays valid.
const nonceTTL = 5 * time.Minute

type challenge struct {
	nonce     string
	expiresAt time.Time
}

// Registry is an in-memory, single-use challenge store keyed by normalized
// (lower-cased) wallet address.
//
// INVARIANTS:
//   - At most one live challenge per address: Issue overwrites any previous
//     unconsumed challenge (intentional — it supports "request a new nonce").
//   - Consume is atomic lookup+delete, so two concurrent verification
//     attempts can never both succeed on the same nonce.
//   - Expired entries are evicted lazily on lookup; no background sweep.
//
// This store is process-local. Running multiple instances requires swapping
// it for a shared keyed store with TTL (e.g. Redis) behind the same
// Issue/Consume surface — the auth flow doesn't care which it gets.
type Registry struct {
	mu         sync.Mutex
	challenges map[string]challenge
	appName    string

	// now is stubbed in tests to exercise expiry without sleeping.
	now func() time.Time
}

// NewRegistry creates a Registry. appName is embedded in the message the
// wallet signs, e.g. "MyStockFolio".
func NewRegistry(appName string) *Registry {
	return &Registry{
		challenges: make(map[string]challenge),
		appName:    appName,
		now:        time.Now,
	}
}

// Issue generates a fresh challenge for the address and returns both the raw
// nonce and the assembled message the wallet must sign verbatim.
func (r *Registry) Issue(address string) (nonce, message string) {
	addr := NormalizeAddress(address)
	nonce = uuid.NewString()

	r.mu.Lock()
	r.challenges[addr] = challenge{
		nonce:     nonce,
		expiresAt: r.now().Add(nonceTTL),
	}
	r.mu.Unlock()

	return nonce, r.SignedMessage(nonce)
}

// Consume atomically removes the challenge for the address and returns its
// nonce. It fails with ErrNonceNotFound if no challenge exists and
// ErrNonceExpired if the stored one is past its deadline (the stale entry is
// evicted as a side effect).
//
// Consumption is irreversible: even if the subsequent signature check fails,
// the caller must request a fresh nonce. That is what blocks replay.
func (r *Registry) Consume(address string) (string, error) {
	addr := NormalizeAddress(address)

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[addr]
	if !ok {
		return "", ErrNonceNotFound
	}
	delete(r.challenges, addr)

	if r.now().After(c.expiresAt) {
		return "", ErrNonceExpired
	}
	return c.nonce, nil
}

// SignedMessage rebuilds the exact message a wallet was asked to sign for
// the given nonce. The auth flow uses it to reconstruct the verification
// payload after consuming the challenge.
func (r *Registry) SignedMessage(nonce string) string {
	return fmt.Sprintf("%s Login\n\nNonce: %s", r.appName, nonce)
}

// NormalizeAddress lower-cases and trims a wallet address. Every map key and
// every stored wallet_address goes through this, so case differences in what
// wallets report can never split one identity into two.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
