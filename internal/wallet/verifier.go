// Package wallet implements MetaMask-style wallet authentication primitives:
// signature verification against a claimed address, and a single-use,
// time-bounded nonce registry.
//
// HOW WALLET LOGIN PROVES IDENTITY:
// The server hands the client a random nonce embedded in a human-readable
// message. The wallet signs that message with the user's private key
// (personal_sign). The server then recovers the signer's address from the
// signature — if it matches the claimed address, the client controls the
// key, and therefore the account. The private key never leaves the wallet.
package wallet

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// personalPrefix is the fixed prefix MetaMask's personal_sign prepends to
// the message before hashing. The decimal byte-length of the message follows
// the prefix, then the message itself, with no separator:
//
//	"\x19Ethereum Signed Message:\n" + len(message) + message
//
// Signing a prefixed hash (instead of the raw message) guarantees a signed
// login challenge can never double as a valid transaction.
const personalPrefix = "\x19Ethereum Signed Message:\n"

// signatureLength is r (32 bytes) || s (32 bytes) || v (1 byte).
const signatureLength = 65

// Verifier recovers the signer address from a personal-message signature and
// compares it to a claimed address. Stateless and safe for concurrent use.
type Verifier struct{}

// NewVerifier returns a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify reports whether signature was produced over message by the private
// key controlling claimedAddress.
//
// RECOVERY ID BRUTE FORCE:
// A 65-byte signature carries a recovery id (v) telling us which of the
// possible public keys produced it. Wallet extensions are inconsistent about
// how they encode v (0/1 vs 27/28, sometimes EIP-155 adjusted), so instead
// of trusting the parsed value we try all four recovery ids and accept the
// first candidate whose derived address matches the claim. The loop is
// bounded at 4 iterations; a per-candidate recovery failure just moves on to
// the next id.
//
// Verify never returns an error — a malformed signature, empty message, or
// no matching candidate all resolve to false.
func (v *Verifier) Verify(message string, signature []byte, claimedAddress string) bool {
	if message == "" || claimedAddress == "" || len(signature) != signatureLength {
		return false
	}

	hash := hashPersonalMessage(message)

	// Normalize legacy 27/28 encoding down so the candidate loop always
	// starts from a clean copy. The parsed v itself is deliberately not
	// trusted (see above).
	sig := make([]byte, signatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	for recID := byte(0); recID < 4; recID++ {
		sig[64] = recID

		pub, err := crypto.SigToPub(hash, sig)
		if err != nil {
			continue // this candidate failed, try the next recovery id
		}

		recovered := crypto.PubkeyToAddress(*pub)
		if strings.EqualFold(recovered.Hex(), claimedAddress) {
			return true
		}
	}

	return false
}

// hashPersonalMessage returns the keccak-256 hash of the message wrapped in
// the Ethereum personal-message envelope.
func hashPersonalMessage(message string) []byte {
	payload := personalPrefix + strconv.Itoa(len(message)) + message
	return crypto.Keccak256([]byte(payload))
}
