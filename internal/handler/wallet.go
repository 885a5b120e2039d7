package handler

import (
	"log/slog"
	"net/http"

	"github.com/mystockfolio/backend/internal/service"
)

// WalletHandler serves the MetaMask signature login flow.
//
// ROUTES:
//   - POST /api/auth/metamask/nonce  → issue a single-use challenge
//   - POST /api/auth/metamask/verify → verify the signed challenge, log in
type WalletHandler struct {
	service *service.WalletService
	logger  *slog.Logger
}

func NewWalletHandler(svc *service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{service: svc, logger: logger}
}

type nonceRequest struct {
	Address string `json:"address"`
}

// HandleNonce issues a challenge for the address. The client asks the
// wallet to personal_sign the returned message verbatim.
//
// HTTP: POST /api/auth/metamask/nonce
func (h *WalletHandler) HandleNonce(w http.ResponseWriter, r *http.Request) {
	var req nonceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ch, err := h.service.IssueNonce(req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

type verifyRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"` // 0x-prefixed hex, 65 bytes decoded
	Nickname  string `json:"nickname"`  // required only on first login
}

// HandleVerify checks the signed challenge and returns a session. Every
// failure is a 401 regardless of cause; the remedy is always a fresh nonce.
//
// HTTP: POST /api/auth/metamask/verify
func (h *WalletHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.Authenticate(r.Context(), req.Address, req.Signature, req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, res)
}
