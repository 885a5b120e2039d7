package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/mystockfolio/backend/internal/auth"
	"github.com/mystockfolio/backend/internal/service"
)

// AuthHandler serves local (email/password) auth and the OAuth2 social
// login flow.
//
// ROUTES:
//   - POST /api/auth/register         → create a local account
//   - POST /api/auth/login            → email/password sign-in
//   - POST /api/auth/oauth2/complete  → set nickname after first OAuth login
//   - GET  /api/auth/me               → current user's profile
//   - GET  /auth/{provider}/login     → redirect to the provider
//   - GET  /auth/{provider}/callback  → finish the provider handshake
type AuthHandler struct {
	service     *service.AuthService
	providers   map[string]*auth.Provider
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(
	svc *service.AuthService,
	providers map[string]*auth.Provider,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		providers:   providers,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Nickname        string `json:"nickname"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// HandleRegister creates a local account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.SignUp(r.Context(), req.Email, req.Nickname, req.Password, req.PasswordConfirm)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin signs a local account in and returns the access token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, res)
}

// HandleOAuthLogin redirects the browser to the provider's authorization
// page.
//
// HTTP: GET /auth/{provider}/login
//
// The random state lands in a short-lived cookie; the callback checks the
// provider echoed it back, which is what blocks CSRF-initiated logins.
func (h *AuthHandler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the provider handshake: verifies the state,
// exchanges the code for a profile, upserts the account, and sends the
// browser back to the frontend with a session cookie.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch", slog.String("provider", provider.Name()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization",
			slog.String("provider", provider.Name()),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, h.frontendURL+"/login?error=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.frontendURL+"/login?error=exchange_failed", http.StatusSeeOther)
		return
	}

	res, err := h.service.LoginOrRegisterOAuth(r.Context(), profile)
	if err != nil {
		h.logger.Error("oauth callback: login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL+"/login?error=login_failed", http.StatusSeeOther)
		return
	}

	setTokenCookie(w, res.AccessToken)

	// A brand-new account still needs to pick a nickname; route there.
	target := h.frontendURL + "/"
	if res.IsNewUser {
		target = h.frontendURL + "/oauth2/complete"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type completeOAuthRequest struct {
	Nickname string `json:"nickname"`
}

// HandleCompleteOAuth2 finishes first-time OAuth onboarding.
//
// HTTP: POST /api/auth/oauth2/complete (auth required)
func (h *AuthHandler) HandleCompleteOAuth2(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req completeOAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.CompleteOAuth2(r.Context(), userID, req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, res)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/auth/me (auth required)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleLogout clears the session cookie. The JWT itself stays valid until
// it expires, but without the cookie the browser can't send it.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// setTokenCookie stores the JWT in an HttpOnly cookie for the redirect-based
// flows. SPA clients use the accessToken from the JSON body instead.
func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production (requires HTTPS)
	})
}
