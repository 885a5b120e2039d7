package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/auth"
	"github.com/mystockfolio/backend/internal/service"
)

// PortfolioHandler serves portfolio and asset CRUD. Every route sits behind
// RequireAuth; the user ID always comes from the token, never the request
// body, so a client can't act on another user's behalf.
//
// ROUTES:
//   - GET    /api/portfolios                → list (with assets)
//   - POST   /api/portfolios                → create
//   - GET    /api/portfolios/{id}           → get one (with assets)
//   - PUT    /api/portfolios/{id}           → rename
//   - DELETE /api/portfolios/{id}           → delete (cascades to assets)
//   - GET    /api/portfolios/{id}/assets    → list assets
//   - POST   /api/portfolios/{id}/assets    → add asset
//   - PUT    /api/assets/{assetId}          → update asset
//   - DELETE /api/assets/{assetId}          → delete asset
type PortfolioHandler struct {
	service *service.PortfolioService
	logger  *slog.Logger
}

func NewPortfolioHandler(svc *service.PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{service: svc, logger: logger}
}

// idParam parses a chi URL parameter as an int64 ID.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer")
	}
	return id, nil
}

// requireUser pulls the authenticated user ID from the context. On a
// RequireAuth-protected route this never fails, but handlers stay defensive
// about it rather than assuming middleware ordering.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

// HandleList returns all of the user's portfolios with their assets.
func (h *PortfolioHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	portfolios, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolios)
}

type portfolioRequest struct {
	Name string `json:"name"`
}

// HandleCreate adds an empty portfolio.
func (h *PortfolioHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req portfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGet returns one portfolio with its assets.
func (h *PortfolioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleRename changes a portfolio's name.
func (h *PortfolioHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req portfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.service.Rename(r.Context(), userID, id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete removes a portfolio and its assets.
func (h *PortfolioHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAssets returns a portfolio's holdings.
func (h *PortfolioHandler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	assets, err := h.service.ListAssets(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// HandleAddAsset adds a holding to a portfolio.
func (h *PortfolioHandler) HandleAddAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.AssetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.service.AddAsset(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleUpdateAsset modifies a holding.
func (h *PortfolioHandler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	assetID, err := idParam(r, "assetId")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.AssetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.service.UpdateAsset(r.Context(), userID, assetID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDeleteAsset removes a holding.
func (h *PortfolioHandler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	assetID, err := idParam(r, "assetId")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteAsset(r.Context(), userID, assetID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
