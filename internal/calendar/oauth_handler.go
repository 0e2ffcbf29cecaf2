package calendar

import (
	"errors"
	"net/http"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

// OAuthHandler implements the Google Calendar connect flow: consent redirect,
// callback, status check and disconnect.
type OAuthHandler struct {
	google      *GoogleClient
	connections ConnectionStore
	refs        ReferenceStore
	publisher   BackfillPublisher
	logger      *logging.Logger
}

// NewOAuthHandler creates the connect-flow handler. The publisher may be nil,
// in which case newly connected users are not backfilled automatically.
func NewOAuthHandler(google *GoogleClient, connections ConnectionStore, refs ReferenceStore, publisher BackfillPublisher, logger *logging.Logger) *OAuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &OAuthHandler{
		google:      google,
		connections: connections,
		refs:        refs,
		publisher:   publisher,
		logger:      logger,
	}
}

// Connect handles GET /google-calendar/connect?userId= by redirecting to the
// Google consent screen. The userId rides along as OAuth state.
func (h *OAuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, h.google.AuthCodeURL(userID), http.StatusFound)
}

// Callback handles the OAuth redirect: exchanges the code, resolves the
// account email, stores the connection and enqueues a backfill job.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if userID == "" || code == "" {
		http.Error(w, "missing state or code", http.StatusBadRequest)
		return
	}

	tok, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", "error", err, "user_id", userID)
		http.Error(w, "authorization exchange failed", http.StatusBadGateway)
		return
	}

	email, err := h.google.PrimaryCalendarEmail(r.Context(), tok)
	if err != nil {
		h.logger.Error("failed to resolve account email", "error", err, "user_id", userID)
		http.Error(w, "failed to resolve calendar account", http.StatusBadGateway)
		return
	}

	conn := &Connection{
		UserID:       userID,
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
		ConnectedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := h.connections.Put(r.Context(), conn); err != nil {
		h.logger.Error("failed to store connection", "error", err, "user_id", userID)
		http.Error(w, "failed to store connection", http.StatusInternalServerError)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.Enqueue(r.Context(), BackfillJob{UserID: userID}); err != nil {
			// The connection itself succeeded; backfill can be triggered
			// manually via /calendar/sync-existing.
			h.logger.Warn("failed to enqueue backfill job", "error", err, "user_id", userID)
		}
	}

	h.logger.Info("calendar connected", "user_id", userID, "email", email)
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"email":     email,
	})
}

// Status handles GET /google-calendar/status?userId=.
func (h *OAuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.connections.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			writeJSON(w, http.StatusOK, map[string]any{"connected": false})
			return
		}
		h.logger.Error("failed to fetch connection", "error", err, "user_id", userID)
		http.Error(w, "failed to fetch connection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connected":   true,
		"email":       conn.Email,
		"connectedAt": conn.ConnectedAt,
		"lastSyncAt":  conn.LastSyncAt,
	})
}

// Disconnect handles DELETE /google-calendar/status?userId=. Removing the
// connection also prunes the user's event references, keeping the invariant
// that no reference exists for a disconnected user.
func (h *OAuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	if err := h.connections.Delete(r.Context(), userID); err != nil {
		h.logger.Error("failed to delete connection", "error", err, "user_id", userID)
		http.Error(w, "failed to disconnect", http.StatusInternalServerError)
		return
	}

	pruned := 0
	if h.refs != nil {
		n, err := h.refs.DeleteByUser(r.Context(), userID)
		pruned = n
		if err != nil {
			// Connection is gone; leftover references are cleaned up on the
			// next delete fan-out that touches them.
			h.logger.Warn("failed to prune references on disconnect", "error", err, "user_id", userID, "pruned", n)
		}
	}

	h.logger.Info("calendar disconnected", "user_id", userID, "pruned_references", pruned)
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":        false,
		"prunedReferences": pruned,
	})
}
