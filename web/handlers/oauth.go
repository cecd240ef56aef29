package handlers

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// OAuthHandler drives the Meta OAuth start/callback pair. The opaque state
// parameter carries the owner id through the provider round trip.
type OAuthHandler struct {
	Deps Dependencies
}

// HandleStart redirects the user to the identity provider's authorization
// URL with state set to the caller-supplied owner id.
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		http.Error(w, "missing uid", http.StatusUnauthorized)

		return
	}

	http.Redirect(w, r, h.Deps.OAuth.AuthCodeURL(uid), http.StatusTemporaryRedirect)
}

// HandleCallback runs the exchange flow. Failures surface as a redirect
// with an error query parameter rather than an HTTP error page, so the
// user always lands back on the application.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	ownerID := r.URL.Query().Get("state")

	if err := h.Deps.Exchange.Exchange(r.Context(), code, ownerID); err != nil {
		h.Deps.Logger.Warn("oauth exchange failed",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)

		http.Redirect(w, r, h.Deps.RedirectURL+"?error="+url.QueryEscape(err.Error()), http.StatusTemporaryRedirect)

		return
	}

	http.Redirect(w, r, h.Deps.RedirectURL+"?connected=true", http.StatusTemporaryRedirect)
}
