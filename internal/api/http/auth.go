package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/aussiebroadwan/aqar/internal/api/service"
	"github.com/aussiebroadwan/aqar/internal/api/session"
	"github.com/aussiebroadwan/aqar/pkg/aqarsdk"
	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

type AuthHandler struct {
	UserService *service.UserService
	Registry    *rbac.Registry
	Sessions    *session.RedisProvider // optional
	Secure      bool
}

// HandleLogin issues a session token.
//
//	@Summary		Log in with email and password
//	@Description	Verifies the credentials and issues a session token, returned in the body and set as the HttpOnly token cookie.
//	@Description	Unknown email and wrong password produce the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string					true	"Value of the csrf_token cookie"
//	@Param			request			body		aqarsdk.LoginRequest	true	"Credentials"
//	@Success		200				{object}	aqarsdk.LoginResponse
//	@Failure		400				{object}	httpx.ErrorBody	"Invalid input"
//	@Failure		401				{object}	httpx.ErrorBody	"Invalid email or password"
//	@Failure		403				{object}	httpx.ErrorBody	"CSRF token missing or mismatched"
//	@Failure		429				{object}	httpx.ErrorBody	"Too many attempts"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req aqarsdk.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.UserService.Login(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.MsgInvalidCredentials, "")
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, "login failed", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     httpx.TokenCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(time.Until(res.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	httpx.WriteJSON(w, http.StatusOK, aqarsdk.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUser(h.Registry, res.User),
	})
}

// HandleLogout clears the token cookie and any OAuth session.
//
//	@Summary		Log out
//	@Description	Clears the token cookie. Tokens are not revoked server side and stay valid until they expire.
//	@Tags			Auth
//	@Param			X-CSRF-Token	header	string	false	"Value of the csrf_token cookie (cookie sessions only)"
//	@Success		204
//	@Failure		403	{object}	httpx.ErrorBody	"CSRF token missing or mismatched"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	if h.Sessions != nil {
		if err := h.Sessions.Destroy(r.Context(), r); err != nil {
			slogx.FromContext(r.Context()).Warn("oauth session not destroyed", "err", err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     h.Sessions.CookieName(),
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe reports the caller's identity without ever rejecting.
//
//	@Summary		Current identity
//	@Description	Returns the authenticated identity, or authenticated=false for anonymous and invalid tokens.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	aqarsdk.MeResponse
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, aqarsdk.MeResponse{})
		return
	}
	ident := toIdentity(id)
	httpx.WriteJSON(w, http.StatusOK, aqarsdk.MeResponse{Authenticated: true, User: &ident})
}

// HandleSession resolves the caller through the token or the OAuth session.
//
//	@Summary		Resolve session
//	@Description	Accepts either a session token or an OAuth session_id cookie linked to a local account.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	aqarsdk.SessionResponse
//	@Failure		401	{object}	httpx.ErrorBody	"Unauthorized"
//	@Router			/v1/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.MsgUnauthorized, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, aqarsdk.SessionResponse{User: toIdentity(id)})
}

// HandleCSRF returns the caller's CSRF token.
//
//	@Summary		CSRF token
//	@Description	Returns the double-submit token, setting the csrf_token cookie if the caller has none.
//	@Description	Send it back in the X-CSRF-Token header on every POST, PUT, PATCH and DELETE.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	aqarsdk.CSRFResponse
//	@Router			/v1/auth/csrf [get].
func (h *AuthHandler) HandleCSRF(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, aqarsdk.CSRFResponse{Token: httpx.CSRFTokenFrom(r.Context())})
}

func toIdentity(id httpx.Identity) aqarsdk.Identity {
	return aqarsdk.Identity{ID: id.ID, Role: id.Role, RoleLevel: id.RoleLevel}
}

func toUser(reg *rbac.Registry, u domain.User) aqarsdk.User {
	return aqarsdk.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		RoleLevel: reg.LevelOf(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
