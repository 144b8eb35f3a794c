package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/aqar/internal/api/service"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/pkg/aqarsdk"
	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/idx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

type AdminHandler struct {
	UserService  *service.UserService
	RolesService *service.RolesService
	Registry     *rbac.Registry
}

// HandleListRoles lists assignable roles.
//
//	@Summary		List roles
//	@Description	Built-in roles with their level, labels and permission patterns, followed by the active custom roles.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	aqarsdk.ListRolesResponse
//	@Failure		401	{object}	httpx.ErrorBody	"Unauthorized"
//	@Failure		403	{object}	httpx.ErrorBody	"Administrators only"
//	@Router			/v1/admin/roles [get].
func (h *AdminHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.RolesService.ListAll(ctx)
	if err != nil {
		httpx.WriteInternal(w, r, "failed to list roles", err)
		return
	}

	roles := make([]aqarsdk.Role, len(views))
	for i, v := range views {
		roles[i] = aqarsdk.Role{
			Key:         v.Key,
			Level:       v.Level,
			Label:       aqarsdk.RoleLabel{Ar: v.Label.Ar, En: v.Label.En},
			Permissions: v.Permissions,
			Custom:      v.Custom,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, aqarsdk.ListRolesResponse{Roles: roles})
}

// HandleListUsers pages through accounts.
//
//	@Summary		List users
//	@Description	Requires the users:view permission.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (default 50, max 200)"
//	@Param			offset	query		int	false	"Offset"
//	@Success		200		{object}	aqarsdk.ListUsersResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid paging parameters"
//	@Failure		401		{object}	httpx.ErrorBody	"Unauthorized"
//	@Failure		403		{object}	httpx.ErrorBody	"Permission denied"
//	@Router			/v1/admin/users [get].
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok1 := queryInt(r, "limit", service.DefaultPageSize)
	offset, ok2 := queryInt(r, "offset", 0)
	if !ok1 || !ok2 || limit < 1 || offset < 0 {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgValidation, httpx.CodeValidation)
		return
	}
	limit = min(limit, service.MaxPageSize)

	users, err := h.UserService.ListUsers(ctx, limit, offset)
	if err != nil {
		httpx.WriteInternal(w, r, "failed to list users", err)
		return
	}

	out := aqarsdk.ListUsersResponse{Users: make([]aqarsdk.User, len(users)), Limit: limit, Offset: offset}
	for i, u := range users {
		out.Users[i] = toUser(h.Registry, u)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleAssignRole changes a user's role.
//
//	@Summary		Assign role
//	@Description	Requires the users:edit permission. The role must be built-in or an active custom role.
//	@Description	Only a universal role may grant or revoke admin, and only a super admin may grant or revoke super_admin.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string						true	"User ID"
//	@Param			X-CSRF-Token	header		string						false	"Value of the csrf_token cookie (cookie sessions only)"
//	@Param			request			body		aqarsdk.AssignRoleRequest	true	"New role"
//	@Success		200				{object}	aqarsdk.User
//	@Failure		400				{object}	httpx.ErrorBody	"Invalid role"
//	@Failure		401				{object}	httpx.ErrorBody	"Unauthorized"
//	@Failure		403				{object}	httpx.ErrorBody	"Permission denied"
//	@Failure		404				{object}	httpx.ErrorBody	"User not found"
//	@Router			/v1/admin/users/{id}/role [put].
func (h *AdminHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	actor, ok := httpx.IdentityFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.MsgUnauthorized, "")
		return
	}

	var req aqarsdk.AssignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := r.PathValue("id")
	if !idx.Valid(userID) {
		httpx.WriteError(w, http.StatusNotFound, httpx.MsgUserNotFound, "")
		return
	}

	u, err := h.UserService.AssignRole(ctx, actor.Role, userID, req.Role)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, toUser(h.Registry, u))
	case errors.Is(err, service.ErrInvalidRole):
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgInvalidRole, httpx.CodeValidation)
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.MsgUserNotFound, "")
	case errors.Is(err, service.ErrRoleEscalation):
		log.Warn("role escalation refused", "target_user_id", userID, "requested_role", req.Role)
		httpx.WriteError(w, http.StatusForbidden, httpx.MsgRoleEscalation, "")
	default:
		httpx.WriteInternal(w, r, "failed to assign role", err)
	}
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
