package aqarsdk

import "time"

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginResponse carries the issued token. The same token is also set as the
// token cookie.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// User is an account as exposed by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	RoleLevel int       `json:"roleLevel"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the authenticated principal of a request.
type Identity struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	RoleLevel int    `json:"roleLevel"`
}

// MeResponse is returned by GET /v1/auth/me, which never rejects.
type MeResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *Identity `json:"user,omitempty"`
}

// SessionResponse is returned by GET /v1/auth/session.
type SessionResponse struct {
	User Identity `json:"user"`
}

type CSRFResponse struct {
	Token string `json:"csrfToken"`
}

// RoleLabel is a bilingual display name.
type RoleLabel struct {
	Ar string `json:"ar"`
	En string `json:"en"`
}

type Role struct {
	Key         string    `json:"key"`
	Level       int       `json:"level"`
	Label       RoleLabel `json:"label"`
	Permissions []string  `json:"permissions,omitempty"`
	Custom      bool      `json:"custom"`
}

type ListRolesResponse struct {
	Roles []Role `json:"roles"`
}

type ListUsersResponse struct {
	Users  []User `json:"users"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// AssignRoleRequest is the body of PUT /v1/admin/users/{id}/role.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,max=64"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions,omitempty"`
}
