package aqarsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListRoles returns built-in and active custom roles. Admin only.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out ListRolesResponse
	if err := c.call(ctx, http.MethodGet, "/v1/admin/roles", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Roles, nil
}

// ListUsers pages through accounts. Requires users:view.
func (c *Client) ListUsers(ctx context.Context, limit, offset int) (*ListUsersResponse, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))

	var out ListUsersResponse
	if err := c.call(ctx, http.MethodGet, "/v1/admin/users?"+q.Encode(), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignRole changes a user's role. Requires users:edit.
func (c *Client) AssignRole(ctx context.Context, userID, role string) (*User, error) {
	var out User
	path := "/v1/admin/users/" + url.PathEscape(userID) + "/role"
	if err := c.call(ctx, http.MethodPut, path, AssignRoleRequest{Role: role}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
