package domain

import "time"

// CustomRole is an administrator-defined role. Its permissions live in
// separate rows so single grants can be toggled.
type CustomRole struct {
	Key       string
	NameAr    string
	NameEn    string
	Level     int
	IsActive  bool
	CreatedAt time.Time
}

// RolePermission is one grant row of a custom role.
type RolePermission struct {
	RoleKey       string
	PermissionKey string
	IsGranted     bool
}
