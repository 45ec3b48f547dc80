package domain

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// roleAuthorities maps every known role to the authority label that
// downstream authorization checks compare against.
var roleAuthorities = map[Role]string{
	RoleAdmin: "ROLE_ADMIN",
	RoleUser:  "ROLE_USER",
}

var roleDescriptions = map[Role]string{
	RoleAdmin: "administrator with full permissions",
	RoleUser:  "standard user with basic permissions",
}

// ParseRole converts user input into a Role. Matching is case-insensitive;
// anything outside the closed set yields ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleAuthorities[r]; !ok {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := roleAuthorities[r]
	return ok
}

// Authority returns the authority label for r ("ROLE_ADMIN", "ROLE_USER").
// Unknown roles have no authority and return ok=false.
func (r Role) Authority() (string, bool) {
	a, ok := roleAuthorities[r]
	return a, ok
}

func (r Role) Description() string {
	return roleDescriptions[r]
}

// RoleInfo describes one entry of the role catalogue.
type RoleInfo struct {
	Name        Role   `json:"name"`
	Authority   string `json:"authority"`
	Description string `json:"description"`
}

// Roles returns the role catalogue in a stable order.
func Roles() []RoleInfo {
	out := make([]RoleInfo, 0, len(roleAuthorities))
	for _, r := range []Role{RoleAdmin, RoleUser} {
		a, _ := r.Authority()
		out = append(out, RoleInfo{Name: r, Authority: a, Description: r.Description()})
	}
	return out
}

// User models an account in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credentials is the authoritative identity record needed to verify a login
// or re-establish a principal from a token subject.
type Credentials struct {
	Username     string
	PasswordHash string
	Role         Role
}
