// internal/domain/models/role.go
package models

import (
	"errors"
	"strings"
)

// Role is a user's rank in the sales organization. The set is closed;
// ParseRole rejects anything outside it.
type Role string

const (
	RoleCountryManager   Role = "Country Manager"
	RoleSalesSupervisor  Role = "Sales Supervisor"
	RoleMedicalRep       Role = "Medical Rep"
	RoleSeniorMedicalRep Role = "Senior Medical Rep"
	RoleKAM              Role = "KAM"
	RoleAdmin            Role = "Admin"
)

// DefaultRole is assigned when a user is created without a role.
const DefaultRole = RoleMedicalRep

// Roles lists every valid role in display order.
var Roles = []Role{
	RoleCountryManager,
	RoleSalesSupervisor,
	RoleMedicalRep,
	RoleSeniorMedicalRep,
	RoleKAM,
	RoleAdmin,
}

var ErrInvalidRole = errors.New(`role must be one of "Country Manager", "Sales Supervisor", "Medical Rep", "Senior Medical Rep", "KAM", "Admin"`)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRole maps user input onto a Role. Matching ignores case and
// surrounding whitespace; an empty string yields DefaultRole.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRole, nil
	}
	for _, v := range Roles {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", ErrInvalidRole
}
