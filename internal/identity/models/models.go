// Package models defines who is calling the admin surface and what they may see.
package models

import (
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

// Role is the principal's authority level.
type Role string

const (
	// RoleKecamatan is the sub-district super-admin; unrestricted visibility.
	RoleKecamatan Role = "kecamatan"
	// RoleSatgas is a village officer; sees only their home village.
	RoleSatgas Role = "satgas"
	// RoleUnresolved is assigned when the profile could not be confirmed.
	// It grants nothing.
	RoleUnresolved Role = "unresolved"
)

func (r Role) String() string { return string(r) }

// ParseRole accepts only the two grantable roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleKecamatan, RoleSatgas:
		return Role(s), nil
	default:
		return RoleUnresolved, dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
}

// Profile is the stored account record maintained by the authentication service.
type Profile struct {
	ID          id.PrincipalID
	FullName    string
	Email       string
	Role        string
	VillageID   id.VillageID
	VillageName string
}

// Principal is a resolved caller.
type Principal struct {
	ID            id.PrincipalID `json:"id"`
	Role          Role           `json:"role"`
	HomeVillageID id.VillageID   `json:"home_village_id,omitempty"`
	HomeVillage   string         `json:"home_village,omitempty"`
	FullName      string         `json:"full_name"`
	Email         string         `json:"email"`
}

// Unresolved returns the deny-all principal.
func Unresolved(principalID id.PrincipalID) Principal {
	return Principal{ID: principalID, Role: RoleUnresolved}
}

// NewPrincipal validates a profile into a principal. A satgas profile must
// name a village and a kecamatan profile must not.
func NewPrincipal(p Profile) (Principal, error) {
	role, err := ParseRole(p.Role)
	if err != nil {
		return Unresolved(p.ID), err
	}
	switch role {
	case RoleSatgas:
		if p.VillageID.IsZero() || p.VillageName == "" {
			return Unresolved(p.ID), dErrors.New(dErrors.CodeForbidden, "satgas profile has no home village")
		}
	case RoleKecamatan:
		if !p.VillageID.IsZero() {
			return Unresolved(p.ID), dErrors.New(dErrors.CodeForbidden, "kecamatan profile must not be bound to a village")
		}
	}
	return Principal{
		ID:            p.ID,
		Role:          role,
		HomeVillageID: p.VillageID,
		HomeVillage:   p.VillageName,
		FullName:      p.FullName,
		Email:         p.Email,
	}, nil
}

func (p Principal) IsResolved() bool {
	return p.Role == RoleKecamatan || p.Role == RoleSatgas
}

// IsSuperAdmin is true only for kecamatan.
func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleKecamatan
}

// Scope is the visibility set derived from the role.
func (p Principal) Scope() Scope {
	switch p.Role {
	case RoleKecamatan:
		return ScopeAll()
	case RoleSatgas:
		if p.HomeVillageID.IsZero() {
			return ScopeNone()
		}
		return ScopeVillage(p.HomeVillageID)
	default:
		return ScopeNone()
	}
}

// RequireResolved fails closed for anything but a confirmed role.
func (p Principal) RequireResolved() error {
	if !p.IsResolved() {
		return dErrors.New(dErrors.CodeForbidden, "principal could not be resolved")
	}
	return nil
}
