package models

import id "siappa/pkg/domain"

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeAll
	scopeVillage
)

// Scope is a village visibility predicate. The zero value denies everything.
type Scope struct {
	kind    scopeKind
	village id.VillageID
}

func ScopeAll() Scope                   { return Scope{kind: scopeAll} }
func ScopeNone() Scope                  { return Scope{kind: scopeNone} }
func ScopeVillage(v id.VillageID) Scope { return Scope{kind: scopeVillage, village: v} }
func (s Scope) IsAll() bool             { return s.kind == scopeAll }
func (s Scope) IsNone() bool            { return s.kind == scopeNone }

// Village returns the single permitted village for a village scope.
func (s Scope) Village() (id.VillageID, bool) {
	if s.kind != scopeVillage {
		return 0, false
	}
	return s.village, true
}

// Permits reports whether records belonging to villageID are visible.
func (s Scope) Permits(villageID id.VillageID) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeVillage:
		return villageID == s.village
	default:
		return false
	}
}

func (s Scope) String() string {
	switch s.kind {
	case scopeAll:
		return "all"
	case scopeVillage:
		return "village:" + s.village.String()
	default:
		return "none"
	}
}
