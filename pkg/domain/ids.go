package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "siappa/pkg/domain-errors"
)

// Typed identifiers keep case, principal and agenda IDs from being mixed up at
// call sites. Reference data (categories, villages) uses small integer keys.
type (
	CaseID      uuid.UUID
	PrincipalID uuid.UUID
	AgendaID    uuid.UUID
	CategoryID  int
	VillageID   int
)

func (id CaseID) String() string      { return uuid.UUID(id).String() }
func (id CaseID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id PrincipalID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AgendaID) String() string    { return uuid.UUID(id).String() }
func (id AgendaID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func (id CategoryID) String() string { return strconv.Itoa(int(id)) }
func (id CategoryID) IsZero() bool   { return id <= 0 }
func (id VillageID) String() string  { return strconv.Itoa(int(id)) }
func (id VillageID) IsZero() bool    { return id <= 0 }

// Text marshaling keeps IDs as canonical UUID strings in JSON payloads.
func (id CaseID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id PrincipalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AgendaID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *CaseID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PrincipalID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AgendaID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewCaseID returns a fresh random case identifier.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

// NewAgendaID returns a fresh random agenda identifier.
func NewAgendaID() AgendaID { return AgendaID(uuid.New()) }

// maxIDLength bounds input before it reaches uuid.Parse.
const maxIDLength = 64

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" || len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return u, nil
}

// ParseCaseID validates and converts a string to CaseID.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case id")
	return CaseID(u), err
}

// ParsePrincipalID validates and converts a string to PrincipalID.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s, "principal id")
	return PrincipalID(u), err
}

// ParseAgendaID validates and converts a string to AgendaID.
func ParseAgendaID(s string) (AgendaID, error) {
	u, err := parseUUID(s, "agenda id")
	return AgendaID(u), err
}

func parsePositiveInt(s, label string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return n, nil
}

// ParseCategoryID validates and converts a string to CategoryID.
func ParseCategoryID(s string) (CategoryID, error) {
	n, err := parsePositiveInt(s, "category id")
	return CategoryID(n), err
}

// ParseVillageID validates and converts a string to VillageID.
func ParseVillageID(s string) (VillageID, error) {
	n, err := parsePositiveInt(s, "village id")
	return VillageID(n), err
}
