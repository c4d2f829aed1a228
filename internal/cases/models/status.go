package models

import (
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/strings"
)

// Status is the canonical case status. The values are persisted verbatim.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusProses   Status = "Proses"
	StatusReferred Status = "Sedang Dirujuk"
	StatusSelesai  Status = "Selesai"
	StatusDitolak  Status = "Ditolak"
)

// AllStatuses lists the canonical statuses in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusProses, StatusReferred, StatusSelesai, StatusDitolak}

// statusAliases maps legacy and English labels onto the canonical vocabulary.
// Keys are lower case.
var statusAliases = map[string]Status{
	"pending":             StatusPending,
	"menunggu verifikasi": StatusPending,
	"proses":              StatusProses,
	"sedang ditangani":    StatusProses,
	"inprogress":          StatusProses,
	"in progress":         StatusProses,
	"sedang dirujuk":      StatusReferred,
	"dirujuk":             StatusReferred,
	"referred":            StatusReferred,
	"selesai":             StatusSelesai,
	"resolved":            StatusSelesai,
	"ditolak":             StatusDitolak,
	"rejected":            StatusDitolak,
}

// ParseStatus accepts canonical values and known aliases, ignoring case.
func ParseStatus(s string) (Status, error) {
	key := strings.FoldKey(s)
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown status "+s)
}

func (s Status) String() string { return string(s) }

// IsValid reports whether s is one of the canonical values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProses, StatusReferred, StatusSelesai, StatusDitolak:
		return true
	}
	return false
}

// IsTerminal is true for Selesai and Ditolak.
func (s Status) IsTerminal() bool {
	return s == StatusSelesai || s == StatusDitolak
}
