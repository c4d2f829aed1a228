// Package models defines protection cases, their lifecycle and their public projection.
package models

import (
	"strings"
	"time"

	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

// AnonymousName replaces the reporter name of anonymous reports.
const AnonymousName = "Hamba Allah"

// ReporterStatus says whether the reporter is the victim or a witness.
type ReporterStatus string

const (
	ReporterKorban ReporterStatus = "Korban"
	ReporterSaksi  ReporterStatus = "Saksi"
)

// ParseReporterStatus accepts the two values, ignoring case.
func ParseReporterStatus(s string) (ReporterStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "korban":
		return ReporterKorban, nil
	case "saksi":
		return ReporterSaksi, nil
	default:
		return "", dErrors.NewValidation("reporter_status")
	}
}

// Case is a single protection report.
type Case struct {
	ID               id.CaseID      `json:"id"`
	TicketCode       string         `json:"ticket_code"`
	CategoryID       id.CategoryID  `json:"category_id"`
	ReporterStatus   ReporterStatus `json:"reporter_status"`
	ReporterName     string         `json:"reporter_name"`
	IsAnonymous      bool           `json:"is_anonymous"`
	ReporterContact  string         `json:"reporter_contact"`
	VillageID        id.VillageID   `json:"village_id"`
	IncidentLocation string         `json:"incident_location"`
	Chronology       string         `json:"chronology"`
	EvidenceRef      *string        `json:"evidence_ref,omitempty"`
	Status           Status         `json:"status"`
	ReferralAgency   string         `json:"referral_agency,omitempty"`
	AdminNotes       string         `json:"admin_notes"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	ResolvedAt       *time.Time     `json:"resolved_at"`
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.EvidenceRef != nil {
		ref := *c.EvidenceRef
		out.EvidenceRef = &ref
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}

// CreateInput is the intake form after transport decoding.
type CreateInput struct {
	CategoryID       id.CategoryID
	ReporterStatus   string
	ReporterName     string
	IsAnonymous      bool
	ReporterContact  string
	IncidentLocation string
	Chronology       string
	EvidenceRef      string
}

// Normalize trims free-text fields. An anonymous report, or one without a
// name, carries the placeholder name.
func (in *CreateInput) Normalize() {
	in.ReporterStatus = strings.TrimSpace(in.ReporterStatus)
	in.ReporterName = strings.TrimSpace(in.ReporterName)
	in.ReporterContact = strings.TrimSpace(in.ReporterContact)
	in.IncidentLocation = strings.TrimSpace(in.IncidentLocation)
	in.Chronology = strings.TrimSpace(in.Chronology)
	in.EvidenceRef = strings.TrimSpace(in.EvidenceRef)
	if in.ReporterName == "" {
		in.IsAnonymous = true
	}
	if in.IsAnonymous {
		in.ReporterName = AnonymousName
	}
}

// Validate lists every missing required field at once.
func (in *CreateInput) Validate() error {
	var missing []string
	if in.ReporterStatus == "" {
		missing = append(missing, "reporter_status")
	} else if _, err := ParseReporterStatus(in.ReporterStatus); err != nil {
		missing = append(missing, "reporter_status")
	}
	if in.ReporterContact == "" {
		missing = append(missing, "reporter_contact")
	}
	if in.CategoryID.IsZero() {
		missing = append(missing, "category_id")
	}
	if in.Chronology == "" {
		missing = append(missing, "chronology")
	}
	if in.IncidentLocation == "" {
		missing = append(missing, "incident_location")
	}
	if len(missing) > 0 {
		return dErrors.NewValidation(missing...)
	}
	return nil
}
