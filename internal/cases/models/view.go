package models

import (
	"time"

	id "siappa/pkg/domain"
)

// CategoryRef is the category as shown on the tracking page.
type CategoryRef struct {
	ID    id.CategoryID `json:"id"`
	Group string        `json:"kelompok"`
	Name  string        `json:"nama_kategori"`
}

// PublicCaseView is what a ticket holder may see. Contact details, internal
// identifiers and the evidence reference are never part of it.
type PublicCaseView struct {
	TicketCode       string      `json:"ticket_code"`
	Status           Status      `json:"status"`
	Category         CategoryRef `json:"category"`
	ReporterName     string      `json:"reporter_name,omitempty"`
	IncidentLocation string      `json:"incident_location"`
	Chronology       string      `json:"chronology"`
	AdminNotes       string      `json:"admin_notes"`
	ReferralAgency   string      `json:"referral_agency,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	ResolvedAt       *time.Time  `json:"resolved_at"`
}

// NewPublicView redacts c for anonymous tracking.
func NewPublicView(c *Case, category CategoryRef) *PublicCaseView {
	v := &PublicCaseView{
		TicketCode:       c.TicketCode,
		Status:           c.Status,
		Category:         category,
		IncidentLocation: c.IncidentLocation,
		Chronology:       c.Chronology,
		AdminNotes:       c.AdminNotes,
		ReferralAgency:   c.ReferralAgency,
		CreatedAt:        c.CreatedAt,
	}
	if !c.IsAnonymous {
		v.ReporterName = c.ReporterName
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		v.ResolvedAt = &t
	}
	return v
}
