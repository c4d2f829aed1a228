package handler

import (
	"strings"

	"siappa/internal/cases/models"
	id "siappa/pkg/domain"
)

// CreateCaseRequest is the public intake form.
type CreateCaseRequest struct {
	CategoryID       int    `json:"category_id" validate:"required,gt=0"`
	ReporterStatus   string `json:"reporter_status" validate:"required,oneof=Korban Saksi korban saksi"`
	ReporterName     string `json:"reporter_name" validate:"max=200"`
	IsAnonymous      bool   `json:"is_anonymous"`
	ReporterContact  string `json:"reporter_contact" validate:"required,max=100"`
	IncidentLocation string `json:"incident_location" validate:"required,max=200"`
	Chronology       string `json:"chronology" validate:"required,max=10000"`
	EvidenceRef      string `json:"evidence_ref" validate:"omitempty,url,max=2048"`
}

func (r *CreateCaseRequest) Normalize() {
	r.ReporterStatus = strings.TrimSpace(r.ReporterStatus)
	r.ReporterName = strings.TrimSpace(r.ReporterName)
	r.ReporterContact = strings.TrimSpace(r.ReporterContact)
	r.IncidentLocation = strings.TrimSpace(r.IncidentLocation)
	r.Chronology = strings.TrimSpace(r.Chronology)
	r.EvidenceRef = strings.TrimSpace(r.EvidenceRef)
}

func (r *CreateCaseRequest) toInput() models.CreateInput {
	return models.CreateInput{
		CategoryID:       id.CategoryID(r.CategoryID),
		ReporterStatus:   r.ReporterStatus,
		ReporterName:     r.ReporterName,
		IsAnonymous:      r.IsAnonymous,
		ReporterContact:  r.ReporterContact,
		IncidentLocation: r.IncidentLocation,
		Chronology:       r.Chronology,
		EvidenceRef:      r.EvidenceRef,
	}
}

// CreateCaseResponse is all a reporter gets back: the ticket to track with.
type CreateCaseResponse struct {
	ID         id.CaseID     `json:"id"`
	TicketCode string        `json:"ticket_code"`
	Status     models.Status `json:"status"`
}

// UpdateStatusRequest moves a case. Status accepts canonical values and aliases.
type UpdateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	ReferralAgency string  `json:"referral_agency" validate:"max=200"`
	AdminNotes     *string `json:"admin_notes" validate:"omitempty,max=5000"`

	status models.Status
}

func (r *UpdateStatusRequest) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
	r.ReferralAgency = strings.TrimSpace(r.ReferralAgency)
}

func (r *UpdateStatusRequest) Validate() error {
	st, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = st
	return nil
}

func (r *UpdateStatusRequest) toUpdate() models.StatusUpdate {
	return models.StatusUpdate{
		Status:         r.status,
		ReferralAgency: r.ReferralAgency,
		AdminNotes:     r.AdminNotes,
	}
}
