package models

import (
	"strings"
	"time"

	dErrors "siappa/pkg/domain-errors"
)

// transitions holds the legal moves between distinct statuses.
var transitions = map[Status][]Status{
	StatusPending:  {StatusProses},
	StatusProses:   {StatusReferred, StatusSelesai, StatusDitolak},
	StatusReferred: {StatusProses, StatusSelesai},
}

// CanTransition reports whether from may move to to. Staying in the same
// status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s, excluding s itself.
func NextStatuses(s Status) []Status {
	return append([]Status(nil), transitions[s]...)
}

// StatusUpdate is an admin's request to move a case and annotate it.
// A nil AdminNotes leaves the stored notes untouched.
type StatusUpdate struct {
	Status         Status
	ReferralAgency string
	AdminNotes     *string
}

// CheckStatusUpdate validates u against the case's current persisted state.
func (c *Case) CheckStatusUpdate(u StatusUpdate) error {
	if !u.Status.IsValid() {
		return dErrors.NewValidation("status")
	}
	if !CanTransition(c.Status, u.Status) {
		return dErrors.New(dErrors.CodeIllegalTransition,
			"cannot move case from "+string(c.Status)+" to "+string(u.Status))
	}
	if u.Status == StatusReferred && c.Status != StatusReferred &&
		strings.TrimSpace(u.ReferralAgency) == "" {
		return dErrors.NewValidation("referral_agency")
	}
	return nil
}

// ApplyStatusUpdate mutates c. It assumes CheckStatusUpdate passed.
func (c *Case) ApplyStatusUpdate(u StatusUpdate, now time.Time) {
	agency := strings.TrimSpace(u.ReferralAgency)
	switch {
	case u.Status != StatusReferred:
		c.ReferralAgency = ""
	case agency != "":
		c.ReferralAgency = agency
	}
	c.Status = u.Status
	if u.AdminNotes != nil {
		c.AdminNotes = strings.TrimSpace(*u.AdminNotes)
	}
	if c.Status == StatusSelesai && c.ResolvedAt == nil {
		resolved := now
		c.ResolvedAt = &resolved
	}
	c.UpdatedAt = now
}
