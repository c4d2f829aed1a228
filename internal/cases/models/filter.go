package models

import (
	identity "siappa/internal/identity/models"
	"siappa/pkg/platform/strings"
)

// ListFilter narrows an admin case list. Zero values match everything.
type ListFilter struct {
	Status Status
	Query  string
}

// Matches applies the status and free-text parts of the filter.
func (f ListFilter) Matches(c *Case) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	q := strings.CollapseSpace(f.Query)
	if q == "" {
		return true
	}
	return strings.ContainsFold(c.TicketCode, q) ||
		strings.ContainsFold(c.ReporterName, q) ||
		strings.ContainsFold(c.IncidentLocation, q)
}

// ScopeFilter is the predicate form of a visibility scope.
func ScopeFilter(scope identity.Scope) func(*Case) bool {
	return func(c *Case) bool {
		return c != nil && scope.Permits(c.VillageID)
	}
}

// Stats counts cases per status.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}

// NewStats fills every canonical status so absent ones read as zero.
func NewStats(counts map[Status]int) Stats {
	s := Stats{ByStatus: make(map[Status]int, len(AllStatuses))}
	for _, st := range AllStatuses {
		s.ByStatus[st] = counts[st]
		s.Total += counts[st]
	}
	return s
}

// DashboardRecent is how many recent cases the dashboard shows.
const DashboardRecent = 5

// Dashboard is the admin landing summary for one scope.
type Dashboard struct {
	Stats  Stats   `json:"stats"`
	Recent []*Case `json:"recent"`
}
