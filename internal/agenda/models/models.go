// Package models defines village agenda items: outreach, training and
// coordination events published on the public site.
package models

import (
	"strings"
	"time"

	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

// Kind classifies an agenda item.
type Kind string

const (
	KindSosialisasi Kind = "Sosialisasi"
	KindPelatihan   Kind = "Pelatihan/Workshop"
	KindRapat       Kind = "Rapat Koordinasi"
	KindPosyandu    Kind = "Posyandu"
	KindKampanye    Kind = "Kampanye"
	KindLainnya     Kind = "Lainnya"
)

var kinds = []Kind{KindSosialisasi, KindPelatihan, KindRapat, KindPosyandu, KindKampanye, KindLainnya}

// ParseKind accepts a kind name ignoring case.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", dErrors.NewValidation("kind")
}

// Item is one scheduled event owned by a village.
type Item struct {
	ID          id.AgendaID    `json:"id"`
	Title       string         `json:"title"`
	Kind        Kind           `json:"kind"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	PosterURL   *string        `json:"poster_url,omitempty"`
	VillageID   id.VillageID   `json:"village_id"`
	CreatedBy   id.PrincipalID `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	out := *i
	if i.PosterURL != nil {
		u := *i.PosterURL
		out.PosterURL = &u
	}
	return &out
}

// Input carries the editable fields of an item. A zero VillageID means the
// caller's home village.
type Input struct {
	Title       string
	Kind        Kind
	ScheduledAt time.Time
	Location    string
	Description string
	PosterURL   string
	VillageID   id.VillageID
}

// Apply copies the editable fields onto item.
func (in Input) Apply(item *Item, now time.Time) {
	item.Title = in.Title
	item.Kind = in.Kind
	item.ScheduledAt = in.ScheduledAt.UTC()
	item.Location = in.Location
	item.Description = in.Description
	item.PosterURL = nil
	if in.PosterURL != "" {
		u := in.PosterURL
		item.PosterURL = &u
	}
	item.VillageID = in.VillageID
	item.UpdatedAt = now
}
