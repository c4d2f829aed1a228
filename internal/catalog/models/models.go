// Package models defines the read-only reference data cases point at.
package models

import (
	"strings"

	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

// Group partitions categories by who the case concerns.
type Group string

const (
	GroupPerempuan Group = "Perempuan"
	GroupAnak      Group = "Anak"
)

func (g Group) IsValid() bool {
	return g == GroupPerempuan || g == GroupAnak
}

func (g Group) String() string { return string(g) }

// ParseGroup accepts a group name case-insensitively.
func ParseGroup(s string) (Group, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perempuan":
		return GroupPerempuan, nil
	case "anak":
		return GroupAnak, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "kelompok must be 'Perempuan' or 'Anak'")
	}
}

// Category is a case classification.
type Category struct {
	ID    id.CategoryID `json:"id"`
	Group Group         `json:"kelompok"`
	Name  string        `json:"nama_kategori"`
}

// Village is an entry of the fixed village list. Cases and satgas officers
// reference villages by ID; Name is the canonical display form.
type Village struct {
	ID   id.VillageID `json:"id"`
	Name string       `json:"nama_desa"`
}

// DefaultVillages mirrors the seed rows of the villages table.
func DefaultVillages() []Village {
	return []Village{
		{ID: 1, Name: "Desa A"},
		{ID: 2, Name: "Desa B"},
		{ID: 3, Name: "Desa Sukamaju"},
		{ID: 4, Name: "Desa Mekarsari"},
	}
}

// DefaultCategories mirrors the seed rows of the case_categories table.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Group: GroupPerempuan, Name: "Kekerasan Fisik"},
		{ID: 2, Group: GroupPerempuan, Name: "Kekerasan Seksual"},
		{ID: 3, Group: GroupAnak, Name: "Kekerasan Fisik"},
		{ID: 4, Group: GroupAnak, Name: "Kekerasan Seksual"},
		{ID: 5, Group: GroupAnak, Name: "Penelantaran"},
		{ID: 6, Group: GroupPerempuan, Name: "Kekerasan Psikis"},
	}
}
