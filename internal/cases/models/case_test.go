package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "siappa/internal/identity/models"
	dErrors "siappa/pkg/domain-errors"
)

func TestCreateInputValidate(t *testing.T) {
	t.Run("lists every missing field", func(t *testing.T) {
		in := CreateInput{ReporterName: "Siti"}
		in.Normalize()
		err := in.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.ElementsMatch(t,
			[]string{"reporter_status", "reporter_contact", "category_id", "chronology", "incident_location"},
			dErrors.FieldsOf(err))
	})

	t.Run("rejects unknown reporter status", func(t *testing.T) {
		in := validInput()
		in.ReporterStatus = "Tetangga"
		err := in.Validate()
		assert.Equal(t, []string{"reporter_status"}, dErrors.FieldsOf(err))
	})

	t.Run("accepts a complete form", func(t *testing.T) {
		in := validInput()
		in.Normalize()
		assert.NoError(t, in.Validate())
	})
}

func TestCreateInputNormalizeAnonymous(t *testing.T) {
	in := validInput()
	in.IsAnonymous = true
	in.Normalize()
	assert.Equal(t, AnonymousName, in.ReporterName)

	blank := validInput()
	blank.ReporterName = "   "
	blank.Normalize()
	assert.True(t, blank.IsAnonymous)
	assert.Equal(t, AnonymousName, blank.ReporterName)
}

func TestPublicViewRedacts(t *testing.T) {
	resolved := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	evidence := "https://files.example/bukti.jpg"
	c := &Case{
		TicketCode:       "TIKET-2025-AAAAAAAAA",
		ReporterName:     "Siti",
		ReporterContact:  "081234567890",
		IncidentLocation: "Desa A",
		Chronology:       "kronologi",
		EvidenceRef:      &evidence,
		Status:           StatusSelesai,
		ResolvedAt:       &resolved,
	}

	for _, anonymous := range []bool{false, true} {
		c.IsAnonymous = anonymous
		view := NewPublicView(c, CategoryRef{ID: 3, Group: "Anak", Name: "Kekerasan Fisik"})
		b, err := json.Marshal(view)
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(b, &fields))
		for _, key := range []string{"reporter_contact", "id", "village_id", "evidence_ref"} {
			assert.NotContains(t, fields, key)
		}
		assert.NotContains(t, string(b), "081234567890")
		if anonymous {
			assert.NotContains(t, fields, "reporter_name")
		} else {
			assert.Equal(t, "Siti", fields["reporter_name"])
		}
	}
}

func TestScopeFilter(t *testing.T) {
	inA := &Case{VillageID: 1}
	inB := &Case{VillageID: 2}

	all := ScopeFilter(identity.ScopeAll())
	assert.True(t, all(inA))
	assert.True(t, all(inB))

	village := ScopeFilter(identity.ScopeVillage(1))
	assert.True(t, village(inA))
	assert.False(t, village(inB))

	none := ScopeFilter(identity.ScopeNone())
	assert.False(t, none(inA))
	assert.False(t, ScopeFilter(identity.Scope{})(inA))
}

func TestListFilterMatches(t *testing.T) {
	c := &Case{TicketCode: "TIKET-2025-ABCDEFGHJ", ReporterName: "Hamba Allah", IncidentLocation: "Desa Sukamaju", Status: StatusProses}

	assert.True(t, ListFilter{}.Matches(c))
	assert.True(t, ListFilter{Status: StatusProses, Query: "sukamaju"}.Matches(c))
	assert.True(t, ListFilter{Query: "abcdef"}.Matches(c))
	assert.False(t, ListFilter{Status: StatusPending}.Matches(c))
	assert.False(t, ListFilter{Query: "mekarsari"}.Matches(c))
}

func TestNewStatsFillsZeros(t *testing.T) {
	s := NewStats(map[Status]int{StatusPending: 2, StatusSelesai: 1})
	assert.Equal(t, 3, s.Total)
	assert.Len(t, s.ByStatus, len(AllStatuses))
	assert.Equal(t, 0, s.ByStatus[StatusDitolak])
}

func validInput() CreateInput {
	return CreateInput{
		CategoryID:       3,
		ReporterStatus:   "Korban",
		ReporterName:     "Siti",
		ReporterContact:  "081234567890",
		IncidentLocation: "Desa A",
		Chronology:       "Kejadian di rumah",
	}
}
