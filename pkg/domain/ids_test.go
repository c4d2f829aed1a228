package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "siappa/pkg/domain-errors"
)

// TestParseCaseID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseCaseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCaseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCaseID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCaseID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseCaseID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, CaseID(valid), id)
	})
}

func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE cases;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errCase := ParseCaseID(tt.input)
			_, errPrincipal := ParsePrincipalID(tt.input)
			_, errAgenda := ParseAgendaID(tt.input)
			if tt.wantErr {
				require.Error(t, errCase)
				require.Error(t, errPrincipal)
				require.Error(t, errAgenda)
				assert.True(t, dErrors.HasCode(errCase, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, errCase)
				require.NoError(t, errPrincipal)
				require.NoError(t, errAgenda)
			}
		})
	}
}

func TestParseReferenceIDs(t *testing.T) {
	id, err := ParseCategoryID(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, CategoryID(3), id)

	for _, bad := range []string{"", "0", "-1", "abc", "3.5"} {
		_, err := ParseCategoryID(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), bad)
		_, err = ParseVillageID(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), bad)
	}
}

func TestIDsMarshalAsStrings(t *testing.T) {
	caseID := NewCaseID()
	b, err := json.Marshal(struct {
		ID CaseID `json:"id"`
	}{caseID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+caseID.String()+`"}`, string(b))

	var back struct {
		ID CaseID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, caseID, back.ID)
}
