package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"trims edges", "  Desa A ", "Desa A"},
		{"collapses runs", "Desa \t  Sukamaju", "Desa Sukamaju"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollapseSpace(tt.input))
		})
	}
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, FoldKey("desa  sukamaju"), FoldKey(" DESA Sukamaju"))
	assert.NotEqual(t, FoldKey("Desa A"), FoldKey("Desa B"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("TIKET-2025-7K2M9QXAB", "7k2m"))
	assert.True(t, ContainsFold("Desa Sukamaju", "  sukamaju"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("Hamba Allah", "siti"))
}
