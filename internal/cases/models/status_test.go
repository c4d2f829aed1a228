package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "siappa/pkg/domain-errors"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"Pending":             StatusPending,
		"Menunggu Verifikasi": StatusPending,
		"proses":              StatusProses,
		"Sedang Ditangani":    StatusProses,
		"InProgress":          StatusProses,
		"Sedang Dirujuk":      StatusReferred,
		"Referred":            StatusReferred,
		"Dirujuk":             StatusReferred,
		"Selesai":             StatusSelesai,
		"Resolved":            StatusSelesai,
		" rejected ":          StatusDitolak,
		"Ditolak":             StatusDitolak,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.IsValid())
	}

	_, err := ParseStatus("Dibuka Kembali")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusSelesai.IsTerminal())
	assert.True(t, StatusDitolak.IsTerminal())
	for _, s := range []Status{StatusPending, StatusProses, StatusReferred} {
		assert.False(t, s.IsTerminal(), s)
	}
}
