package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "siappa/pkg/domain-errors"
)

func TestNewIPKey(t *testing.T) {
	assert.Equal(t, "rl:ip:track:10.0.0.1", NewIPKey(ClassTrack, "10.0.0.1"))
	assert.Equal(t, "rl:ip:report:2001_db8__1", NewIPKey(ClassReport, "2001:db8::1"))
	assert.Equal(t, "rl:ip:track:unknown", NewIPKey(ClassTrack, ""))
}

func TestNewLimit(t *testing.T) {
	l, err := NewLimit(5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Limit{RequestsPerWindow: 5, Window: time.Minute}, l)

	_, err = NewLimit(0, time.Minute)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewLimit(5, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestEndpointClassIsValid(t *testing.T) {
	assert.True(t, ClassReport.IsValid())
	assert.True(t, ClassTrack.IsValid())
	assert.False(t, EndpointClass("auth").IsValid())
}
