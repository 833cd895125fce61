package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSenderHint(t *testing.T) {
	assert.Equal(t, "From IP: 196.201.XXX.XXX", BuildSenderHint("196.201.214.200"))
	assert.Equal(t, "No IP hint available", BuildSenderHint(""))
	assert.Equal(t, "No IP hint available", BuildSenderHint("localhost"))
}

func TestHintsRoundTrip(t *testing.T) {
	h := Hints{"style": "mystery", "level": float64(2)}
	v, err := h.Value()
	require.NoError(t, err)

	var got Hints
	require.NoError(t, got.Scan(v))
	assert.Equal(t, h, got)
}

func TestHintsScanNilAndEmpty(t *testing.T) {
	var h Hints
	require.NoError(t, h.Scan(nil))
	assert.Equal(t, Hints{}, h)

	require.NoError(t, h.Scan([]byte("")))
	assert.Equal(t, Hints{}, h)
}
