package upi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURI(t *testing.T) {
	g := NewGenerator("sahaya@upi", "Sahaya Foundation")

	uri, err := g.BuildURI("1500", "d-123")
	require.NoError(t, err)

	assert.Contains(t, uri, "upi://pay?")
	assert.Contains(t, uri, "pa=sahaya%40upi")
	assert.Contains(t, uri, "am=1500")
	assert.Contains(t, uri, "cu=INR")
	assert.Contains(t, uri, "tn=Donation+d-123")
}

func TestBuildURIWithoutAmount(t *testing.T) {
	g := NewGenerator("sahaya@upi", "Sahaya Foundation")

	uri, err := g.BuildURI("", "")
	require.NoError(t, err)
	assert.NotContains(t, uri, "am=")
	assert.NotContains(t, uri, "tn=")
}

func TestBuildURIRequiresPayee(t *testing.T) {
	g := NewGenerator("", "Sahaya Foundation")

	_, err := g.BuildURI("1500", "d-123")
	assert.ErrorIs(t, err, ErrMissingPayee)
}

func TestQRPNGProducesPNG(t *testing.T) {
	g := NewGenerator("sahaya@upi", "Sahaya Foundation")

	png, err := g.QRPNG("1500", "d-123")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
