package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	r := NewPDF("")

	out, err := r.Render("Business plan", "# First steps\nStudy the market\n\n## Launch\nFind clients")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	assert.Greater(t, len(out), 500)
}

func TestRenderEmptyBody(t *testing.T) {
	r := NewPDF("")

	out, err := r.Render("Title", "")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestNewPDFMissingFontDegrades(t *testing.T) {
	r := NewPDF("/nonexistent/font.ttf")

	assert.Nil(t, r.fontData)

	out, err := r.Render("Title", "body")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCleanupMarkup(t *testing.T) {
	assert.Equal(t, "bold and underline", cleanupMarkup("**bold** and __underline__"))
	assert.Equal(t, "plain", cleanupMarkup("plain"))
}
