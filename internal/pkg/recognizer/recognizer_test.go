package recognizer

import (
	"testing"

	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputMatch(t *testing.T) {
	ident, err := parseOutput([]byte(`{"studentCode":"SV100","confidence":0.93}`))
	require.NoError(t, err)
	assert.Equal(t, "SV100", ident.StudentCode)
	assert.InDelta(t, 0.93, ident.Confidence, 1e-9)
}

func TestParseOutputTrimsWhitespace(t *testing.T) {
	ident, err := parseOutput([]byte("  {\"studentCode\":\" SV100 \",\"confidence\":0.8}\n"))
	require.NoError(t, err)
	assert.Equal(t, "SV100", ident.StudentCode)
}

func TestParseOutputUnknownIsNoMatch(t *testing.T) {
	_, err := parseOutput([]byte(`{"studentCode":"Unknown","confidence":0.1}`))
	assert.ErrorIs(t, err, apperrors.ErrNoMatch)

	_, err = parseOutput([]byte(`{"studentCode":"","confidence":0}`))
	assert.ErrorIs(t, err, apperrors.ErrNoMatch)
}

func TestParseOutputReportedError(t *testing.T) {
	_, err := parseOutput([]byte(`{"error":"model not loaded"}`))
	assert.ErrorIs(t, err, apperrors.ErrRecognizerFailed)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestParseOutputMalformed(t *testing.T) {
	_, err := parseOutput([]byte("not json"))
	assert.ErrorIs(t, err, apperrors.ErrRecognizerFailed)
}

func TestParseOutputConfidenceRange(t *testing.T) {
	_, err := parseOutput([]byte(`{"studentCode":"SV100","confidence":1.7}`))
	assert.ErrorIs(t, err, apperrors.ErrRecognizerFailed)
}
