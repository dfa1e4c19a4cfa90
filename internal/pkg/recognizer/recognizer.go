package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/logger"
)

// Identification is a successful recognition result
type Identification struct {
	StudentCode string  `json:"studentCode"`
	Confidence  float64 `json:"confidence"`
}

// Recognizer identifies the student pictured in an image
type Recognizer interface {
	// Recognize returns the identified student, apperrors.ErrNoMatch when
	// no known face is found, or apperrors.ErrRecognizerTimeout when the
	// deadline expires
	Recognize(ctx context.Context, image []byte) (*Identification, error)
	// Ready reports whether the recognizer can currently serve requests
	Ready() bool
}

// CommandRecognizer shells out to an external recognition process. The
// image is written to stdin and a single JSON object is read back from
// stdout.
type CommandRecognizer struct {
	command string
	args    []string
	timeout time.Duration
	ready   atomic.Bool
}

// NewCommandRecognizer creates a recognizer backed by the given command.
// It starts not ready; call SetReady once the backing model is loaded.
func NewCommandRecognizer(command string, args []string, timeout time.Duration) *CommandRecognizer {
	return &CommandRecognizer{
		command: command,
		args:    args,
		timeout: timeout,
	}
}

// SetReady flips the readiness flag
func (r *CommandRecognizer) SetReady(ready bool) {
	r.ready.Store(ready)
}

// Ready reports whether the recognizer can currently serve requests
func (r *CommandRecognizer) Ready() bool {
	return r.ready.Load()
}

// Recognize runs the external command against the image
func (r *CommandRecognizer) Recognize(ctx context.Context, image []byte) (*Identification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, apperrors.NewCustomError(apperrors.ErrRecognizerTimeout, "recognition timed out")
	}
	if err != nil {
		logger.Error().Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("Recognizer command failed")
		return nil, apperrors.NewCustomError(apperrors.ErrRecognizerFailed, "recognition process failed")
	}

	return parseOutput(stdout.Bytes())
}

type commandResult struct {
	StudentCode string  `json:"studentCode"`
	Confidence  float64 `json:"confidence"`
	Error       string  `json:"error"`
}

// parseOutput decodes the command's stdout. A missing or "unknown"
// student code means no known face was found.
func parseOutput(out []byte) (*Identification, error) {
	var result commandResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &result); err != nil {
		return nil, apperrors.NewCustomError(apperrors.ErrRecognizerFailed, "malformed recognizer output")
	}
	if result.Error != "" {
		return nil, apperrors.NewCustomError(apperrors.ErrRecognizerFailed, result.Error)
	}

	code := strings.TrimSpace(result.StudentCode)
	if code == "" || strings.EqualFold(code, "unknown") {
		return nil, apperrors.NewCustomError(apperrors.ErrNoMatch, "no known face found")
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, apperrors.NewCustomError(apperrors.ErrRecognizerFailed, "confidence out of range")
	}

	return &Identification{
		StudentCode: code,
		Confidence:  result.Confidence,
	}, nil
}
