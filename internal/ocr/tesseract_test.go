package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	stdout []byte
	err    error

	gotName string
	gotArgs []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.gotName = name
	s.gotArgs = args
	return s.stdout, nil, s.err
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticket.png")
	require.NoError(t, os.WriteFile(path, []byte("not-really-a-png"), 0o644))
	return path
}

func TestExtract_InvokesTesseract(t *testing.T) {
	stub := &stubRunner{stdout: []byte("MERCADONA S.A.\n3 LECHE ENTERA 1,05\n")}
	e := NewExtractor(Config{}, nil).WithRunner(stub)

	path := writeTempImage(t)
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "tesseract", stub.gotName)
	assert.Equal(t, []string{path, "stdout", "-l", "spa", "--psm", "6"}, stub.gotArgs)
	assert.Contains(t, res.Text, "LECHE ENTERA")
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "spa", res.Language)
}

func TestExtract_RunnerFailureIsFatal(t *testing.T) {
	stub := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor(Config{}, nil).WithRunner(stub)

	_, err := e.Extract(context.Background(), writeTempImage(t))
	assert.ErrorContains(t, err, "tesseract")
}

func TestExecRunnerLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := execRunner{logger: logger}
	_, _, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "no-such-binary"))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "ocr exec failed")
}

func TestExtract_RejectsUnsupportedExtension(t *testing.T) {
	e := NewExtractor(Config{}, nil).WithRunner(&stubRunner{})
	_, err := e.Extract(context.Background(), "ticket.heic")
	assert.ErrorContains(t, err, "unsupported extension")
}
