package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/submission-intake/internal/common"
)

// FSLoader reads sources from the local filesystem.
type FSLoader struct {
	log *slog.Logger
}

func NewFSLoader(logger *slog.Logger) *FSLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSLoader{log: logger}
}

func (l *FSLoader) Load(ctx context.Context, path string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("abs path: %w", err)
	}
	if !AllowedExt(filepath.Ext(abs)) {
		return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: unsupported or missing extension", path), common.ErrInvalidInput)
	}

	f, err := os.Open(abs)
	if err != nil {
		l.log.Error("ingest.fs.open_failed", "path", abs, "error", err)
		return Source{}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			l.log.Warn("ingest.fs.close_failed", "path", abs, "error", err)
		}
	}(f)

	data, err := io.ReadAll(io.LimitReader(f, MaxSourceBytes+1))
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", abs, err)
	}
	if len(data) > MaxSourceBytes {
		return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: file exceeds %d bytes", path, MaxSourceBytes), common.ErrInvalidInput)
	}

	src, err := newSource(abs, filepath.Base(abs), data)
	if err != nil {
		return Source{}, err
	}
	l.log.Debug("ingest.fs.loaded", "path", abs, "bytes", len(data), "sha256", src.HashHex)
	return src, nil
}
