package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
)

// MaxSourceBytes caps any single loaded source. PDFs are further capped by constants.MaxPDFBytes
// when encoded for extraction.
const MaxSourceBytes = 64 << 20

// Source is one loaded intake file.
type Source struct {
	URI     string
	Name    string // base name, used as the attachment filename
	Format  constants.SourceFormat
	Data    []byte
	HashHex string
}

// Loader fetches a source by URI.
type Loader interface {
	Load(ctx context.Context, uri string) (Source, error)
}

// Router dispatches s3:// URIs to S3 and everything else to the local filesystem.
// S3 may be nil, in which case s3:// URIs are rejected.
type Router struct {
	FS *FSLoader
	S3 *S3Loader
}

func (r *Router) Load(ctx context.Context, uri string) (Source, error) {
	if strings.HasPrefix(uri, s3Scheme) {
		if r.S3 == nil {
			return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: s3 sources are not configured", uri), common.ErrInvalidInput)
		}
		return r.S3.Load(ctx, uri)
	}
	fs := r.FS
	if fs == nil {
		fs = NewFSLoader(nil)
	}
	return fs.Load(ctx, uri)
}

// LoadAll loads uris in order, failing on the first error.
func LoadAll(ctx context.Context, l Loader, uris []string) ([]Source, error) {
	out := make([]Source, 0, len(uris))
	for _, u := range uris {
		src, err := l.Load(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func newSource(uri, name string, data []byte) (Source, error) {
	format := constants.MapExtToFormat(path.Ext(name))
	if format == "" {
		return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: unsupported or missing extension", uri), common.ErrInvalidInput)
	}
	sum := sha256.Sum256(data)
	return Source{
		URI:     uri,
		Name:    name,
		Format:  format,
		Data:    data,
		HashHex: hex.EncodeToString(sum[:]),
	}, nil
}
