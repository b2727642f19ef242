package constants

import "strings"

type SourceFormat string

const (
	PDF   SourceFormat = "PDF"
	EMAIL SourceFormat = "EMAIL"
)

// AllowedExtensions holds the file extensions accepted as intake sources.
var AllowedExtensions = map[string]SourceFormat{
	"pdf": PDF,
	"eml": EMAIL,
}

// MaxPDFBytes caps a single PDF handed to the extraction service.
const MaxPDFBytes = 20 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) SourceFormat {
	return AllowedExtensions[NormalizeExt(ext)]
}
