package parsers

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumns    = errors.New("missing required columns")
)

// FileKind tells the parser which of the two report inputs a file holds.
type FileKind string

const (
	FileKindTransaction FileKind = "transaction"
	FileKindNxnLookup   FileKind = "nxn_lookup"
)

func ParseFileKind(s string) (FileKind, error) {
	switch FileKind(strings.ToLower(strings.TrimSpace(s))) {
	case FileKindTransaction:
		return FileKindTransaction, nil
	case FileKindNxnLookup:
		return FileKindNxnLookup, nil
	default:
		return "", fmt.Errorf("invalid file type %q: must be %q or %q", s, FileKindTransaction, FileKindNxnLookup)
	}
}
