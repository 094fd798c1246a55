// Package parser extracts raw (address, name) candidates from the artifacts
// produced by reverse-engineering tools.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/utkonos/lst2x64dbg/pkg/label"
)

var (
	ErrImagebaseNotFound = errors.New("imagebase not found")
	ErrMalformedExport   = errors.New("malformed export")
)

// Arch is the bitness of the analysed module. It selects the database
// flavour (.dd32 or .dd64).
type Arch int

const (
	ArchUnknown Arch = iota
	Arch32
	Arch64
)

func (a Arch) String() string {
	switch a {
	case Arch32:
		return "x86"
	case Arch64:
		return "x64"
	default:
		return "unknown"
	}
}

// Candidate is an address token and a symbol name as found in an artifact,
// before any filtering or rebasing.
type Candidate struct {
	Location string
	Name     string
}

// Artifact is an input file read fully into memory.
type Artifact struct {
	Path string
	Data []byte
}

// Stem is the base name of the artifact without its last extension.
func (a Artifact) Stem() string {
	base := filepath.Base(a.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Result is what a Parser discovered in an artifact. Fields other than
// Candidates and Radix are zero when the format does not carry them.
type Result struct {
	Candidates []Candidate
	// Radix of every Candidate.Location.
	Radix int
	// Imagebase is set when the artifact declares it. ImagebaseToken is the
	// declaration as written, leading zeros included.
	Imagebase      *uint64
	ImagebaseToken string
	Arch      Arch
	// Module is set when the artifact name encodes the module name.
	Module string
}

// Parser is implemented once per source format.
type Parser interface {
	// Name identifies the format in logs and metrics.
	Name() string
	Parse(a Artifact) (*Result, error)
	// Filter is the noise policy matching the format.
	Filter() label.Filter
}

// Formats lists the supported source formats by name.
var Formats = []string{FormatListing, FormatTabular, FormatStructured, FormatDatabase}

// ForFormat returns the parser registered under name.
func ForFormat(name string) (Parser, error) {
	switch name {
	case FormatListing:
		return Listing{}, nil
	case FormatTabular:
		return Tabular{}, nil
	case FormatStructured:
		return Structured{}, nil
	case FormatDatabase:
		return Database{}, nil
	default:
		return nil, errors.Errorf("unknown format %q, expected one of %q", name, Formats)
	}
}
