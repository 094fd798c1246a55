// Package label defines the canonical label record and the per-format
// policies deciding which tool-generated symbols are noise.
package label

import (
	"fmt"

	"github.com/grafana/regexp"

	"github.com/utkonos/lst2x64dbg/pkg/address"
)

// Record is a single x64dbg label. Address is relative to the imagebase of
// Module.
type Record struct {
	Module  string
	Address address.Offset
	Manual  bool
	Text    string
}

func (r Record) String() string {
	return fmt.Sprintf("%s!%s %s", r.Module, address.Format(r.Address), r.Text)
}

var nonWord = regexp.MustCompile(`\W`)

// Sanitize replaces every character outside [0-9A-Za-z_] with an underscore.
func Sanitize(name string) string {
	return nonWord.ReplaceAllLiteralString(name, "_")
}

// New creates a machine-derived record with a sanitized text.
func New(module string, offset address.Offset, name string) Record {
	return Record{
		Module:  module,
		Address: offset,
		Manual:  false,
		Text:    Sanitize(name),
	}
}
