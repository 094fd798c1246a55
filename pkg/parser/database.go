package parser

import (
	"path/filepath"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
	"github.com/utkonos/lst2x64dbg/pkg/x64dbg"
)

const FormatDatabase = "x64dbg"

// Database reads another x64dbg database so its labels can be merged into
// the local one. Addresses are already image-relative, and the module name
// and bitness follow from the x64dbg naming convention <module>.dd32|.dd64.
type Database struct{}

func (Database) Name() string { return FormatDatabase }

func (Database) Filter() label.Filter { return label.NopFilter }

func (Database) Parse(a Artifact) (*Result, error) {
	db, err := x64dbg.Decode(a.Data)
	if err != nil {
		return nil, err
	}

	var imagebase uint64
	res := &Result{
		Candidates: make([]Candidate, 0, len(db.Labels)),
		Radix:      address.Hex,
		Imagebase:  &imagebase,
		Arch:       Arch32,
		Module:     x64dbg.TrimExtension(filepath.Base(a.Path)),
	}
	if x64dbg.Is64(a.Path) {
		res.Arch = Arch64
	}
	for _, r := range db.Labels {
		res.Candidates = append(res.Candidates, Candidate{
			Location: address.Format(r.Address),
			Name:     r.Text,
		})
	}
	return res, nil
}
