package parser

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
)

const (
	FormatTabular = "ghidra"

	columnLocation = "Location"
	columnName     = "Name"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Tabular reads the CSV symbol table exported by Ghidra. The export does not
// carry the imagebase, callers must supply it.
type Tabular struct{}

func (Tabular) Name() string { return FormatTabular }

func (Tabular) Filter() label.Filter { return label.TabularFilter }

func (Tabular) Parse(a Artifact) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(a.Data, utf8BOM)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrMalformedExport, "csv export is empty")
	}
	if err != nil {
		return nil, errors.Wrap(ErrMalformedExport, err.Error())
	}
	loc, name := -1, -1
	for i, col := range header {
		switch col {
		case columnLocation:
			loc = i
		case columnName:
			name = i
		}
	}
	if loc < 0 || name < 0 {
		return nil, errors.Wrapf(ErrMalformedExport, "csv header %q lacks %s and %s columns", header, columnLocation, columnName)
	}

	res := &Result{Radix: address.Hex}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(ErrMalformedExport, err.Error())
		}
		if loc >= len(row) || name >= len(row) {
			line, _ := r.FieldPos(0)
			return nil, errors.Wrapf(ErrMalformedExport, "line %d has %d fields", line, len(row))
		}
		res.Candidates = append(res.Candidates, Candidate{
			Location: row[loc],
			Name:     row[name],
		})
	}
	return res, nil
}
