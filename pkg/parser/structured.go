package parser

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
)

const FormatStructured = "json"

// Structured reads a JSON object mapping decimal address keys to symbol
// names, e.g. {"4198400": "main"}. Like the CSV export it does not carry the
// imagebase.
type Structured struct{}

func (Structured) Name() string { return FormatStructured }

func (Structured) Filter() label.Filter { return label.StructuredFilter }

func (Structured) Parse(a Artifact) (*Result, error) {
	if !gjson.ValidBytes(a.Data) {
		return nil, errors.Wrap(ErrMalformedExport, "invalid json")
	}
	doc := gjson.ParseBytes(a.Data)
	if !doc.IsObject() {
		return nil, errors.Wrapf(ErrMalformedExport, "expected an object of address to name, got %s", doc.Type)
	}

	res := &Result{Radix: address.Decimal}
	doc.ForEach(func(key, value gjson.Result) bool {
		res.Candidates = append(res.Candidates, Candidate{
			Location: key.String(),
			Name:     value.String(),
		})
		return true
	})
	return res, nil
}
