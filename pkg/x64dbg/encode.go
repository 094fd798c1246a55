package x64dbg

import (
	"bytes"
	stdjson "encoding/json"
	"sort"

	"github.com/utkonos/lst2x64dbg/pkg/label"
)

const prettyIndent = "    "

// Sorted returns a copy of records ordered by address. Records sharing an
// address keep their relative order.
func Sorted(records []label.Record) []label.Record {
	sorted := make([]label.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Address.Less(sorted[j].Address)
	})
	return sorted
}

// Encode serializes db with its labels sorted by address. The compact form
// keeps the module, address, manual, text key order of x64dbg and separates
// items with ", " and keys with ": " on a single line; the pretty form is
// indented with every object's keys sorted.
func Encode(db *Database, pretty bool) ([]byte, error) {
	sorted := Sorted(db.Labels)
	labels := make([]interface{}, 0, len(sorted))
	for _, r := range sorted {
		e := newEntry(r)
		if pretty {
			labels = append(labels, map[string]interface{}{
				"module":  e.Module,
				"address": e.Address,
				"manual":  e.Manual,
				"text":    e.Text,
			})
			continue
		}
		labels = append(labels, e)
	}

	doc := make(map[string]interface{}, len(db.Extra)+1)
	for k, v := range db.Extra {
		doc[k] = v
	}
	doc[labelsKey] = labels

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	// Extra sections are copied verbatim and may carry their own whitespace.
	var buf bytes.Buffer
	if pretty {
		err = stdjson.Indent(&buf, out, "", prettyIndent)
	} else {
		err = stdjson.Compact(&buf, out)
	}
	if err != nil {
		return nil, err
	}
	if pretty {
		return buf.Bytes(), nil
	}
	return spaceSeparators(buf.Bytes()), nil
}

// spaceSeparators puts a space after every ',' and ':' of compact JSON that
// is not inside a string.
func spaceSeparators(compact []byte) []byte {
	out := make([]byte, 0, len(compact)+len(compact)/8)
	var inString, escaped bool
	for _, c := range compact {
		out = append(out, c)
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && (c == ',' || c == ':'):
			out = append(out, ' ')
		}
	}
	return out
}
