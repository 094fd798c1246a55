// Package x64dbg reads, merges and writes x64dbg label databases.
//
// A database is a JSON document whose "labels" section lists one entry per
// labelled address:
//
//	{"labels": [{"module": "sample.exe", "address": "0x1000", "manual": false, "text": "MyFunc"}]}
//
// Addresses are relative to the module's imagebase. Other top-level sections
// (comments, bookmarks, ...) are kept opaque and written back untouched.
package x64dbg

import (
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
)

const (
	Extension32 = ".dd32"
	Extension64 = ".dd64"

	labelsKey = "labels"
)

var ErrMalformedDatabase = errors.New("malformed x64dbg database")

// Names are written as found. Unlike encoding/json, <, > and & are not
// escaped.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Database is the in-memory form of a .dd32/.dd64 file.
type Database struct {
	Labels []label.Record
	// Extra holds the top-level sections other than labels.
	Extra map[string]jsoniter.RawMessage
}

type entry struct {
	Module  string `json:"module"`
	Address string `json:"address"`
	Manual  bool   `json:"manual"`
	Text    string `json:"text"`
}

func newEntry(r label.Record) entry {
	return entry{
		Module:  r.Module,
		Address: address.Format(r.Address),
		Manual:  r.Manual,
		Text:    r.Text,
	}
}

// Decode parses a database document. The labels section is mandatory.
func Decode(data []byte) (*Database, error) {
	var sections map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, errors.Wrap(ErrMalformedDatabase, err.Error())
	}
	raw, ok := sections[labelsKey]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedDatabase, "missing %q section", labelsKey)
	}
	delete(sections, labelsKey)

	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrapf(ErrMalformedDatabase, "%s: %v", labelsKey, err)
	}

	db := &Database{
		Labels: make([]label.Record, 0, len(entries)),
	}
	if len(sections) > 0 {
		db.Extra = sections
	}
	for i, e := range entries {
		offset, err := address.ParseOffset(e.Address)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedDatabase, "label %d: %v", i, err)
		}
		db.Labels = append(db.Labels, label.Record{
			Module:  e.Module,
			Address: offset,
			Manual:  e.Manual,
			Text:    e.Text,
		})
	}
	return db, nil
}

// Is64 reports whether path names a 64-bit database.
func Is64(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension64)
}

// Filename returns the database file name for an artifact stem.
func Filename(stem string, is64 bool) string {
	if is64 {
		return stem + Extension64
	}
	return stem + Extension32
}

// TrimExtension strips a .dd32 or .dd64 suffix from name.
func TrimExtension(name string) string {
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, Extension32) || strings.EqualFold(ext, Extension64) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}
