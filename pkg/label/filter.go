package label

import (
	"github.com/grafana/regexp"
	"github.com/samber/lo"
)

// Filter decides whether a candidate symbol carries no information and
// should be left out of the database. location is the raw address token as
// it appeared in the artifact.
type Filter interface {
	IsNoise(name, location string) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(name, location string) bool

func (f FilterFunc) IsNoise(name, location string) bool { return f(name, location) }

// NopFilter keeps everything. Existing databases are trusted as curated.
var NopFilter Filter = FilterFunc(func(string, string) bool { return false })

var (
	idaPlaceholder = regexp.MustCompile(`^sub_[0-9A-F]{6,9}`)

	// x64dbg adds its own labels for these.
	idaEntryPoints = []string{"DllEntryPoint", "EntryPoint", "start", "WinMain", "StartAddress"}
)

// ListingFilter drops IDA placeholder subroutines and well-known entry points.
var ListingFilter Filter = FilterFunc(func(name, _ string) bool {
	return idaPlaceholder.MatchString(name) || lo.Contains(idaEntryPoints, name)
})

var (
	ghidraExternal    = regexp.MustCompile(`^External\[(?:[0-9a-f]{8}|[0-9a-f]{16})\]`)
	ghidraPlaceholder = regexp.MustCompile(`^(?:thunk_)?FUN_[0-9a-f]{8}`)
	ghidraOrdinal     = regexp.MustCompile(`^Ordinal_\d+`)
)

// TabularFilter drops Ghidra external references, unnamed functions and
// unresolved ordinal imports.
var TabularFilter Filter = FilterFunc(func(name, location string) bool {
	switch {
	case ghidraExternal.MatchString(location):
		return true
	case name == "entry":
		return true
	case ghidraPlaceholder.MatchString(name), ghidraOrdinal.MatchString(name):
		return true
	}
	return false
})

var (
	peHeaderSymbols = lo.SliceToMap([]string{
		"__dos_header",
		"__dos_stub",
		"__rich_header",
		"__coff_header",
		"__pe32_optional_header",
		"__pe64_optional_header",
		"__section_headers",
		"__entry_stub",
	}, func(s string) (string, struct{}) { return s, struct{}{} })

	peDirectoryPrefix = regexp.MustCompile(`^__(?:import|export)_`)
	iatSuffix         = regexp.MustCompile(`@IAT$`)
)

// StructuredFilter drops the header pseudo-symbols, import/export directory
// entries and IAT slots that JSON exports list alongside real symbols.
var StructuredFilter Filter = FilterFunc(func(name, _ string) bool {
	if _, ok := peHeaderSymbols[name]; ok {
		return true
	}
	return peDirectoryPrefix.MatchString(name) || iatSuffix.MatchString(name)
})
