package parser

import (
	"bytes"

	"github.com/grafana/regexp"
	"github.com/samber/lo"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
)

const FormatListing = "lst"

var (
	lstImagebase = regexp.MustCompile(`(?m)Imagebase +: (?P<imagebase>[0-9A-F]+)$`)
	lstAMD64     = regexp.MustCompile(`(?m)Format +: Portable executable for AMD64 \(PE\)`)

	// Each grammar captures the segment offset and the label name.
	lstGrammars = []*regexp.Regexp{
		// .text:00401000                 public MyFunc
		regexp.MustCompile(`(?m)^.+:(?P<offset>[0-9A-F]{8}|[0-9A-F]{16}) +public +(?P<label>\w+)$`),
		// .text:00401000 MyFunc          proc near
		regexp.MustCompile(`(?m)^.+:(?P<offset>[0-9A-F]{8}|[0-9A-F]{16}) +(?P<label>\w+) +proc near.*$`),
		// .text:00401020 ; [00000010 BYTES: COLLAPSED FUNCTION sub_00401020. PRESS CTRL-NUMPAD+ TO EXPAND]
		regexp.MustCompile(`(?m)^.+:(?P<offset>[0-9A-F]{8}|[0-9A-F]{16}) +; +\[\d+ BYTES: COLLAPSED FUNCTION (?P<label>[\w()]+)\. PRESS CTRL-NUMPAD\+ TO EXPAND\].*$`),
	}
)

// Listing reads IDA .lst disassembly listings. The imagebase and bitness
// are taken from the listing header.
type Listing struct{}

func (Listing) Name() string { return FormatListing }

func (Listing) Filter() label.Filter { return label.ListingFilter }

func (Listing) Parse(a Artifact) (*Result, error) {
	data := bytes.ReplaceAll(a.Data, []byte("\r\n"), []byte("\n"))

	m := lstImagebase.FindSubmatch(data)
	if m == nil {
		return nil, ErrImagebaseNotFound
	}
	token := string(m[lstImagebase.SubexpIndex("imagebase")])
	imagebase, err := address.ParseImagebase(token)
	if err != nil {
		return nil, err
	}

	arch := Arch32
	if lstAMD64.Match(data) {
		arch = Arch64
	}

	var candidates []Candidate
	for _, re := range lstGrammars {
		offset, name := re.SubexpIndex("offset"), re.SubexpIndex("label")
		for _, m := range re.FindAllSubmatch(data, -1) {
			candidates = append(candidates, Candidate{
				Location: string(m[offset]),
				Name:     string(m[name]),
			})
		}
	}

	return &Result{
		// a symbol is often matched by more than one grammar
		Candidates:     lo.Uniq(candidates),
		Radix:          address.Hex,
		Imagebase:      &imagebase,
		ImagebaseToken: token,
		Arch:           arch,
	}, nil
}
