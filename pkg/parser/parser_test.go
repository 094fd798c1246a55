package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
	"github.com/utkonos/lst2x64dbg/pkg/x64dbg"
)

func readArtifact(t *testing.T, name string) Artifact {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return Artifact{Path: path, Data: data}
}

func TestListing(t *testing.T) {
	res, err := Listing{}.Parse(readArtifact(t, "sample.lst"))
	require.NoError(t, err)

	require.NotNil(t, res.Imagebase)
	assert.Equal(t, uint64(0x400000), *res.Imagebase)
	assert.Equal(t, "400000", res.ImagebaseToken)
	assert.Equal(t, Arch32, res.Arch)
	assert.Equal(t, address.Hex, res.Radix)
	assert.Empty(t, res.Module)
	assert.Equal(t, []Candidate{
		{Location: "00401000", Name: "MyFunc"},
		{Location: "00401050", Name: "start"},
		{Location: "00401010", Name: "decrypt_config"},
		{Location: "00401040", Name: "sub_00401040"},
		{Location: "00401020", Name: "sub_401020"},
		{Location: "00401030", Name: "j_free(void)"},
	}, res.Candidates)
}

func TestListing_AMD64(t *testing.T) {
	lst := ".text:0000000140001000 ; Format      : Portable executable for AMD64 (PE)\r\n" +
		".text:0000000140001000 ; Imagebase   : 0000000140000000\r\n" +
		".text:0000000140001000                 public WinMainCRTStartup\r\n" +
		".text:0000000140001000 WinMainCRTStartup proc near\r\n"

	res, err := Listing{}.Parse(Artifact{Path: "sample64.lst", Data: []byte(lst)})
	require.NoError(t, err)
	assert.Equal(t, Arch64, res.Arch)
	assert.Equal(t, uint64(0x140000000), *res.Imagebase)
	assert.Equal(t, "0000000140000000", res.ImagebaseToken)
	assert.Equal(t, []Candidate{{Location: "0000000140001000", Name: "WinMainCRTStartup"}}, res.Candidates)
}

func TestListing_ImagebaseNotFound(t *testing.T) {
	_, err := Listing{}.Parse(Artifact{
		Path: "broken.lst",
		Data: []byte(".text:00401000                 public MyFunc\n"),
	})
	assert.True(t, errors.Is(err, ErrImagebaseNotFound))
}

func TestTabular(t *testing.T) {
	res, err := Tabular{}.Parse(readArtifact(t, "sample.csv"))
	require.NoError(t, err)

	assert.Nil(t, res.Imagebase)
	assert.Equal(t, ArchUnknown, res.Arch)
	assert.Equal(t, address.Hex, res.Radix)
	assert.Equal(t, []Candidate{
		{Location: "00401000", Name: "entry"},
		{Location: "00401500", Name: "FUN_00401500"},
		{Location: "00401600", Name: "thunk_FUN_00401600"},
		{Location: "00401700", Name: "decrypt_config"},
		{Location: "External[00402000]", Name: "CreateFileA"},
		{Location: "00401800", Name: "Ordinal_5"},
		{Location: "00401900", Name: "operator<<"},
	}, res.Candidates)
}

func TestTabular_Malformed(t *testing.T) {
	for name, data := range map[string]string{
		"empty":          "",
		"missing column": "Name,Type\n\"main\",\"Function\"\n",
		"short row":      "Location,Name\n00401000\n",
		"bad quoting":    "Location,Name\n\"00401000,main\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Tabular{}.Parse(Artifact{Path: "x.csv", Data: []byte(data)})
			assert.True(t, errors.Is(err, ErrMalformedExport), "%v", err)
		})
	}
}

func TestTabular_BOM(t *testing.T) {
	data := append([]byte{0xef, 0xbb, 0xbf}, []byte("Location,Name\n00401000,main\n")...)
	res, err := Tabular{}.Parse(Artifact{Path: "x.csv", Data: data})
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{Location: "00401000", Name: "main"}}, res.Candidates)
}

func TestStructured(t *testing.T) {
	res, err := Structured{}.Parse(readArtifact(t, "sample.json"))
	require.NoError(t, err)

	assert.Nil(t, res.Imagebase)
	assert.Equal(t, address.Decimal, res.Radix)
	require.Len(t, res.Candidates, 8)
	assert.Equal(t, Candidate{Location: "4194304", Name: "__dos_header"}, res.Candidates[0])
	assert.Equal(t, Candidate{Location: "4198400", Name: "main"}, res.Candidates[3])
	assert.Equal(t, Candidate{Location: "4202700", Name: "std::string::append"}, res.Candidates[7])
}

func TestStructured_Malformed(t *testing.T) {
	for _, data := range []string{"", "{", `["main"]`, `"main"`} {
		_, err := Structured{}.Parse(Artifact{Path: "x.json", Data: []byte(data)})
		assert.True(t, errors.Is(err, ErrMalformedExport), "%q: %v", data, err)
	}
}

func TestDatabase(t *testing.T) {
	res, err := Database{}.Parse(readArtifact(t, "sample.exe.dd64"))
	require.NoError(t, err)

	require.NotNil(t, res.Imagebase)
	assert.Zero(t, *res.Imagebase)
	assert.Equal(t, Arch64, res.Arch)
	assert.Equal(t, "sample.exe", res.Module)
	assert.Equal(t, []Candidate{
		{Location: "0x2000", Name: "Old"},
		{Location: "0x1000", Name: "MyFunc"},
	}, res.Candidates)
}

func TestDatabase_Malformed(t *testing.T) {
	_, err := Database{}.Parse(Artifact{Path: "x.dd32", Data: []byte(`{"comments": []}`)})
	assert.True(t, errors.Is(err, x64dbg.ErrMalformedDatabase))
}

func TestForFormat(t *testing.T) {
	for _, name := range Formats {
		p, err := ForFormat(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
	_, err := ForFormat("idb")
	assert.Error(t, err)
}

func TestFilterPolicies(t *testing.T) {
	// each format drops its own placeholders only
	assert.True(t, Listing{}.Filter().IsNoise("sub_00401020", "00401020"))
	assert.True(t, Tabular{}.Filter().IsNoise("FUN_00401000", "00401000"))
	assert.True(t, Structured{}.Filter().IsNoise("__dos_header", "4194304"))
	for _, f := range []label.Filter{Listing{}.Filter(), Tabular{}.Filter(), Structured{}.Filter()} {
		assert.False(t, f.IsNoise("decrypt_config", "00401700"))
	}
	assert.False(t, Database{}.Filter().IsNoise("sub_00401020", "0x1020"))
}

func TestArtifactStem(t *testing.T) {
	assert.Equal(t, "sample", Artifact{Path: "/tmp/in/sample.lst"}.Stem())
	assert.Equal(t, "sample.exe", Artifact{Path: "sample.exe.dd32"}.Stem())
	assert.Equal(t, "sample", Artifact{Path: "sample"}.Stem())
}
