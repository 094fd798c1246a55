// Package pipeline turns one reverse-engineering artifact into an x64dbg
// label database. Every source format goes through the same steps:
//
//	parse -> filter -> rebase -> merge with the existing database -> write
//
// A run either writes the complete database or nothing.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	lblcontext "github.com/utkonos/lst2x64dbg/pkg/context"
	"github.com/utkonos/lst2x64dbg/pkg/label"
	"github.com/utkonos/lst2x64dbg/pkg/parser"
	"github.com/utkonos/lst2x64dbg/pkg/x64dbg"
)

const mainLabel = "main"

var (
	ErrInputNotFound     = errors.New("input not found")
	ErrImagebaseRequired = errors.New("imagebase required")
)

// Config carries the per-invocation options of a conversion.
type Config struct {
	// Input is the path of the artifact to convert.
	Input string
	// OutputDir receives the database. Empty means the working directory.
	OutputDir string
	// Module overrides the module name derived from the input.
	Module string
	// DLL names a derived module <stem>.dll instead of <stem>.exe.
	DLL bool
	// Is64 selects a .dd64 database when the artifact does not tell.
	Is64 bool
	// Imagebase is used when the artifact does not declare one.
	Imagebase *uint64
	// Main is an absolute hex address labelled "main" regardless of filtering.
	Main string
	// Pretty indents the written database.
	Pretty bool
	// Filter replaces the parser's noise policy when set.
	Filter label.Filter
}

// Summary describes a completed run.
type Summary struct {
	// Path of the written database.
	Path      string
	Module    string
	Imagebase uint64
	// ImagebaseDiscovered is true when the imagebase came from the artifact.
	// ImagebaseToken then holds it as the artifact wrote it.
	ImagebaseDiscovered bool
	ImagebaseToken      string
	Arch                parser.Arch

	Candidates int
	Noise      int
	Added      int
	Conflicts  int
	Labels     int
}

// Run converts cfg.Input with p and merges the result into the database
// next to it in cfg.OutputDir.
func Run(ctx context.Context, cfg Config, p parser.Parser) (*Summary, error) {
	var (
		fs      = lblcontext.Fs(ctx)
		logger  = log.With(lblcontext.Logger(ctx), "format", p.Name(), "input", cfg.Input)
		metrics = newMetrics(lblcontext.Registry(ctx))
	)

	exists, err := afero.Exists(fs, cfg.Input)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(ErrInputNotFound, "file `%s` does not exist", cfg.Input)
	}
	data, err := afero.ReadFile(fs, cfg.Input)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", cfg.Input)
	}
	artifact := parser.Artifact{Path: cfg.Input, Data: data}

	res, err := p.Parse(artifact)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", cfg.Input)
	}

	summary := &Summary{
		Module:     moduleName(cfg, artifact, res),
		Arch:       res.Arch,
		Candidates: len(res.Candidates),
	}
	switch {
	case res.Imagebase != nil:
		summary.Imagebase = *res.Imagebase
		summary.ImagebaseDiscovered = true
		summary.ImagebaseToken = res.ImagebaseToken
	case cfg.Imagebase != nil:
		summary.Imagebase = *cfg.Imagebase
	default:
		return nil, errors.Wrapf(ErrImagebaseRequired, "%s exports do not declare it", p.Name())
	}
	if summary.Arch == parser.ArchUnknown {
		summary.Arch = parser.Arch32
		if cfg.Is64 {
			summary.Arch = parser.Arch64
		}
	}
	level.Debug(logger).Log("msg", "parsed artifact", "candidates", summary.Candidates, "imagebase", address.Format(address.Pos(summary.Imagebase)), "arch", summary.Arch)

	filter := cfg.Filter
	if filter == nil {
		filter = p.Filter()
	}
	records, err := normalize(logger, res, filter, summary)
	if err != nil {
		return nil, err
	}
	if cfg.Main != "" {
		offset, err := address.Normalize(cfg.Main, address.Hex, summary.Imagebase)
		if err != nil {
			return nil, errors.Wrap(err, "main address")
		}
		records = append(records, label.New(summary.Module, offset, mainLabel))
	}

	summary.Path = filepath.Join(cfg.OutputDir, x64dbg.Filename(artifact.Stem(), summary.Arch == parser.Arch64))
	db, err := load(fs, summary.Path)
	if err != nil {
		return nil, err
	}

	conflicts := x64dbg.Conflicts(db.Labels, records)
	for _, r := range conflicts {
		level.Debug(logger).Log("msg", "keeping existing label", "address", address.Format(r.Address), "discarded", r.Text)
	}
	before := len(db.Labels)
	db.Labels = x64dbg.Merge(db.Labels, records)

	out, err := x64dbg.Encode(db, cfg.Pretty)
	if err != nil {
		return nil, errors.Wrap(err, "encoding database")
	}
	if err := afero.WriteFile(fs, summary.Path, out, 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing %s", summary.Path)
	}

	summary.Added = len(db.Labels) - before
	summary.Conflicts = len(conflicts)
	summary.Labels = len(db.Labels)

	metrics.candidates.WithLabelValues(p.Name()).Add(float64(summary.Candidates))
	metrics.noise.WithLabelValues(p.Name()).Add(float64(summary.Noise))
	metrics.added.WithLabelValues(p.Name()).Add(float64(summary.Added))
	metrics.conflicts.WithLabelValues(p.Name()).Add(float64(summary.Conflicts))
	metrics.labels.WithLabelValues(filepath.Base(summary.Path)).Set(float64(summary.Labels))

	level.Info(logger).Log(
		"msg", "database written",
		"path", summary.Path,
		"module", summary.Module,
		"labels", summary.Labels,
		"added", summary.Added,
		"noise", summary.Noise,
		"conflicts", summary.Conflicts,
	)
	return summary, nil
}

// normalize filters and rebases the parsed candidates. Malformed addresses
// fail the run, but all of them are reported together.
func normalize(logger log.Logger, res *parser.Result, filter label.Filter, summary *Summary) ([]label.Record, error) {
	var (
		records = make([]label.Record, 0, len(res.Candidates))
		errs    *multierror.Error
	)
	for _, c := range res.Candidates {
		if filter.IsNoise(c.Name, c.Location) {
			summary.Noise++
			level.Debug(logger).Log("msg", "dropping noise symbol", "name", c.Name, "location", c.Location)
			continue
		}
		offset, err := address.Normalize(c.Location, res.Radix, summary.Imagebase)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "symbol %s", c.Name))
			continue
		}
		records = append(records, label.New(summary.Module, offset, c.Name))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return records, nil
}

// load reads the database a run merges into. A missing file is an empty
// database.
func load(fs afero.Fs, path string) (*x64dbg.Database, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &x64dbg.Database{}, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	db, err := x64dbg.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "existing database %s", path)
	}
	return db, nil
}

func moduleName(cfg Config, a parser.Artifact, res *parser.Result) string {
	switch {
	case cfg.Module != "":
		return cfg.Module
	case res.Module != "":
		return res.Module
	case cfg.DLL:
		return a.Stem() + ".dll"
	default:
		return a.Stem() + ".exe"
	}
}
