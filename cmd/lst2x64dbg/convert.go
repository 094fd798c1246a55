package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/parser"
	"github.com/utkonos/lst2x64dbg/pkg/pipeline"
)

type convertFlags uint8

const (
	// convertFlagDLL adds --dll for formats whose module name is derived
	// from the artifact name.
	convertFlagDLL convertFlags = 1 << iota
	// convertFlagImagebase adds the mandatory --imagebase and --x64bit for
	// formats that record neither.
	convertFlagImagebase
)

type commander interface {
	Flag(name, help string) *kingpin.FlagClause
	Arg(name, help string) *kingpin.ArgClause
}

type convertParams struct {
	input     string
	outputDir string
	module    string
	main      string
	imagebase string
	pretty    bool
	dll       bool
	x64       bool
}

func addConvertParams(cmd commander, argName string, flags convertFlags) *convertParams {
	params := &convertParams{}

	cmd.Arg(strings.ToLower(argName), fmt.Sprintf("Filename or path of target %s file.", argName)).Required().StringVar(&params.input)
	cmd.Flag("pretty", "Pretty print the database JSON.").Short('p').Envar(envPrefix + "PRETTY").BoolVar(&params.pretty)
	cmd.Flag("module", "Specify the module name.").Short('m').StringVar(&params.module)
	cmd.Flag("main", "Add a main label at this address, e.g. as found by radare2.").Short('r').StringVar(&params.main)
	cmd.Flag("output-dir", "Directory the database is written to and merged from.").Short('o').Default(".").Envar(envPrefix + "OUTPUT_DIR").StringVar(&params.outputDir)
	if flags&convertFlagDLL != 0 {
		cmd.Flag("dll", "File is a DLL.").Short('d').BoolVar(&params.dll)
	}
	if flags&convertFlagImagebase != 0 {
		cmd.Flag("imagebase", "Specify the imagebase value (hex).").Short('i').Required().StringVar(&params.imagebase)
		cmd.Flag("x64bit", "Sample is 64bit.").Short('6').BoolVar(&params.x64)
	}
	return params
}

func (p *convertParams) config() (pipeline.Config, error) {
	cfg := pipeline.Config{
		Input:     p.input,
		OutputDir: p.outputDir,
		Module:    p.module,
		DLL:       p.dll,
		Is64:      p.x64,
		Main:      p.main,
		Pretty:    p.pretty,
	}
	if p.imagebase != "" {
		imagebase, err := address.ParseImagebase(p.imagebase)
		if err != nil {
			return cfg, err
		}
		cfg.Imagebase = &imagebase
	}
	return cfg, nil
}

func convert(ctx context.Context, params *convertParams, p parser.Parser) error {
	cfg, err := params.config()
	if err != nil {
		return err
	}
	summary, err := pipeline.Run(ctx, cfg, p)
	if err != nil {
		return err
	}

	out := output(ctx)
	if p.Name() == parser.FormatListing {
		fmt.Fprintf(out, "Using imagebase: %s\n", summary.ImagebaseToken)
	}
	fmt.Fprintf(out, "Exported x64dbg database: %s\n", color.GreenString(filepath.Base(summary.Path)))
	if params.module != "" {
		fmt.Fprintf(out, "Module name: %s\n", params.module)
	}
	return nil
}
