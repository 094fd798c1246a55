package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	lblcontext "github.com/utkonos/lst2x64dbg/pkg/context"
	"github.com/utkonos/lst2x64dbg/pkg/pipeline"
	"github.com/utkonos/lst2x64dbg/pkg/x64dbg"
)

type inspectParams struct {
	paths  []string
	module string
}

func addInspectParams(cmd commander) *inspectParams {
	params := &inspectParams{}
	cmd.Arg("db", "x64dbg database file path(s).").Required().StringsVar(&params.paths)
	cmd.Flag("module", "Only list labels of this module.").Short('m').StringVar(&params.module)
	return params
}

func inspect(ctx context.Context, params *inspectParams) error {
	fs := lblcontext.Fs(ctx)
	out := output(ctx)
	for _, path := range params.paths {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Wrapf(pipeline.ErrInputNotFound, "file `%s` does not exist", path)
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		db, err := x64dbg.Decode(data)
		if err != nil {
			return errors.Wrap(err, path)
		}

		fmt.Fprintf(out, "%s: %d labels, %s\n", path, len(db.Labels), humanize.Bytes(uint64(len(data))))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Address", "Module", "Manual", "Text"})
		for _, r := range x64dbg.Sorted(db.Labels) {
			if params.module != "" && r.Module != params.module {
				continue
			}
			table.Append([]string{
				address.Format(r.Address),
				r.Module,
				strconv.FormatBool(r.Manual),
				r.Text,
			})
		}
		table.Render()
	}
	return nil
}
