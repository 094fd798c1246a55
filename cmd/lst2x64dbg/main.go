package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	lblcontext "github.com/utkonos/lst2x64dbg/pkg/context"
	"github.com/utkonos/lst2x64dbg/pkg/parser"
)

const envPrefix = "LST2X64DBG_"

var (
	consoleOutput = os.Stderr
	logger        = log.NewLogfmtLogger(consoleOutput)
)

func main() {
	ctx := lblcontext.WithLogger(context.Background(), logger)
	ctx = withOutput(ctx, os.Stdout)

	os.Exit(checkError(run(ctx, filepath.Base(os.Args[0]), os.Args[1:])))
}

func run(ctx context.Context, name string, args []string) error {
	var cfg struct {
		verbose         bool
		metricsTextfile string
	}

	app := kingpin.New(name, "Extract labels from IDA, Ghidra and JSON symbol exports into x64dbg databases.").UsageWriter(output(ctx))
	app.Version(version.Print("lst2x64dbg"))
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("false").BoolVar(&cfg.verbose)
	app.Flag("metrics.textfile", "Write run counters to this file in Prometheus text format.").Envar(envPrefix + "METRICS_TEXTFILE").StringVar(&cfg.metricsTextfile)

	lstCmd := app.Command("lst", "Extract labels from an IDA .lst listing.")
	lstParams := addConvertParams(lstCmd, "LST", convertFlagDLL)

	ghidraCmd := app.Command("ghidra", "Extract labels from a Ghidra symbol table CSV export.")
	ghidraParams := addConvertParams(ghidraCmd, "CSV", convertFlagDLL|convertFlagImagebase)

	jsonCmd := app.Command("json", "Extract labels from a JSON export mapping decimal addresses to names.")
	jsonParams := addConvertParams(jsonCmd, "JSON", convertFlagDLL|convertFlagImagebase)

	dbCmd := app.Command("x64dbg", "Merge the labels of another x64dbg database into the local one.")
	dbParams := addConvertParams(dbCmd, "DB", 0)

	inspectCmd := app.Command("inspect", "List the labels of x64dbg databases.")
	inspectParams := addInspectParams(inspectCmd)

	// parse command line arguments
	parsedCmd, err := app.Parse(args)
	if err != nil {
		return err
	}

	logger := lblcontext.Logger(ctx)
	if cfg.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	ctx = lblcontext.WithLogger(ctx, logger)

	reg := prometheus.NewRegistry()
	ctx = lblcontext.WithRegistry(ctx, reg)

	switch parsedCmd {
	case lstCmd.FullCommand():
		err = convert(ctx, lstParams, parser.Listing{})
	case ghidraCmd.FullCommand():
		err = convert(ctx, ghidraParams, parser.Tabular{})
	case jsonCmd.FullCommand():
		err = convert(ctx, jsonParams, parser.Structured{})
	case dbCmd.FullCommand():
		err = convert(ctx, dbParams, parser.Database{})
	case inspectCmd.FullCommand():
		err = inspect(ctx, inspectParams)
	default:
		level.Error(logger).Log("msg", "unknown command", "cmd", parsedCmd)
	}
	if err != nil {
		return err
	}

	if cfg.metricsTextfile != "" {
		return prometheus.WriteToTextfile(cfg.metricsTextfile, reg)
	}
	return nil
}

func checkError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

type contextKey uint8

const (
	contextKeyOutput contextKey = iota
)

func withOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, contextKeyOutput, w)
}

func output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(contextKeyOutput).(io.Writer); ok {
		return w
	}
	return os.Stdout
}
