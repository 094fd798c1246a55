package context

import (
	"context"
	"os"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

type contextKey int

const (
	loggerKey contextKey = iota
	registryKey
	fsKey
)

var (
	defaultLogger = log.NewLogfmtLogger(os.Stderr)
	defaultFs     = afero.NewOsFs()
)

func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func Logger(ctx context.Context) log.Logger {
	if logger, ok := ctx.Value(loggerKey).(log.Logger); ok {
		return logger
	}
	return defaultLogger
}

func WithRegistry(ctx context.Context, registry prometheus.Registerer) context.Context {
	return context.WithValue(ctx, registryKey, registry)
}

// Registry returns the registerer run metrics are recorded in. Without one
// the metrics are still collected, just never exposed.
func Registry(ctx context.Context) prometheus.Registerer {
	if registry, ok := ctx.Value(registryKey).(prometheus.Registerer); ok {
		return registry
	}
	return nil
}

// WithFs sets the filesystem artifacts are read from and databases written to.
func WithFs(ctx context.Context, fs afero.Fs) context.Context {
	return context.WithValue(ctx, fsKey, fs)
}

func Fs(ctx context.Context) afero.Fs {
	if fs, ok := ctx.Value(fsKey).(afero.Fs); ok {
		return fs
	}
	return defaultFs
}
