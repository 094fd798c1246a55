package util

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterOrGet registers the collector c with the provided registerer.
// If the registerer is nil, the collector is returned without registration.
// If an equal collector is already registered, that one is returned, so
// repeated runs against one registry keep accumulating into it.
func RegisterOrGet[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	err := reg.Register(c)
	if err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(T)
		}
		panic(err)
	}
	return c
}
