// Package source produces position samples for devices that cannot report
// their own location, either from a simulated walk or a serial GPS receiver.
package source

import (
	"context"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

// Source yields samples one at a time. Next blocks until a sample is
// available or ctx is done.
type Source interface {
	Next(ctx context.Context) (domain.Sample, error)
	Close() error
}
