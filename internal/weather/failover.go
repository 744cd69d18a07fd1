package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Failover tries providers in order and returns the first successful document.
type Failover struct {
	providers []Provider
}

var _ Provider = (*Failover)(nil)

// NewFailover creates a Failover over the given providers. Order is priority.
func NewFailover(providers ...Provider) *Failover {
	return &Failover{providers: providers}
}

func (f *Failover) Name() string {
	return "failover"
}

// Fetch asks each provider in turn. Errors are logged and joined when every provider fails.
func (f *Failover) Fetch(ctx context.Context, loc Location) ([]byte, error) {
	if len(f.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch weather data for %s", loc.Key())
		return nil, fmt.Errorf("no weather providers configured")
	}

	var errs []error
	for _, p := range f.providers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		doc, err := p.Fetch(ctx, loc)
		if err != nil {
			log.Printf("WARN: provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		log.Printf("DEBUG: provider %s served weather for %s", p.Name(), loc.Key())
		return doc, nil
	}

	return nil, errors.Join(errs...)
}
