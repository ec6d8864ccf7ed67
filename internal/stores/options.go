package stores

import (
	"log/slog"
	"time"

	"github.com/homeyum/yum/internal/optimistic"
)

// Options are shared by every store constructor.
type Options struct {
	Logger *slog.Logger
	// OnChange runs after any visible value changes. It must not block.
	OnChange func()
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) coordinator(name string) optimistic.Options {
	return optimistic.Options{
		Name:   name,
		Logger: o.Logger,
		OnChange: func(string) {
			if o.OnChange != nil {
				o.OnChange()
			}
		},
	}
}

func (o Options) timestamp() string {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().UTC().Format(time.RFC3339)
}
