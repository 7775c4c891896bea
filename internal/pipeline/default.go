package pipeline

import (
	"log/slog"
	"time"
)

// Settings tune the steps of the default pipeline. Zero values keep each
// step's default.
type Settings struct {
	MinLogoSize      int
	Attempts         int
	CandidateTimeout time.Duration

	// Skip reports hosts that are not contacted at all.
	Skip func(host string) bool
}

// DefaultPipeline builds the locate, select and hash pipeline for one
// domain.
func DefaultPipeline(locator Locator, fetcher ImageFetcher, decoder ImageDecoder, settings Settings, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	locateOpts := []LocateStepOption{WithLocateLogger(logger)}
	if settings.Skip != nil {
		locateOpts = append(locateOpts, WithSkip(settings.Skip))
	}

	selectOpts := []SelectStepOption{WithSelectLogger(logger)}
	if settings.MinLogoSize > 0 {
		selectOpts = append(selectOpts, WithMinSize(settings.MinLogoSize))
	}
	if settings.Attempts > 0 {
		selectOpts = append(selectOpts, WithAttempts(settings.Attempts))
	}
	if settings.CandidateTimeout > 0 {
		selectOpts = append(selectOpts, WithCandidateTimeout(settings.CandidateTimeout))
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewLocateStep(locator, locateOpts...),
		NewSelectStep(fetcher, decoder, selectOpts...),
		NewHashStep(),
	)
	return p
}
