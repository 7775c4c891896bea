package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/logocluster/internal/decode"
	"github.com/nao1215/logocluster/internal/fetch"
	"github.com/nao1215/logocluster/internal/locate"
	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/phash"
)

const (
	// DefaultMinLogoSize is the smallest accepted width and height.
	DefaultMinLogoSize = 16

	// DefaultFetchAttempts is the number of tries per candidate.
	DefaultFetchAttempts = 2

	// fallbackReferer is sent when the home URL has no usable origin.
	fallbackReferer = "https://www.google.com/"

	// skippedMessage is recorded for hosts excluded by configuration.
	skippedMessage = "skipped by configuration"
)

// Locator finds ranked candidates for a site URL.
type Locator interface {
	FindAll(ctx context.Context, siteURL string) []locate.Candidate
}

// ImageFetcher downloads candidate images with retries.
type ImageFetcher interface {
	FetchWithRetry(ctx context.Context, rawURL, referer string, maxAttempts int) (*fetch.Payload, error)
}

// ImageDecoder turns bytes into an image.
type ImageDecoder interface {
	Decode(data []byte, hint decode.Hint) (decode.Result, error)
}

// LocateStep finds the home URL and candidates of a domain by trying each
// site variant until the locator returns candidates.
type LocateStep struct {
	locator Locator
	skip    func(host string) bool
	logger  *slog.Logger
}

// LocateStepOption configures a LocateStep.
type LocateStepOption func(*LocateStep)

// WithSkip marks domains whose host matches skip as NO_LOGO without any
// network access.
func WithSkip(skip func(host string) bool) LocateStepOption {
	return func(s *LocateStep) {
		s.skip = skip
	}
}

// WithLocateLogger sets a custom logger for the locate step.
func WithLocateLogger(logger *slog.Logger) LocateStepOption {
	return func(s *LocateStep) {
		s.logger = logger
	}
}

// NewLocateStep creates a LocateStep.
func NewLocateStep(locator Locator, opts ...LocateStepOption) *LocateStep {
	s := &LocateStep{locator: locator, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LocateStep) Name() string {
	return "locate"
}

// Do implements Step.
func (s *LocateStep) Do(ctx context.Context, task *Task) error {
	out := task.Outcome
	if s.skip != nil && s.skip(hostOf(out.Domain)) {
		out.Status = model.StatusNoLogo
		out.Error = skippedMessage
		return nil
	}

	for _, variant := range locate.SiteVariants(out.Domain) {
		if err := ctx.Err(); err != nil {
			return err
		}
		candidates := s.locator.FindAll(ctx, variant)
		if len(candidates) == 0 {
			continue
		}
		out.HomeURL = variant
		task.Candidates = candidates
		s.logger.Debug("home URL selected", "domain", out.Domain, "home", variant, "candidates", len(candidates))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	out.Status = model.StatusNoLogo
	return nil
}

// SelectStep fetches and decodes candidates in rank order and accepts the
// first one at least minSize pixels in both dimensions.
type SelectStep struct {
	fetcher          ImageFetcher
	decoder          ImageDecoder
	minSize          int
	attempts         int
	candidateTimeout time.Duration
	logger           *slog.Logger
}

// SelectStepOption configures a SelectStep.
type SelectStepOption func(*SelectStep)

// WithMinSize sets the smallest accepted width and height.
func WithMinSize(n int) SelectStepOption {
	return func(s *SelectStep) {
		s.minSize = n
	}
}

// WithAttempts sets the fetch attempts per candidate.
func WithAttempts(n int) SelectStepOption {
	return func(s *SelectStep) {
		s.attempts = n
	}
}

// WithCandidateTimeout bounds the time spent on one candidate, retries
// included. Zero means no bound beyond the client timeouts.
func WithCandidateTimeout(d time.Duration) SelectStepOption {
	return func(s *SelectStep) {
		s.candidateTimeout = d
	}
}

// WithSelectLogger sets a custom logger for the select step.
func WithSelectLogger(logger *slog.Logger) SelectStepOption {
	return func(s *SelectStep) {
		s.logger = logger
	}
}

// NewSelectStep creates a SelectStep.
func NewSelectStep(fetcher ImageFetcher, decoder ImageDecoder, opts ...SelectStepOption) *SelectStep {
	s := &SelectStep{
		fetcher:  fetcher,
		decoder:  decoder,
		minSize:  DefaultMinLogoSize,
		attempts: DefaultFetchAttempts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SelectStep) Name() string {
	return "select"
}

// Do implements Step.
func (s *SelectStep) Do(ctx context.Context, task *Task) error {
	out := task.Outcome
	referer := Referer(out.HomeURL)

	for _, c := range task.Candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, ok := s.try(ctx, c, referer)
		if !ok {
			continue
		}
		if res.Width() < s.minSize || res.Height() < s.minSize {
			s.logger.Debug("candidate too small",
				"domain", out.Domain,
				"url", c.URL,
				"width", res.Width(),
				"height", res.Height(),
			)
			continue
		}
		out.Status = model.StatusOK
		out.LogoURL = c.URL
		task.Logo = res.Image
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	out.Status = model.StatusUnreadable
	return nil
}

func (s *SelectStep) try(ctx context.Context, c locate.Candidate, referer string) (decode.Result, bool) {
	if s.candidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.candidateTimeout)
		defer cancel()
	}

	payload, err := s.fetcher.FetchWithRetry(ctx, c.URL, referer, s.attempts)
	if err != nil {
		s.logger.Debug("candidate fetch failed", "url", c.URL, "source", c.Source, "error", err)
		return decode.Result{}, false
	}
	res, err := s.decoder.Decode(payload.Body, decode.Hint{
		URL:         strings.ToLower(c.URL),
		ContentType: payload.ContentType,
	})
	if err != nil {
		s.logger.Debug("candidate undecodable", "url", c.URL, "source", c.Source, "error", err)
		return decode.Result{}, false
	}
	return res, true
}

// HashStep computes the perceptual hash of the accepted logo.
type HashStep struct{}

// NewHashStep creates a HashStep.
func NewHashStep() *HashStep {
	return &HashStep{}
}

// Name returns the step name.
func (s *HashStep) Name() string {
	return "hash"
}

// Do implements Step. An image that cannot be hashed leaves the outcome OK
// with an invalid hash, which keeps it out of clustering.
func (s *HashStep) Do(_ context.Context, task *Task) error {
	if task.Outcome.Status != model.StatusOK {
		return nil
	}
	task.Outcome.Hash = phash.DHash(task.Logo)
	task.Logo = nil
	return nil
}

// Referer returns the origin of homeURL used as the Referer for logo
// requests. URLs without a scheme are treated as https; anything without
// a host falls back to a search engine origin.
func Referer(homeURL string) string {
	home := strings.TrimSpace(homeURL)
	if home == "" {
		return fallbackReferer
	}
	if !strings.Contains(home, "://") {
		home = "https://" + home
	}
	if origin := fetch.Origin(home); origin != "" {
		return origin
	}
	return fallbackReferer
}

// hostOf returns the lowercased host of a raw domain or URL.
func hostOf(domain string) string {
	d := strings.TrimSpace(domain)
	if !strings.Contains(d, "://") {
		d = "https://" + d
	}
	u, err := url.Parse(d)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(domain))
	}
	return strings.ToLower(u.Hostname())
}
