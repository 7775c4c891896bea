package model

import (
	"time"
	"unicode/utf8"

	"github.com/nao1215/logocluster/internal/phash"
)

// MaxErrorLength bounds the error message kept in an Outcome.
const MaxErrorLength = 50

// Outcome is the per-domain result of logo discovery and selection.
type Outcome struct {
	// Domain is the input domain exactly as it appeared in the input list.
	Domain string `json:"domain"`

	// HomeURL is the site variant that produced candidates. Empty when no
	// variant produced any.
	HomeURL string `json:"home_url"`

	// LogoURL is the accepted candidate. Set only when Status is OK.
	LogoURL string `json:"logo_url"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// Error holds a short description of the failure. Empty unless
	// Status is ERROR or the domain was skipped by configuration.
	Error string `json:"error,omitempty"`

	// Hash is the perceptual hash of the accepted logo. Invalid unless
	// Status is OK and hashing succeeded.
	Hash phash.Hash `json:"-"`

	// ProcessedAt is when the outcome was finalised.
	ProcessedAt time.Time `json:"processed_at"`
}

// NewOutcome returns an outcome for domain with no status assigned yet.
func NewOutcome(domain string) *Outcome {
	return &Outcome{Domain: domain}
}

// SetError marks the outcome as errored. The message is truncated and
// prefixed with kind, the stage that failed, as "kind: message".
func (o *Outcome) SetError(kind, msg string) {
	o.Status = StatusError
	o.Error = FormatError(kind, msg)
}

// FormatError joins kind and the truncated msg. An empty kind leaves the
// truncated msg unprefixed.
func FormatError(kind, msg string) string {
	if kind == "" {
		return TruncateError(msg)
	}
	return kind + ": " + TruncateError(msg)
}

// LogoItem returns the clusterable item for this outcome. The second
// return value is false unless the outcome is OK with a valid hash.
func (o *Outcome) LogoItem() (LogoItem, bool) {
	if o.Status != StatusOK || !o.Hash.Valid() {
		return LogoItem{}, false
	}
	return LogoItem{Domain: o.Domain, LogoURL: o.LogoURL, Hash: o.Hash}, true
}

// TruncateError shortens msg to at most MaxErrorLength runes.
func TruncateError(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxErrorLength {
		return msg
	}
	return string([]rune(msg)[:MaxErrorLength])
}
