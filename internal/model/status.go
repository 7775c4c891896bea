package model

// Status is the final classification of a processed domain.
type Status string

const (
	// StatusOK means a logo was fetched and decoded at an acceptable size.
	StatusOK Status = "OK"

	// StatusNoLogo means no candidate logo URL could be discovered.
	StatusNoLogo Status = "NO_LOGO"

	// StatusUnreadable means candidates were found but none could be
	// fetched and decoded at the minimum size.
	StatusUnreadable Status = "UNREADABLE"

	// StatusError means processing failed unexpectedly.
	StatusError Status = "ERROR"
)

// String returns the status as written to the result log.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether a domain with this status needs no further
// processing when a run is resumed. Errored domains are retried.
func (s Status) Terminal() bool {
	switch s {
	case StatusOK, StatusNoLogo, StatusUnreadable:
		return true
	default:
		return false
	}
}

// ParseStatus converts a stored status string back into a Status.
// Unknown values map to StatusError.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusOK, StatusNoLogo, StatusUnreadable:
		return Status(s)
	default:
		return StatusError
	}
}
