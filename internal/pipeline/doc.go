// Package pipeline drives logo discovery for every input domain.
//
// Each domain runs through a short Pipeline of steps: locating candidate
// URLs, selecting the first candidate that decodes at an acceptable size,
// and hashing the accepted image. Steps share a Task holding the domain's
// Outcome and intermediate state.
//
// A BatchProcessor runs one pipeline per domain on a bounded number of
// goroutines. The Runner funnels every finished Outcome through a single
// aggregating goroutine that owns the summary, the hashed logo list and
// the configured sinks, so sinks need no locking of their own.
//
// A step error or panic marks only its own domain as ERROR.
package pipeline
