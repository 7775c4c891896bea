// Package fetch downloads logo images and landing pages over HTTP.
//
// A Fetcher shares one cookie-aware http.Client across all domains. Before
// an image request it visits the root of the referer's origin once so that
// sites which set a session cookie on the landing page serve their assets.
// Requests carry browser-like headers, are rate limited per host and have
// their bodies capped.
//
// Failures are reported as *NetworkError, matchable with ErrNetwork.
// FetchWithRetry retries with a linear backoff and reports exhaustion as
// *RetryExhaustedError, matchable with ErrRetryExhausted.
package fetch
