// Package log builds the slog logger used across logocluster.
//
// The SanitizingHandler wraps any slog.Handler and masks values that must
// not end up in shared logs: cookies and authorization headers configured
// for specific hosts, bearer tokens, and the query strings of logged URLs,
// which frequently carry signed CDN parameters or session identifiers.
//
//	logger := log.NewLogger(os.Stderr, verbose, jsonOutput)
//	logger.Warn("logo found", "domain", "example.com",
//	    "logo_url", "https://cdn.example.com/logo.png?sig=abc") // logged without ?sig=abc
package log
