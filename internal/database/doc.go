// Package database stores scan outcomes in SQLite.
//
// The Store keeps one row per domain holding the latest outcome and its
// logo hash, plus one row per run with the run's summary. It backs two
// features: resuming an interrupted scan without refetching domains that
// already reached a final status, and regrouping stored hashes with
// different clustering parameters.
//
// modernc.org/sqlite is used so the binary stays free of cgo.
package database
