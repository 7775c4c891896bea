// Package model defines the data shared by the logocluster packages.
//
// This package contains the following main types:
//   - Outcome: the per-domain result written to the result log and store
//   - Status: the final classification of a domain
//   - LogoItem: a hashed logo ready for clustering
//   - Group: a set of domains with near-identical logos
//   - Summary: the statistics reported at the end of a run
//
// The models are serializable to JSON for report output and database
// storage. Hashes are stored as their hexadecimal string form.
package model
