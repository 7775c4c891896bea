// Package locate discovers and ranks candidate logo URLs for a site.
//
// The Locator fetches the landing page of a site, trying the canonical
// https://www. root first and falling back to the bare host and plain
// http. From the markup it collects, in order: icon links, social image
// meta tags, logo and branding images, and icons listed in web app
// manifests. Common apple-touch-icon paths and /favicon.ico are always
// appended as unverified guesses.
//
// Candidates are deduplicated by their URL without query string and then
// stably sorted by a heuristic score that prefers vector and PNG images
// whose URL mentions a logo and penalises favicons.
package locate
