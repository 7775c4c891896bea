// Package main provides the entry point for the logocluster CLI.
//
// logocluster finds the logo of every website in a domain list, computes
// a perceptual hash of each logo and groups websites whose logos are
// near-identical.
//
// Usage:
//
//	logocluster scan example.com example.org
//	logocluster scan --input domains.csv
//	logocluster group --threshold 6
//
// See --help for all available options.
package main

func main() {
	Execute()
}
