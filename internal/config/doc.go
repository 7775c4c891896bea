// Package config holds the runtime configuration of logocluster.
//
// Values are resolved in increasing order of precedence: built-in
// defaults from NewConfig, the settings section of a .logocluster YAML
// file, LOGOCLUSTER_* environment variables and finally command line
// flags. The same file can also carry per-host overrides: a cookie and
// headers added to every request for the host, or a skip flag that marks
// the host as NO_LOGO without contacting it.
//
// The database directory defaults to the XDG data directory.
package config
