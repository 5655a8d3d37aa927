// Package utils hosts shared infrastructure helpers for the azdo_scripts
// command-line tools, including the Viper-backed configuration loader and the
// zap logger factory consumed by every subcommand.
package utils
