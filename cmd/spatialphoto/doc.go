// Package main hosts the spatialphoto CLI.
//
// The root command converts MPO files, side-by-side images and explicit
// left/right pairs into stereo HEIF containers. Flags override the values in
// the configuration file; the config subcommands scaffold and inspect that
// file. Conversion itself lives in internal/convert.
package main
