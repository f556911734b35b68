// Package confloader loads server configuration from layered sources.
//
// It builds on koanf: a YAML file is loaded first, then environment
// variables override it, then explicit maps (typically CLI flags)
// override both. The result is unmarshaled into a tagged struct.
//
// Priority (highest to lowest):
//
//  1. Explicit maps (command-line flags)
//  2. Environment variables
//  3. Configuration file
//  4. Struct defaults
package confloader
