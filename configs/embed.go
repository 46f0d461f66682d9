// Package configs embeds the configuration template written by
// `indexprep config init`.
//
// Edit config.example.yaml and rebuild to change the template.
package configs

import _ "embed"

// ConfigTemplate is the commented configuration template. It decodes to
// the built-in defaults.
//
//go:embed config.example.yaml
var ConfigTemplate string
