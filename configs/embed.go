// Package configs provides embedded configuration templates for hitpager.
//
// The project template is written by `hitpager init` as .hitpager.yaml.
// Every value in it matches the default from config.NewConfig, so an
// untouched template changes nothing.
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (config.NewConfig)
//  2. User config (~/.config/hitpager/config.yaml)
//  3. Project config (.hitpager.yaml)
//  4. Environment variables (HITPAGER_*)
package configs

import _ "embed"

// ProjectConfigTemplate is the commented template for .hitpager.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
