// Package oncall holds assets shared by the oncall binaries.
package oncall

import _ "embed"

// Changelog is the release history reported by the version surfaces.
//
//go:embed CHANGELOG.md
var Changelog []byte
