// Package data provides the embedded default game content.
package data

import "embed"

// dataFS embeds abilities, templates and maps at build time.
//
//go:embed *.json *.yaml maps/*.yaml
var dataFS embed.FS

// FS returns the embedded filesystem containing game data.
func FS() embed.FS {
	return dataFS
}
