// Package assets embeds the default template library and scene properties.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed templates metadata.json synonyms.json properties.json
var FS embed.FS

// Templates is the default template directory.
func Templates() fs.FS {
	sub, err := fs.Sub(FS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
