package content

import (
	"embed"
	"io/fs"
)

// Default content bundle: the base rulebook, the shipped unlock packs, and
// both board topologies. Deployments without an external content directory
// run entirely from this bundle.
//
//go:embed data
var embeddedContent embed.FS

// Embedded returns a read-only store over the compiled-in content bundle.
//
// Postcondition: Returns a non-nil Store; Load/List never touch the filesystem.
func Embedded() Store {
	sub, err := fs.Sub(embeddedContent, "data")
	if err != nil {
		// The data directory is part of the binary; fs.Sub can only fail on
		// an invalid path argument.
		panic("content: embedded bundle missing data directory: " + err.Error())
	}
	return NewFSStoreFS(sub)
}
