// Package main provides the content import tool: it converts authored YAML
// rulebook, pack, and board files into the JSON documents the content store
// serves.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/torbridge/conquest/internal/content"
	"github.com/torbridge/conquest/internal/importer"
)

func main() {
	sourceDir := flag.String("source", "", "path to authored YAML content directory")
	outputDir := flag.String("output", "", "path to JSON output directory (filesystem store layout)")
	sqlitePath := flag.String("sqlite", "", "path to SQLite content database (alternative to -output)")
	flag.Parse()

	if *sourceDir == "" || (*outputDir == "") == (*sqlitePath == "") {
		fmt.Fprintln(os.Stderr, "usage: import-content -source <dir> (-output <dir> | -sqlite <file>)")
		os.Exit(1)
	}

	var sink importer.Sink
	if *sqlitePath != "" {
		store, err := content.OpenSQLiteStore(*sqlitePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		sink = store
	} else {
		sink = importer.FSSink{Root: *outputDir}
	}

	start := time.Now()
	imp := importer.New(importer.YAMLSource{})
	if err := imp.Run(*sourceDir, sink); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
