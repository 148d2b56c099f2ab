package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torbridge/conquest/internal/content"
)

// Document is the common intermediate format produced by all Source
// implementations: one store entry, already converted to canonical JSON.
type Document struct {
	Kind content.Kind
	Name string
	Body []byte
}

// Source loads authored content from a format-specific directory and
// produces Documents ready for validation and storage.
//
// Postcondition: returns the documents in a deterministic order, or a
// non-nil error.
type Source interface {
	Load(sourceDir string) ([]Document, error)
}

// YAMLSource reads hand-authored YAML content. The source directory mirrors
// the store layout: rulebook/, packs/ and boards/ subdirectories holding
// .yaml files. YAML is friendlier to author than JSON (comments, no quote
// noise); each file converts to one JSON document named after the file.
type YAMLSource struct{}

// Load walks the known kind subdirectories and converts every .yaml file.
func (YAMLSource) Load(sourceDir string) ([]Document, error) {
	var docs []Document
	for _, kind := range content.Kinds {
		dir, err := content.Dir(kind)
		if err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(filepath.Join(sourceDir, dir))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(sourceDir, dir, name)
			body, err := convertFile(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, Document{
				Kind: kind,
				Name: Slug(strings.TrimSuffix(name, filepath.Ext(name))),
				Body: body,
			})
		}
	}
	return docs, nil
}

// convertFile reads one YAML file and re-encodes it as JSON.
func convertFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	body, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return body, nil
}

// normalizeYAML rewrites yaml.v3's decoded value tree so json.Marshal can
// encode it: map keys become strings all the way down.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
