package loader

import (
	"gopkg.in/yaml.v3"
)

// NewYAMLLoader creates a YAML loader for the given path.
func NewYAMLLoader(path string) *FileLoader {
	return NewYAMLLoaderWithFS(DefaultFS(), path)
}

// NewYAMLLoaderWithFS creates a YAML loader with a custom file system.
func NewYAMLLoaderWithFS(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path, format: "yaml", parse: parseYAML}
}

func parseYAML(data []byte, out *map[string]any) error {
	return yaml.Unmarshal(data, out)
}
