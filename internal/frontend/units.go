package frontend

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Unit is one translation unit to traverse.
type Unit struct {
	File      string
	Directory string
}

// compileCommand mirrors one entry of a compile_commands.json compilation
// database. Only the fields we consume are declared.
type compileCommand struct {
	Directory string `json:"directory"`
	File      string `json:"file"`
}

// sourceExts are the extensions treated as C++ translation units or headers.
var sourceExts = map[string]bool{
	".cpp": true, ".cc": true, ".cxx": true, ".c++": true,
	".hpp": true, ".hh": true, ".hxx": true, ".h": true,
}

// LoadCompileCommands reads a compilation database and returns the C++
// translation units it lists, deduplicated by absolute file path. An
// unreadable or malformed database is a fatal configuration error.
func LoadCompileCommands(path string) ([]Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read compilation database %s: %w", path, err)
	}
	var cmds []compileCommand
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("unable to parse compilation database %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var units []Unit
	for _, c := range cmds {
		file := c.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(c.Directory, file)
		}
		if !sourceExts[strings.ToLower(filepath.Ext(file))] {
			continue
		}
		if seen[file] {
			continue
		}
		seen[file] = true
		units = append(units, Unit{File: file, Directory: c.Directory})
	}
	return units, nil
}

// DiscoverUnits walks root and returns every C++ source file as a unit.
// Hidden directories and common build output directories are skipped. Used
// when no compilation database is configured.
func DiscoverUnits(root string) ([]Unit, error) {
	skipDirs := map[string]bool{
		"build": true, "cmake-build-debug": true, "cmake-build-release": true,
		"node_modules": true, "vendor": true,
	}
	var units []Unit
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if sourceExts[strings.ToLower(filepath.Ext(path))] {
			units = append(units, Unit{File: path, Directory: root})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return units, nil
}
