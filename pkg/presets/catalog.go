// Package presets holds the table of CMake presets the operator can pick from and the
// prompt used to pick one.
package presets

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Entry maps a short selector to a CMake preset
type Entry struct {
	Selector  string `yaml:"selector"`
	Generator string `yaml:"generator"`
	Compiler  string `yaml:"compiler"`
	Preset    string `yaml:"preset"`
}

// Catalog is an ordered, immutable list of entries. The order is the menu order.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

type catalogFile struct {
	Presets []Entry `yaml:"presets"`
}

var builtin = []Entry{
	{Selector: "1", Generator: "Visual Studio 17 2022", Compiler: "msvc143", Preset: "visual-studio-msvc-debug"},
	{Selector: "2", Generator: "Visual Studio 17 2022", Compiler: "clang-cl", Preset: "visual-studio-clangcl-debug"},
	{Selector: "3", Generator: "MinGW Makefile", Compiler: "clang++", Preset: "mingw-makefiles-clang-debug"},
	{Selector: "4", Generator: "MinGW Makefile", Compiler: "g++", Preset: "mingw-makefiles-gcc-debug"},
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(builtin)
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog from the given entries. Every field must be set and selectors must be unique.
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, eris.New("preset catalog is empty")
	}

	c := &Catalog{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for idx, entry := range entries {
		entry.Selector = strings.TrimSpace(entry.Selector)
		if entry.Selector == "" || entry.Generator == "" || entry.Compiler == "" || entry.Preset == "" {
			return nil, eris.Errorf("preset #%d is incomplete: %+v", idx+1, entry)
		}

		if _, dup := c.index[entry.Selector]; dup {
			return nil, eris.Errorf("selector %s is used more than once", entry.Selector)
		}

		c.entries[idx] = entry
		c.index[entry.Selector] = idx
	}

	return c, nil
}

// Load reads a catalog from a YAML file. A missing file yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, eris.Wrapf(err, "Could not open file %s", path)
	}

	var file catalogFile
	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse %s", path)
	}

	c, err := New(file.Presets)
	if err != nil {
		return nil, eris.Wrapf(err, "Invalid preset table in %s", path)
	}
	return c, nil
}

// Resolve looks up the preset for the given selector
func (c *Catalog) Resolve(selector string) (Entry, bool) {
	idx, ok := c.index[strings.TrimSpace(selector)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Entries returns a copy of the entries in menu order
func (c *Catalog) Entries() []Entry {
	result := make([]Entry, len(c.entries))
	copy(result, c.entries)
	return result
}
