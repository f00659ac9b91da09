package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the layout of a profiles override file:
//
//	profiles:
//	  standard:
//	    deep_metrics: true
//	  noc-wall:
//	    snapshots: true
type File struct {
	Profiles map[string]Capabilities `yaml:"profiles"`
}

// Loader handles loading of a profiles override file
type Loader struct {
	filePath string
}

// NewLoader creates a new profiles loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads the file and returns the built-in profiles with the file's
// entries replacing or adding to them.
func (l *Loader) Load() (Registry, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles yaml: %w", err)
	}

	reg := Builtin()
	for name, caps := range f.Profiles {
		if name == "" {
			return nil, fmt.Errorf("profiles file %s: empty profile name", l.filePath)
		}
		reg[name] = Profile{Name: name, Capabilities: caps}
	}
	return reg, nil
}

// Resolve returns the profile called name from the built-ins, or from
// path when it is set.
func Resolve(name, path string) (Profile, error) {
	reg := Builtin()
	if path != "" {
		var err error
		if reg, err = NewLoader(path).Load(); err != nil {
			return Profile{}, err
		}
	}
	return reg.Get(name)
}
