package scheme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Builtin describes a scheme known by short name.
type Builtin struct {
	Name    string
	Version string
	// Subtyping parameter overrides; zero means no override.
	LowCoverageThreshold float64
	// Deferred schemes are known names whose scheme files are not
	// distributed yet.
	Deferred bool
}

var builtins = map[string]Builtin{
	"heidelberg":  {Name: "heidelberg", Version: "0.5.0"},
	"enteritidis": {Name: "enteritidis", Version: "1.0.7", LowCoverageThreshold: 50},
	"typhi":       {Name: "typhi", Deferred: true},
	"typhimurium": {Name: "typhimurium", Deferred: true},
	"tb_lineage":  {Name: "tb_lineage", Deferred: true},
}

// BuiltinNames returns the names of all registered schemes.
func BuiltinNames() []string {
	var names []string
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a scheme argument to a file path. Built-in names are
// looked up as <dir>/<name>.fasta; anything else is taken to be a path
// and returned with a nil Builtin.
func Resolve(nameOrPath, dir string) (string, *Builtin, error) {
	b, ok := builtins[nameOrPath]
	if !ok {
		return nameOrPath, nil, nil
	}
	if b.Deferred {
		return "", nil, fmt.Errorf("%w: built-in scheme %q has no scheme file yet; pass a scheme FASTA path instead", ErrUnknownScheme, b.Name)
	}
	path := filepath.Join(dir, b.Name+".fasta")
	if _, err := os.Stat(path); err != nil {
		if _, gzerr := os.Stat(path + ".gz"); gzerr == nil {
			return path + ".gz", &b, nil
		}
		return "", nil, fmt.Errorf("%w: built-in scheme %q: %s", ErrUnknownScheme, b.Name, err)
	}
	return path, &b, nil
}

// LookupBuiltin returns the registered scheme with the given name.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return &b, true
}
