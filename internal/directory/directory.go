// Package directory holds the static mapping between court aliases and the
// real Google Calendar identifiers behind them, plus the administrator list.
// Loaded once at startup; read-only for the life of the process.
package directory

import (
	"fmt"
	"os"
	"sort"

	apperrors "quadras/pkg/errors"

	"gopkg.in/yaml.v3"
)

type file struct {
	Courts     map[string]string `yaml:"courts"`
	AdminUsers []string          `yaml:"admin_users"`
}

type Directory struct {
	aliasToID map[string]string
	idToAlias map[string]string
	admins    map[string]struct{}
}

// Load reads the directory file. Aliases must be unique; a real calendar ID
// appearing under two aliases is rejected because the reverse mapping used
// for permission-filtered listings would be ambiguous.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: reading %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("directory: parsing %s: %w", path, err)
	}
	if len(f.Courts) == 0 {
		return nil, fmt.Errorf("directory: %s defines no courts", path)
	}

	d := &Directory{
		aliasToID: make(map[string]string, len(f.Courts)),
		idToAlias: make(map[string]string, len(f.Courts)),
		admins:    make(map[string]struct{}, len(f.AdminUsers)),
	}
	for alias, id := range f.Courts {
		if alias == "" || id == "" {
			return nil, fmt.Errorf("directory: empty alias or calendar id in %s", path)
		}
		if prev, ok := d.idToAlias[id]; ok {
			return nil, fmt.Errorf("directory: calendar id %q mapped by both %q and %q", id, prev, alias)
		}
		d.aliasToID[alias] = id
		d.idToAlias[id] = alias
	}
	for _, email := range f.AdminUsers {
		d.admins[email] = struct{}{}
	}
	return d, nil
}

// New builds a directory from in-memory maps. Used by tests and by callers
// that assemble configuration themselves.
func New(courts map[string]string, admins []string) *Directory {
	d := &Directory{
		aliasToID: make(map[string]string, len(courts)),
		idToAlias: make(map[string]string, len(courts)),
		admins:    make(map[string]struct{}, len(admins)),
	}
	for alias, id := range courts {
		d.aliasToID[alias] = id
		d.idToAlias[id] = alias
	}
	for _, email := range admins {
		d.admins[email] = struct{}{}
	}
	return d
}

// Resolve maps an alias to its real calendar identifier. Unknown aliases
// fail before any upstream call is made.
func (d *Directory) Resolve(alias string) (string, error) {
	id, ok := d.aliasToID[alias]
	if !ok {
		return "", apperrors.UnknownResource(alias)
	}
	return id, nil
}

// AliasFor inverts the mapping. A real ID with no alias is simply absent;
// callers drop such calendars rather than erroring.
func (d *Directory) AliasFor(calendarID string) (string, bool) {
	alias, ok := d.idToAlias[calendarID]
	return alias, ok
}

// Aliases returns every court alias, lexicographically sorted.
func (d *Directory) Aliases() []string {
	out := make([]string, 0, len(d.aliasToID))
	for alias := range d.aliasToID {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// IsAdmin tests admin membership by exact, case-sensitive string equality.
// The upstream identity provider is trusted to deliver a stable casing; no
// normalization happens here.
func (d *Directory) IsAdmin(email string) bool {
	_, ok := d.admins[email]
	return ok
}
