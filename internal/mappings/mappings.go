// Package mappings loads the framework mapping tables that translate check
// IDs into compliance control IDs. Tables are parsed fresh on every Load so
// each run sees the current files; nothing is cached at package level.
package mappings

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

//go:embed data/*.json
var defaults embed.FS

// Default file names, used both for the embedded tables and inside a
// --mappings-dir override directory.
const (
	GenericFile    = "frameworks.json"
	NIST80053File  = "nist_800_53.json"
	NIST800171File = "nist_800_171.json"
)

// ErrInvalidMapping is returned when a mapping file cannot be read or does not
// have the expected shape (a JSON object of check ID to array of strings).
var ErrInvalidMapping = errors.New("invalid mapping table")

// ErrUnknownFramework is returned by Set.Table for a framework that has no
// mapping table.
var ErrUnknownFramework = errors.New("unknown framework")

// Table maps a check ID to its ordered, de-duplicated control IDs.
// A missing key and an empty list both mean "unmapped".
type Table map[string][]string

// Controls returns the control IDs mapped to checkID, or nil when unmapped.
func (t Table) Controls(checkID string) []string {
	return t[checkID]
}

// ControlIDs returns every control ID that appears in the table, sorted and
// de-duplicated.
func (t Table) ControlIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, controls := range t {
		for _, c := range controls {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			ids = append(ids, c)
		}
	}
	sort.Strings(ids)
	return ids
}

// ChecksFor returns the sorted check IDs that map to controlID.
func (t Table) ChecksFor(controlID string) []string {
	var ids []string
	for checkID, controls := range t {
		for _, c := range controls {
			if c == controlID {
				ids = append(ids, checkID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// Set holds one table per framework for the duration of a run.
type Set struct {
	Generic    Table
	NIST80053  Table
	NIST800171 Table
}

// Table returns the table for fw.
func (s Set) Table(fw models.Framework) (Table, error) {
	switch fw {
	case models.FrameworkGeneric:
		return s.Generic, nil
	case models.FrameworkNIST80053:
		return s.NIST80053, nil
	case models.FrameworkNIST800171:
		return s.NIST800171, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFramework, fw)
}

// UnknownChecks returns the sorted check IDs referenced by any table that are
// not in known. Such entries are harmless (they never match a result) but
// usually mean a mapping file is out of date.
func (s Set) UnknownChecks(known []string) []string {
	valid := make(map[string]bool, len(known))
	for _, id := range known {
		valid[id] = true
	}
	seen := make(map[string]bool)
	var unknown []string
	for _, t := range []Table{s.Generic, s.NIST80053, s.NIST800171} {
		for id := range t {
			if !valid[id] && !seen[id] {
				seen[id] = true
				unknown = append(unknown, id)
			}
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Paths names override files for each table. An empty path selects the
// embedded default.
type Paths struct {
	Generic    string `yaml:"generic"`
	NIST80053  string `yaml:"nist_800_53"`
	NIST800171 string `yaml:"nist_800_171"`
}

// PathsFromDir returns Paths for the standard file names inside dir. Files
// that do not exist are left empty so the embedded default is used.
func PathsFromDir(dir string) Paths {
	pick := func(name string) string {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			return ""
		}
		return p
	}
	return Paths{
		Generic:    pick(GenericFile),
		NIST80053:  pick(NIST80053File),
		NIST800171: pick(NIST800171File),
	}
}

// Merge returns p with any empty field filled from other.
func (p Paths) Merge(other Paths) Paths {
	if p.Generic == "" {
		p.Generic = other.Generic
	}
	if p.NIST80053 == "" {
		p.NIST80053 = other.NIST80053
	}
	if p.NIST800171 == "" {
		p.NIST800171 = other.NIST800171
	}
	return p
}

// Load parses all three tables. Each call reads and parses the files again.
func Load(paths Paths) (Set, error) {
	generic, err := loadTable(paths.Generic, GenericFile)
	if err != nil {
		return Set{}, err
	}
	nist53, err := loadTable(paths.NIST80053, NIST80053File)
	if err != nil {
		return Set{}, err
	}
	nist171, err := loadTable(paths.NIST800171, NIST800171File)
	if err != nil {
		return Set{}, err
	}
	return Set{Generic: generic, NIST80053: nist53, NIST800171: nist171}, nil
}

// LoadDefaults parses the embedded tables.
func LoadDefaults() (Set, error) {
	return Load(Paths{})
}

func loadTable(path, defaultName string) (Table, error) {
	var (
		data   []byte
		err    error
		source = path
	)
	if path == "" {
		source = "embedded " + defaultName
		data, err = defaults.ReadFile("data/" + defaultName)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidMapping, source, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return t, nil
}

// Parse decodes one mapping table. Control IDs are trimmed, empty IDs are
// rejected, and duplicates within one check are dropped keeping first
// occurrence order.
func Parse(data []byte) (Table, error) {
	var raw map[string][]string
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidMapping)
	}

	t := make(Table, len(raw))
	for checkID, controls := range raw {
		seen := make(map[string]bool, len(controls))
		list := make([]string, 0, len(controls))
		for _, c := range controls {
			c = strings.TrimSpace(c)
			if c == "" {
				return nil, fmt.Errorf("%w: empty control id for check %s", ErrInvalidMapping, checkID)
			}
			if seen[c] {
				continue
			}
			seen[c] = true
			list = append(list, c)
		}
		t[checkID] = list
	}
	return t, nil
}
