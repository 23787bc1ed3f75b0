// Package sector translates provider sector and industry labels into the
// labels used in the record store.
package sector

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// defaultSectors maps Yahoo's GICS-style sector names to the Korean labels
// used by the home-market sources.
var defaultSectors = map[string]string{
	"Technology":             "IT",
	"Communication Services": "커뮤니케이션서비스",
	"Consumer Cyclical":      "경기소비재",
	"Consumer Defensive":     "필수소비재",
	"Energy":                 "에너지",
	"Financial Services":     "금융",
	"Healthcare":             "헬스케어",
	"Industrials":            "산업재",
	"Basic Materials":        "소재",
	"Real Estate":            "부동산",
	"Utilities":              "유틸리티",
}

// Table holds sector and industry translations. Lookups are
// case-insensitive on the trimmed label.
type Table struct {
	sectors    map[string]string
	industries map[string]string
}

// File is the YAML layout of an override file.
type File struct {
	Sectors    map[string]string `yaml:"sectors"`
	Industries map[string]string `yaml:"industries"`
}

// Default returns the built-in table.
func Default() *Table {
	t := &Table{sectors: map[string]string{}, industries: map[string]string{}}
	for k, v := range defaultSectors {
		t.sectors[key(k)] = v
	}
	return t
}

// Load returns the built-in table extended by the YAML file at path. An
// empty path returns the built-in table.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sector: read %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "sector: parse %s", path)
	}
	t.apply(f)
	return t, nil
}

func (t *Table) apply(f File) {
	for k, v := range f.Sectors {
		t.sectors[key(k)] = strings.TrimSpace(v)
	}
	for k, v := range f.Industries {
		t.industries[key(k)] = strings.TrimSpace(v)
	}
}

// Sector maps a sector label; unmapped labels pass through trimmed.
func (t *Table) Sector(label string) string {
	return lookup(t.sectors, label)
}

// Industry maps an industry label; unmapped labels pass through trimmed.
func (t *Table) Industry(label string) string {
	return lookup(t.industries, label)
}

func lookup(m map[string]string, label string) string {
	label = strings.TrimSpace(label)
	if v, ok := m[key(label)]; ok && v != "" {
		return v
	}
	return label
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
