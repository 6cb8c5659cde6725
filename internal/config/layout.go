package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout is the declarative floor plan read from the layout file.
type Layout struct {
	Sections        []SectionSpec `yaml:"sections"`
	RetiredSections []string      `yaml:"retired_sections"`
	FAQ             []FAQEntry    `yaml:"faq"`
	Menu            []MenuSpec    `yaml:"menu"`
}

// MenuSpec describes one dish guests can pre-order.
type MenuSpec struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Special     bool    `yaml:"special"`
}

// SectionSpec describes one section and its tables.
type SectionSpec struct {
	Name             string      `yaml:"name"`
	Description      string      `yaml:"description"`
	Priority         int         `yaml:"priority"`
	CanCombineTables bool        `yaml:"can_combine_tables"`
	CombineLimits    map[int]int `yaml:"combine_limits"`
	Tables           []TableSpec `yaml:"tables"`
}

// TableSpec describes one table.
type TableSpec struct {
	Label    string `yaml:"label"`
	Capacity int    `yaml:"capacity"`
}

// FAQEntry is one piece of restaurant knowledge.
type FAQEntry struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// LoadLayout reads and validates the layout file at path.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks the floor plan rules: names are unique, priorities are
// unique, every table seats at least one guest, and no section is both
// live and retired.  Menu items need a unique name and a price of zero or
// more.
func (l *Layout) Validate() error {
	names := make(map[string]bool)
	priorities := make(map[int]string)
	for _, s := range l.Sections {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key == "" {
			return fmt.Errorf("layout: section without a name")
		}
		if names[key] {
			return fmt.Errorf("layout: duplicate section %q", s.Name)
		}
		names[key] = true
		if other, dup := priorities[s.Priority]; dup {
			return fmt.Errorf("layout: sections %q and %q share priority %d", other, s.Name, s.Priority)
		}
		priorities[s.Priority] = s.Name
		labels := make(map[string]bool)
		for _, t := range s.Tables {
			if t.Capacity <= 0 {
				return fmt.Errorf("layout: table %q in %q must seat at least one guest", t.Label, s.Name)
			}
			if labels[t.Label] {
				return fmt.Errorf("layout: duplicate table %q in %q", t.Label, s.Name)
			}
			labels[t.Label] = true
		}
		for c, n := range s.CombineLimits {
			if c <= 0 || n < 0 {
				return fmt.Errorf("layout: invalid combine limit %d:%d in %q", c, n, s.Name)
			}
		}
	}
	dishes := make(map[string]bool)
	for _, m := range l.Menu {
		key := strings.ToLower(strings.TrimSpace(m.Name))
		if key == "" {
			return fmt.Errorf("layout: menu item without a name")
		}
		if dishes[key] {
			return fmt.Errorf("layout: duplicate menu item %q", m.Name)
		}
		dishes[key] = true
		if m.Price < 0 {
			return fmt.Errorf("layout: menu item %q has a negative price", m.Name)
		}
	}
	for _, r := range l.RetiredSections {
		if names[strings.ToLower(strings.TrimSpace(r))] {
			return fmt.Errorf("layout: section %q is both defined and retired", r)
		}
	}
	return nil
}

// Retired merges the layout's retired sections with extra names, removing
// duplicates case-insensitively.  The result is sorted for stable logs.
func (l *Layout) Retired(extra ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range append(append([]string{}, l.RetiredSections...), extra...) {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ActiveSections returns the defined sections minus any named in retired.
func (l *Layout) ActiveSections(retired []string) []SectionSpec {
	drop := make(map[string]bool, len(retired))
	for _, r := range retired {
		drop[strings.ToLower(strings.TrimSpace(r))] = true
	}
	out := make([]SectionSpec, 0, len(l.Sections))
	for _, s := range l.Sections {
		if !drop[strings.ToLower(strings.TrimSpace(s.Name))] {
			out = append(out, s)
		}
	}
	return out
}
