/*
catalog.go - Static leave policy catalog

PURPOSE:
  Holds the leave type definitions (code, day cap, documentation flag,
  display metadata). The catalog is read-only process-wide state: it is
  parsed once from the embedded leave_types.yaml and never mutated.

LOOKUP RULES:
  Lookup(code) is strict. An unknown code is an error (ErrUnknownLeaveType),
  never a permissive default cap.

  Resolve(codeOrLabel) additionally matches the display name. It is only
  used to label records that came back from the backend, never to validate.

EXAMPLE:
  def, err := leave.DefaultCatalog().Lookup("SICK")
  // def.MaxDays == 7

SEE ALSO:
  - leave_types.yaml: The default catalog content
  - validator.go: Uses Lookup
*/
package leave

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed leave_types.yaml
var defaultCatalogYAML []byte

// Catalog is an ordered, immutable set of leave type definitions.
type Catalog struct {
	entries []LeaveTypeDefinition
	byCode  map[string]int
	byLabel map[string]int
}

type catalogFile struct {
	LeaveTypes []LeaveTypeDefinition `yaml:"leave_types"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog. It is parsed on first use;
// the embedded file is part of the build, so a parse failure is a
// programming error and panics.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("leave: embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return NewCatalog(f.LeaveTypes)
}

// NewCatalog validates and indexes the given definitions.
// Codes must be unique and non-empty, and every cap must be positive.
func NewCatalog(defs []LeaveTypeDefinition) (*Catalog, error) {
	c := &Catalog{
		entries: make([]LeaveTypeDefinition, 0, len(defs)),
		byCode:  make(map[string]int, len(defs)),
		byLabel: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.Code == "" {
			return nil, fmt.Errorf("leave type %q has no code", d.DisplayName)
		}
		if d.MaxDays <= 0 {
			return nil, fmt.Errorf("leave type %s: max days must be positive, got %d", d.Code, d.MaxDays)
		}
		if _, dup := c.byCode[d.Code]; dup {
			return nil, fmt.Errorf("duplicate leave type code %s", d.Code)
		}
		c.byCode[d.Code] = len(c.entries)
		if d.DisplayName != "" {
			if _, seen := c.byLabel[d.DisplayName]; !seen {
				c.byLabel[d.DisplayName] = len(c.entries)
			}
		}
		c.entries = append(c.entries, d)
	}
	return c, nil
}

// Lookup returns the definition for code, or a *ValidationError of kind
// KindUnknownLeaveType.
func (c *Catalog) Lookup(code string) (LeaveTypeDefinition, error) {
	i, ok := c.byCode[code]
	if !ok {
		return LeaveTypeDefinition{}, &ValidationError{Kind: KindUnknownLeaveType, LeaveType: code}
	}
	return c.entries[i], nil
}

// Resolve matches by code first, then by display name.
func (c *Catalog) Resolve(codeOrLabel string) (LeaveTypeDefinition, bool) {
	if i, ok := c.byCode[codeOrLabel]; ok {
		return c.entries[i], true
	}
	if i, ok := c.byLabel[codeOrLabel]; ok {
		return c.entries[i], true
	}
	return LeaveTypeDefinition{}, false
}

// All returns a copy of the definitions in catalog order.
func (c *Catalog) All() []LeaveTypeDefinition {
	out := make([]LeaveTypeDefinition, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Len() int { return len(c.entries) }
