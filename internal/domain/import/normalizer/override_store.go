// Package normalizer provides the override store for operator merchant corrections.
package normalizer

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Match types supported by overrides.
const (
	MatchExact    = "exact"
	MatchContains = "contains"
	MatchRegex    = "regex"
)

// MerchantOverride forces a merchant (and optionally a category) for matching narrations.
type MerchantOverride struct {
	MatchPattern string `yaml:"pattern" json:"match_pattern"`
	MatchType    string `yaml:"match_type" json:"match_type"`
	MerchantName string `yaml:"merchant" json:"merchant_name"`
	Category     string `yaml:"category,omitempty" json:"category,omitempty"`
	Subcategory  string `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`

	re *regexp.Regexp
}

type overrideFile struct {
	Overrides []MerchantOverride `yaml:"overrides"`
}

// OverrideStore holds merchant overrides loaded from configuration.
// Overrides are evaluated in file order.
type OverrideStore struct {
	mu        sync.RWMutex
	overrides []MerchantOverride
}

// NewOverrideStore creates an empty override store
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{}
}

// LoadOverrides reads a YAML override file. An empty path yields an empty store.
func LoadOverrides(path string) (*OverrideStore, error) {
	store := NewOverrideStore()
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	if err := store.LoadYAML(data); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file %s: %w", path, err)
	}
	return store, nil
}

// LoadYAML replaces the store contents with the overrides in data.
func (s *OverrideStore) LoadYAML(data []byte) error {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	overrides := make([]MerchantOverride, 0, len(file.Overrides))
	for _, o := range file.Overrides {
		if err := o.compile(); err != nil {
			return err
		}
		overrides = append(overrides, o)
	}

	s.mu.Lock()
	s.overrides = overrides
	s.mu.Unlock()
	return nil
}

// SaveOverride appends an override after validating it.
func (s *OverrideStore) SaveOverride(override MerchantOverride) error {
	if err := override.compile(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, override)
	return nil
}

// Len returns the number of overrides.
func (s *OverrideStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overrides)
}

// Match returns the first override matching the description, or nil.
func (s *OverrideStore) Match(description string) *MerchantOverride {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	upper := strings.ToUpper(strings.TrimSpace(description))
	for i := range s.overrides {
		o := &s.overrides[i]
		if o.matches(upper) {
			match := *o
			return &match
		}
	}
	return nil
}

func (o *MerchantOverride) compile() error {
	if o.MatchPattern == "" || o.MerchantName == "" {
		return fmt.Errorf("override requires pattern and merchant")
	}
	if o.MatchType == "" {
		o.MatchType = MatchContains
	}
	switch o.MatchType {
	case MatchExact, MatchContains:
		o.MatchPattern = strings.ToUpper(strings.TrimSpace(o.MatchPattern))
	case MatchRegex:
		re, err := regexp.Compile("(?i)" + o.MatchPattern)
		if err != nil {
			return fmt.Errorf("invalid override regex %q: %w", o.MatchPattern, err)
		}
		o.re = re
	default:
		return fmt.Errorf("unknown override match type %q", o.MatchType)
	}
	return nil
}

func (o *MerchantOverride) matches(upper string) bool {
	switch o.MatchType {
	case MatchExact:
		return upper == o.MatchPattern
	case MatchContains:
		return strings.Contains(upper, o.MatchPattern)
	case MatchRegex:
		return o.re != nil && o.re.MatchString(upper)
	}
	return false
}
