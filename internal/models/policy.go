package models

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// PolicyKind names a download policy rule.
type PolicyKind string

const (
	PolicyEverything       PolicyKind = "everything"
	PolicyNothing          PolicyKind = "nothing"
	PolicyNothingExcept    PolicyKind = "nothing_except"
	PolicyEverythingExcept PolicyKind = "everything_except"
)

// FilterKind names a key filter shape.
type FilterKind string

const (
	FilterExact  FilterKind = "exact"
	FilterPrefix FilterKind = "prefix"
)

var validPolicyKinds = map[PolicyKind]struct{}{
	PolicyEverything:       {},
	PolicyNothing:          {},
	PolicyNothingExcept:    {},
	PolicyEverythingExcept: {},
}

// Filter selects keys either exactly or by prefix.
type Filter struct {
	Kind FilterKind
	Key  string
}

// ParseFilter decodes the "exact:<key>" / "prefix:<key>" text form.
func ParseFilter(raw string) (Filter, error) {
	kind, key, ok := strings.Cut(raw, ":")
	if !ok {
		return Filter{}, fmt.Errorf("filter %q must be of the form exact:<key> or prefix:<key>", raw)
	}
	switch FilterKind(kind) {
	case FilterExact, FilterPrefix:
	default:
		return Filter{}, fmt.Errorf("unknown filter kind %q", kind)
	}
	if key == "" {
		return Filter{}, fmt.Errorf("filter %q has an empty key", raw)
	}
	return Filter{Kind: FilterKind(kind), Key: key}, nil
}

func (f Filter) String() string {
	return string(f.Kind) + ":" + f.Key
}

// Matches reports whether the filter selects the given key.
func (f Filter) Matches(key string) bool {
	if f.Kind == FilterExact {
		return key == f.Key
	}
	return strings.HasPrefix(key, f.Key)
}

// DownloadPolicy governs which remote entry contents a node fetches.
type DownloadPolicy struct {
	Kind    PolicyKind
	Filters []Filter
}

// DefaultDownloadPolicy downloads all content, matching a fresh document.
func DefaultDownloadPolicy() DownloadPolicy {
	return DownloadPolicy{Kind: PolicyEverything}
}

// Validate enforces the closed rule shapes: filters only accompany the
// except variants.
func (p DownloadPolicy) Validate() error {
	if _, ok := validPolicyKinds[p.Kind]; !ok {
		return fmt.Errorf("unknown policy %q", p.Kind)
	}
	if (p.Kind == PolicyEverything || p.Kind == PolicyNothing) && len(p.Filters) > 0 {
		return fmt.Errorf("policy %q does not take filters", p.Kind)
	}
	if (p.Kind == PolicyNothingExcept || p.Kind == PolicyEverythingExcept) && len(p.Filters) == 0 {
		return fmt.Errorf("policy %q requires at least one filter", p.Kind)
	}
	return nil
}

// ShouldDownload applies the policy to one entry key.
func (p DownloadPolicy) ShouldDownload(key string) bool {
	switch p.Kind {
	case PolicyNothing:
		return false
	case PolicyNothingExcept:
		return p.anyFilterMatches(key)
	case PolicyEverythingExcept:
		return !p.anyFilterMatches(key)
	default:
		return true
	}
}

func (p DownloadPolicy) anyFilterMatches(key string) bool {
	for _, f := range p.Filters {
		if f.Matches(key) {
			return true
		}
	}
	return false
}

type policyWire struct {
	Policy  string   `json:"policy"`
	Filters []string `json:"filters,omitempty"`
}

func (p DownloadPolicy) MarshalJSON() ([]byte, error) {
	wire := policyWire{Policy: string(p.Kind)}
	for _, f := range p.Filters {
		wire.Filters = append(wire.Filters, f.String())
	}
	return json.Marshal(wire)
}

func (p *DownloadPolicy) UnmarshalJSON(data []byte) error {
	var wire policyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("policy is not valid JSON: %w", err)
	}
	parsed := DownloadPolicy{Kind: PolicyKind(wire.Policy)}
	for _, raw := range wire.Filters {
		f, err := ParseFilter(raw)
		if err != nil {
			return err
		}
		parsed.Filters = append(parsed.Filters, f)
	}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*p = parsed
	return nil
}
