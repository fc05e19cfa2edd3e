package dbbind

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// Parameter is one named value destined for a database command.
//
// Identity is the sanitised original name: two parameters are Equal when
// their original names match, whatever their values and regardless of later
// renames. The effective name returned by Name may differ from the original
// after PrependUnderscore or Rename.
type Parameter struct {
	value        any
	originalName string
	name         string
	hash         uint64
}

// NewParameter creates a parameter. The name is sanitised to letters and
// digits only; an empty name, or one with no letters or digits, is an
// ErrInvalidArgument. When prependUnderscore is set the effective name is
// escaped with a leading underscore.
func NewParameter(name string, value any, prependUnderscore bool) (*Parameter, error) {
	if name == "" {
		return nil, invalidArgument("parameter name is required")
	}
	sanitized := sanitizeName(name)
	if sanitized == "" {
		return nil, invalidArgument("parameter name %q has no letters or digits", name)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(sanitized))

	p := &Parameter{
		originalName: sanitized,
		name:         sanitized,
		value:        value,
		hash:         h.Sum64(),
	}
	if prependUnderscore {
		p.PrependUnderscore()
	}
	return p, nil
}

// MustParameter is like NewParameter but panics on error.
func MustParameter(name string, value any, prependUnderscore bool) *Parameter {
	p, err := NewParameter(name, value, prependUnderscore)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the effective name used for binding.
func (p *Parameter) Name() string { return p.name }

// OriginalName returns the sanitised name the parameter was created with.
func (p *Parameter) OriginalName() string { return p.originalName }

// Value returns the bound value.
func (p *Parameter) Value() any { return p.value }

// PrependUnderscore ensures the effective name starts with "_". Calling it
// more than once has no further effect.
func (p *Parameter) PrependUnderscore() {
	if !strings.HasPrefix(p.name, "_") {
		p.name = "_" + p.name
	}
}

// Rename replaces the effective name. Identity is unaffected.
func (p *Parameter) Rename(name string) {
	p.name = name
}

// Hash returns the FNV-1a hash of the original name.
func (p *Parameter) Hash() uint64 { return p.hash }

// Equal reports whether p and other share the same original name.
func (p *Parameter) Equal(other *Parameter) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.originalName == other.originalName
}

// String renders "<name> (<value>)".
func (p *Parameter) String() string {
	return fmt.Sprintf("%s (%v)", p.name, p.value)
}

// Parameters is an ordered list of parameters.
type Parameters []*Parameter

// Names returns the effective names in order.
func (ps Parameters) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.name
	}
	return names
}

// Distinct drops parameters whose identity already appeared earlier in the
// list. The first occurrence wins.
func (ps Parameters) Distinct() Parameters {
	seen := make(map[string]struct{}, len(ps))
	out := make(Parameters, 0, len(ps))
	for _, p := range ps {
		if _, dup := seen[p.originalName]; dup {
			continue
		}
		seen[p.originalName] = struct{}{}
		out = append(out, p)
	}
	return out
}

// sanitizeName keeps only letters and digits.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
}
