// Package provider holds what the provider sinks share: capability flags,
// array expansion, named arguments and the error types.
package provider

import "github.com/zoobzio/dbbind"

// ExpandArray expands values into sink with names the provider accepts. When
// caps requires letter-leading names the binder's underscore escaping is
// switched off for this call, so "ids" expands to ids0, ids1 and so on.
func ExpandArray(caps Capabilities, b *dbbind.Binder, sink dbbind.Sink, baseName string, values any) ([]string, error) {
	if caps.LetterLeadingNames {
		b = b.With(dbbind.WithArrayNameEscaping(false))
	}
	return b.ExpandArray(sink, baseName, values)
}

// Capabilities describes how a provider attaches parameters.
type Capabilities struct {
	Prefix          string // placeholder prefix for named parameters, e.g. "@"
	NamedParameters bool   // parameters are matched by name, not position
	TypedValues     bool   // db types are honoured by converting values

	// LetterLeadingNames is set when the driver only accepts names that start
	// with a letter, as database/sql does for sql.NamedArg. Array expansion
	// must then run without underscore escaping.
	LetterLeadingNames bool
}
