package provider

import "fmt"

// ConversionError indicates a value could not be converted to the database
// type requested for it.
type ConversionError struct {
	Provider  string
	Parameter string
	DbType    string
	Value     any
	Hint      string
}

func (e ConversionError) Error() string {
	msg := fmt.Sprintf("%s: cannot bind %s (%T) as %s", e.Provider, e.Parameter, e.Value, e.DbType)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// NewConversionError creates a conversion error.
func NewConversionError(provider, parameter, dbType string, value any, hint ...string) error {
	err := ConversionError{Provider: provider, Parameter: parameter, DbType: dbType, Value: value}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}

// NameError indicates a parameter name the driver will not accept.
type NameError struct {
	Provider  string
	Parameter string
	Reason    string
}

func (e NameError) Error() string {
	return fmt.Sprintf("%s: invalid parameter name %q: %s", e.Provider, e.Parameter, e.Reason)
}
