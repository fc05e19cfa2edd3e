package dbbind

import "reflect"

// CommandParameter wraps a bag value with the model type it belongs to, so
// the binder can resolve the database type from that model's field rather
// than from the runtime type of the value. The field is found by the bag key.
type CommandParameter struct {
	Value    any
	MappedTo reflect.Type
}

// NewCommandParameter wraps value as a field of mappedTo.
func NewCommandParameter(value any, mappedTo reflect.Type) CommandParameter {
	return CommandParameter{Value: value, MappedTo: mappedTo}
}

// For wraps value as a field of struct type T.
func For[T any](value any) CommandParameter {
	return CommandParameter{Value: value, MappedTo: reflect.TypeOf((*T)(nil)).Elem()}
}

// PropertyValue is one element of an explicit parameter list produced by an
// upstream mapper. Field may be nil. A specified DbType overrides the field's
// declared type.
type PropertyValue struct {
	Value  any
	Field  *FieldDescriptor
	Name   string
	DbType DbType
}

// PropertyValues is an explicit parameter list, bound in order.
type PropertyValues []PropertyValue
