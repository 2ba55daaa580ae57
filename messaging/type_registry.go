package messaging

import (
	"reflect"
)

// TypeNamer derives a type identifier from a payload type
type TypeNamer func(t reflect.Type) string

// TypeName names a type by its declared name, looking through one pointer.
// Both *OrderPlaced and OrderPlaced are named "OrderPlaced".
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// QualifiedTypeName is TypeName prefixed with the package path, for uniqueness
// across packages declaring the same type name
func QualifiedTypeName(t reflect.Type) string {
	name := TypeName(t)
	if name == "" {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + name
	}
	return name
}

// typeOf returns the reflect.Type of T, including interface and pointer types
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
