// Package errors derives normalized error class names for metric tags.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"
)

// Classify returns a snake_case type name for the innermost error,
// suitable for tagging metrics and logs.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for unwrapped := goerrors.Unwrap(err); unwrapped != nil; unwrapped = goerrors.Unwrap(err) {
		err = unwrapped
	}

	return typeName(err)
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ReplaceAll(strings.ToLower(t.String()), "*", "")
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
