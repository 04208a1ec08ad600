package ir

import (
	"fmt"
	"strings"
)

// MethodRef names a method on a class. Format: "Class.method".
type MethodRef string

// NewMethodRef joins a class and method name.
func NewMethodRef(class, method string) MethodRef {
	return MethodRef(class + "." + method)
}

// ParseMethodRef validates the "Class.method" form.
func ParseMethodRef(s string) (MethodRef, error) {
	class, method, ok := strings.Cut(s, ".")
	if !ok || class == "" || method == "" || strings.Contains(method, ".") {
		return "", fmt.Errorf("invalid method reference %q: want Class.method", s)
	}
	return MethodRef(s), nil
}

// Class returns the class part.
func (r MethodRef) Class() string {
	class, _, _ := strings.Cut(string(r), ".")
	return class
}

// Method returns the method part.
func (r MethodRef) Method() string {
	_, method, _ := strings.Cut(string(r), ".")
	return method
}
