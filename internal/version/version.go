// Package version exposes the build version injected at link time.
package version

// value is overridden via -ldflags at release build time.
var value = "dev"

// Value returns the build version string.
func Value() string {
	return value
}
