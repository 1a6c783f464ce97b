// Package keys maps sample names to document keys the store accepts.
//
// Document stores treat '.' in a key as a path separator, so every '.' is
// swapped for '£' on the way in and back on the way out. Documents written
// by earlier pipeline runs use the same substitute; changing it breaks
// reads of existing data.
package keys

import "strings"

const (
	Reserved   = "."
	Substitute = "£"
)

// IsSanitizable reports whether name survives a Sanitize/Desanitize round
// trip. A name already carrying the substitute would collide with the
// sanitized form of its dotted twin.
func IsSanitizable(name string) bool {
	return !strings.Contains(name, Substitute)
}

func Sanitize(name string) string {
	return strings.ReplaceAll(name, Reserved, Substitute)
}

func Desanitize(name string) string {
	return strings.ReplaceAll(name, Substitute, Reserved)
}

// SanitizeSamples returns a copy of samples with sanitized keys; positions
// are left untouched.
func SanitizeSamples(samples map[string]int) map[string]int {
	return remap(samples, Sanitize)
}

func DesanitizeSamples(samples map[string]int) map[string]int {
	return remap(samples, Desanitize)
}

func remap(samples map[string]int, fn func(string) string) map[string]int {
	out := make(map[string]int, len(samples))
	for name, position := range samples {
		out[fn(name)] = position
	}
	return out
}
