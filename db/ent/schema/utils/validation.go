// Package utils holds shared helpers for the ent schema definitions.
package utils

import "fmt"

// EnumValidator returns a field validator that accepts only the listed
// values. Used for the job status and file format columns, which mirror the
// string sets in the constants package.
func EnumValidator(allowed ...string) func(string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(s string) error {
		if _, ok := set[s]; ok {
			return nil
		}
		return fmt.Errorf("value %q is not allowed", s)
	}
}
