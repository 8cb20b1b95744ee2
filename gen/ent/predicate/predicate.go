// Code generated by ent, DO NOT EDIT.

package predicate

import (
	"entgo.io/ent/dialect/sql"
)

// DocumentFile is the predicate function for documentfile builders.
type DocumentFile func(*sql.Selector)

// ExtractJob is the predicate function for extractjob builders.
type ExtractJob func(*sql.Selector)
