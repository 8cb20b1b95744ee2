// Code generated by ent, DO NOT EDIT.

package extractjob

import (
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"
)

const (
	// Label holds the string label denoting the extractjob type in the database.
	Label = "extract_job"
	// FieldID holds the string denoting the id field in the database.
	FieldID = "id"
	// FieldFileID holds the string denoting the file_id field in the database.
	FieldFileID = "file_id"
	// FieldFormat holds the string denoting the format field in the database.
	FieldFormat = "format"
	// FieldStartedAt holds the string denoting the started_at field in the database.
	FieldStartedAt = "started_at"
	// FieldFinishedAt holds the string denoting the finished_at field in the database.
	FieldFinishedAt = "finished_at"
	// FieldStatus holds the string denoting the status field in the database.
	FieldStatus = "status"
	// FieldErrorMessage holds the string denoting the error_message field in the database.
	FieldErrorMessage = "error_message"
	// FieldStrategyUsed holds the string denoting the strategy_used field in the database.
	FieldStrategyUsed = "strategy_used"
	// FieldUsedRecognition holds the string denoting the used_recognition field in the database.
	FieldUsedRecognition = "used_recognition"
	// FieldEnhancementApplied holds the string denoting the enhancement_applied field in the database.
	FieldEnhancementApplied = "enhancement_applied"
	// FieldExtractedText holds the string denoting the extracted_text field in the database.
	FieldExtractedText = "extracted_text"
	// FieldTables holds the string denoting the tables field in the database.
	FieldTables = "tables"
	// FieldClassification holds the string denoting the classification field in the database.
	FieldClassification = "classification"
	// EdgeFile holds the string denoting the file edge name in mutations.
	EdgeFile = "file"
	// Table holds the table name of the extractjob in the database.
	Table = "extract_job"
	// FileTable is the table that holds the file relation/edge.
	FileTable = "extract_job"
	// FileInverseTable is the table name for the DocumentFile entity.
	// It exists in this package in order to avoid circular dependency with the "documentfile" package.
	FileInverseTable = "document_files"
	// FileColumn is the table column denoting the file relation/edge.
	FileColumn = "file_id"
)

// Columns holds all SQL columns for extractjob fields.
var Columns = []string{
	FieldID,
	FieldFileID,
	FieldFormat,
	FieldStartedAt,
	FieldFinishedAt,
	FieldStatus,
	FieldErrorMessage,
	FieldStrategyUsed,
	FieldUsedRecognition,
	FieldEnhancementApplied,
	FieldExtractedText,
	FieldTables,
	FieldClassification,
}

// ValidColumn reports if the column name is valid (part of the table columns).
func ValidColumn(column string) bool {
	for i := range Columns {
		if column == Columns[i] {
			return true
		}
	}
	return false
}

var (
	// FormatValidator is a validator for the "format" field. It is called by the builders before save.
	FormatValidator func(string) error
	// DefaultStartedAt holds the default value on creation for the "started_at" field.
	DefaultStartedAt func() time.Time
	// StatusValidator is a validator for the "status" field. It is called by the builders before save.
	StatusValidator func(string) error
	// DefaultUsedRecognition holds the default value on creation for the "used_recognition" field.
	DefaultUsedRecognition bool
	// DefaultEnhancementApplied holds the default value on creation for the "enhancement_applied" field.
	DefaultEnhancementApplied bool
	// DefaultID holds the default value on creation for the "id" field.
	DefaultID func() uuid.UUID
)

// OrderOption defines the ordering options for the ExtractJob queries.
type OrderOption func(*sql.Selector)

// ByID orders the results by the id field.
func ByID(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldID, opts...).ToFunc()
}

// ByFileID orders the results by the file_id field.
func ByFileID(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldFileID, opts...).ToFunc()
}

// ByFormat orders the results by the format field.
func ByFormat(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldFormat, opts...).ToFunc()
}

// ByStartedAt orders the results by the started_at field.
func ByStartedAt(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldStartedAt, opts...).ToFunc()
}

// ByFinishedAt orders the results by the finished_at field.
func ByFinishedAt(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldFinishedAt, opts...).ToFunc()
}

// ByStatus orders the results by the status field.
func ByStatus(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldStatus, opts...).ToFunc()
}

// ByErrorMessage orders the results by the error_message field.
func ByErrorMessage(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldErrorMessage, opts...).ToFunc()
}

// ByStrategyUsed orders the results by the strategy_used field.
func ByStrategyUsed(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldStrategyUsed, opts...).ToFunc()
}

// ByUsedRecognition orders the results by the used_recognition field.
func ByUsedRecognition(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldUsedRecognition, opts...).ToFunc()
}

// ByEnhancementApplied orders the results by the enhancement_applied field.
func ByEnhancementApplied(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldEnhancementApplied, opts...).ToFunc()
}

// ByExtractedText orders the results by the extracted_text field.
func ByExtractedText(opts ...sql.OrderTermOption) OrderOption {
	return sql.OrderByField(FieldExtractedText, opts...).ToFunc()
}

// ByFileField orders the results by file field.
func ByFileField(field string, opts ...sql.OrderTermOption) OrderOption {
	return func(s *sql.Selector) {
		sqlgraph.OrderByNeighborTerms(s, newFileStep(), sql.OrderByField(field, opts...))
	}
}
func newFileStep() *sqlgraph.Step {
	return sqlgraph.NewStep(
		sqlgraph.From(Table, FieldID),
		sqlgraph.To(FileInverseTable, FieldID),
		sqlgraph.Edge(sqlgraph.M2O, true, FileTable, FileColumn),
	)
}
