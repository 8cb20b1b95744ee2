// Code generated by ent, DO NOT EDIT.

package ent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/google/uuid"
)

// ExtractJob is the model entity for the ExtractJob schema.
type ExtractJob struct {
	config `json:"-"`
	// ID of the ent.
	ID uuid.UUID `json:"id,omitempty"`
	// FileID holds the value of the "file_id" field.
	FileID uuid.UUID `json:"file_id,omitempty"`
	// Format holds the value of the "format" field.
	Format string `json:"format,omitempty"`
	// StartedAt holds the value of the "started_at" field.
	StartedAt time.Time `json:"started_at,omitempty"`
	// FinishedAt holds the value of the "finished_at" field.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	// Status holds the value of the "status" field.
	Status *string `json:"status,omitempty"`
	// ErrorMessage holds the value of the "error_message" field.
	ErrorMessage *string `json:"error_message,omitempty"`
	// StrategyUsed holds the value of the "strategy_used" field.
	StrategyUsed *string `json:"strategy_used,omitempty"`
	// UsedRecognition holds the value of the "used_recognition" field.
	UsedRecognition bool `json:"used_recognition,omitempty"`
	// EnhancementApplied holds the value of the "enhancement_applied" field.
	EnhancementApplied bool `json:"enhancement_applied,omitempty"`
	// ExtractedText holds the value of the "extracted_text" field.
	ExtractedText *string `json:"extracted_text,omitempty"`
	// Tables holds the value of the "tables" field.
	Tables json.RawMessage `json:"tables,omitempty"`
	// Classification holds the value of the "classification" field.
	Classification json.RawMessage `json:"classification,omitempty"`
	// Edges holds the relations/edges for other nodes in the graph.
	// The values are being populated by the ExtractJobQuery when eager-loading is set.
	Edges        ExtractJobEdges `json:"edges"`
	selectValues sql.SelectValues
}

// ExtractJobEdges holds the relations/edges for other nodes in the graph.
type ExtractJobEdges struct {
	// File holds the value of the file edge.
	File *DocumentFile `json:"file,omitempty"`
	// loadedTypes holds the information for reporting if a
	// type was loaded (or requested) in eager-loading or not.
	loadedTypes [1]bool
}

// FileOrErr returns the File value or an error if the edge
// was not loaded in eager-loading, or loaded but was not found.
func (e ExtractJobEdges) FileOrErr() (*DocumentFile, error) {
	if e.File != nil {
		return e.File, nil
	} else if e.loadedTypes[0] {
		return nil, &NotFoundError{label: documentfile.Label}
	}
	return nil, &NotLoadedError{edge: "file"}
}

// scanValues returns the types for scanning values from sql.Rows.
func (*ExtractJob) scanValues(columns []string) ([]any, error) {
	values := make([]any, len(columns))
	for i := range columns {
		switch columns[i] {
		case extractjob.FieldTables, extractjob.FieldClassification:
			values[i] = new([]byte)
		case extractjob.FieldUsedRecognition, extractjob.FieldEnhancementApplied:
			values[i] = new(sql.NullBool)
		case extractjob.FieldFormat, extractjob.FieldStatus, extractjob.FieldErrorMessage, extractjob.FieldStrategyUsed, extractjob.FieldExtractedText:
			values[i] = new(sql.NullString)
		case extractjob.FieldStartedAt, extractjob.FieldFinishedAt:
			values[i] = new(sql.NullTime)
		case extractjob.FieldID, extractjob.FieldFileID:
			values[i] = new(uuid.UUID)
		default:
			values[i] = new(sql.UnknownType)
		}
	}
	return values, nil
}

// assignValues assigns the values that were returned from sql.Rows (after scanning)
// to the ExtractJob fields.
func (_m *ExtractJob) assignValues(columns []string, values []any) error {
	if m, n := len(values), len(columns); m < n {
		return fmt.Errorf("mismatch number of scan values: %d != %d", m, n)
	}
	for i := range columns {
		switch columns[i] {
		case extractjob.FieldID:
			if value, ok := values[i].(*uuid.UUID); !ok {
				return fmt.Errorf("unexpected type %T for field id", values[i])
			} else if value != nil {
				_m.ID = *value
			}
		case extractjob.FieldFileID:
			if value, ok := values[i].(*uuid.UUID); !ok {
				return fmt.Errorf("unexpected type %T for field file_id", values[i])
			} else if value != nil {
				_m.FileID = *value
			}
		case extractjob.FieldFormat:
			if value, ok := values[i].(*sql.NullString); !ok {
				return fmt.Errorf("unexpected type %T for field format", values[i])
			} else if value.Valid {
				_m.Format = value.String
			}
		case extractjob.FieldStartedAt:
			if value, ok := values[i].(*sql.NullTime); !ok {
				return fmt.Errorf("unexpected type %T for field started_at", values[i])
			} else if value.Valid {
				_m.StartedAt = value.Time
			}
		case extractjob.FieldFinishedAt:
			if value, ok := values[i].(*sql.NullTime); !ok {
				return fmt.Errorf("unexpected type %T for field finished_at", values[i])
			} else if value.Valid {
				_m.FinishedAt = new(time.Time)
				*_m.FinishedAt = value.Time
			}
		case extractjob.FieldStatus:
			if value, ok := values[i].(*sql.NullString); !ok {
				return fmt.Errorf("unexpected type %T for field status", values[i])
			} else if value.Valid {
				_m.Status = new(string)
				*_m.Status = value.String
			}
		case extractjob.FieldErrorMessage:
			if value, ok := values[i].(*sql.NullString); !ok {
				return fmt.Errorf("unexpected type %T for field error_message", values[i])
			} else if value.Valid {
				_m.ErrorMessage = new(string)
				*_m.ErrorMessage = value.String
			}
		case extractjob.FieldStrategyUsed:
			if value, ok := values[i].(*sql.NullString); !ok {
				return fmt.Errorf("unexpected type %T for field strategy_used", values[i])
			} else if value.Valid {
				_m.StrategyUsed = new(string)
				*_m.StrategyUsed = value.String
			}
		case extractjob.FieldUsedRecognition:
			if value, ok := values[i].(*sql.NullBool); !ok {
				return fmt.Errorf("unexpected type %T for field used_recognition", values[i])
			} else if value.Valid {
				_m.UsedRecognition = value.Bool
			}
		case extractjob.FieldEnhancementApplied:
			if value, ok := values[i].(*sql.NullBool); !ok {
				return fmt.Errorf("unexpected type %T for field enhancement_applied", values[i])
			} else if value.Valid {
				_m.EnhancementApplied = value.Bool
			}
		case extractjob.FieldExtractedText:
			if value, ok := values[i].(*sql.NullString); !ok {
				return fmt.Errorf("unexpected type %T for field extracted_text", values[i])
			} else if value.Valid {
				_m.ExtractedText = new(string)
				*_m.ExtractedText = value.String
			}
		case extractjob.FieldTables:
			if value, ok := values[i].(*[]byte); !ok {
				return fmt.Errorf("unexpected type %T for field tables", values[i])
			} else if value != nil && len(*value) > 0 {
				if err := json.Unmarshal(*value, &_m.Tables); err != nil {
					return fmt.Errorf("unmarshal field tables: %w", err)
				}
			}
		case extractjob.FieldClassification:
			if value, ok := values[i].(*[]byte); !ok {
				return fmt.Errorf("unexpected type %T for field classification", values[i])
			} else if value != nil && len(*value) > 0 {
				if err := json.Unmarshal(*value, &_m.Classification); err != nil {
					return fmt.Errorf("unmarshal field classification: %w", err)
				}
			}
		default:
			_m.selectValues.Set(columns[i], values[i])
		}
	}
	return nil
}

// Value returns the ent.Value that was dynamically selected and assigned to the ExtractJob.
// This includes values selected through modifiers, order, etc.
func (_m *ExtractJob) Value(name string) (ent.Value, error) {
	return _m.selectValues.Get(name)
}

// QueryFile queries the "file" edge of the ExtractJob entity.
func (_m *ExtractJob) QueryFile() *DocumentFileQuery {
	return NewExtractJobClient(_m.config).QueryFile(_m)
}

// Update returns a builder for updating this ExtractJob.
// Note that you need to call ExtractJob.Unwrap() before calling this method if this ExtractJob
// was returned from a transaction, and the transaction was committed or rolled back.
func (_m *ExtractJob) Update() *ExtractJobUpdateOne {
	return NewExtractJobClient(_m.config).UpdateOne(_m)
}

// Unwrap unwraps the ExtractJob entity that was returned from a transaction after it was closed,
// so that all future queries will be executed through the driver which created the transaction.
func (_m *ExtractJob) Unwrap() *ExtractJob {
	_tx, ok := _m.config.driver.(*txDriver)
	if !ok {
		panic("ent: ExtractJob is not a transactional entity")
	}
	_m.config.driver = _tx.drv
	return _m
}

// String implements the fmt.Stringer.
func (_m *ExtractJob) String() string {
	var builder strings.Builder
	builder.WriteString("ExtractJob(")
	builder.WriteString(fmt.Sprintf("id=%v, ", _m.ID))
	builder.WriteString("file_id=")
	builder.WriteString(fmt.Sprintf("%v", _m.FileID))
	builder.WriteString(", ")
	builder.WriteString("format=")
	builder.WriteString(_m.Format)
	builder.WriteString(", ")
	builder.WriteString("started_at=")
	builder.WriteString(_m.StartedAt.Format(time.ANSIC))
	builder.WriteString(", ")
	if v := _m.FinishedAt; v != nil {
		builder.WriteString("finished_at=")
		builder.WriteString(v.Format(time.ANSIC))
	}
	builder.WriteString(", ")
	if v := _m.Status; v != nil {
		builder.WriteString("status=")
		builder.WriteString(*v)
	}
	builder.WriteString(", ")
	if v := _m.ErrorMessage; v != nil {
		builder.WriteString("error_message=")
		builder.WriteString(*v)
	}
	builder.WriteString(", ")
	if v := _m.StrategyUsed; v != nil {
		builder.WriteString("strategy_used=")
		builder.WriteString(*v)
	}
	builder.WriteString(", ")
	builder.WriteString("used_recognition=")
	builder.WriteString(fmt.Sprintf("%v", _m.UsedRecognition))
	builder.WriteString(", ")
	builder.WriteString("enhancement_applied=")
	builder.WriteString(fmt.Sprintf("%v", _m.EnhancementApplied))
	builder.WriteString(", ")
	if v := _m.ExtractedText; v != nil {
		builder.WriteString("extracted_text=")
		builder.WriteString(*v)
	}
	builder.WriteString(", ")
	builder.WriteString("tables=")
	builder.WriteString(fmt.Sprintf("%v", _m.Tables))
	builder.WriteString(", ")
	builder.WriteString("classification=")
	builder.WriteString(fmt.Sprintf("%v", _m.Classification))
	builder.WriteByte(')')
	return builder.String()
}

// ExtractJobs is a parsable slice of ExtractJob.
type ExtractJobs []*ExtractJob
