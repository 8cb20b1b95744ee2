// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"entgo.io/ent/dialect/sql/sqljson"
	"entgo.io/ent/schema/field"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/enerdoc/docingest/gen/ent/predicate"
	"github.com/google/uuid"
)

// ExtractJobUpdate is the builder for updating ExtractJob entities.
type ExtractJobUpdate struct {
	config
	hooks    []Hook
	mutation *ExtractJobMutation
}

// Where appends a list predicates to the ExtractJobUpdate builder.
func (_u *ExtractJobUpdate) Where(ps ...predicate.ExtractJob) *ExtractJobUpdate {
	_u.mutation.Where(ps...)
	return _u
}

// SetFileID sets the "file_id" field.
func (_u *ExtractJobUpdate) SetFileID(v uuid.UUID) *ExtractJobUpdate {
	_u.mutation.SetFileID(v)
	return _u
}

// SetNillableFileID sets the "file_id" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableFileID(v *uuid.UUID) *ExtractJobUpdate {
	if v != nil {
		_u.SetFileID(*v)
	}
	return _u
}

// SetFormat sets the "format" field.
func (_u *ExtractJobUpdate) SetFormat(v string) *ExtractJobUpdate {
	_u.mutation.SetFormat(v)
	return _u
}

// SetNillableFormat sets the "format" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableFormat(v *string) *ExtractJobUpdate {
	if v != nil {
		_u.SetFormat(*v)
	}
	return _u
}

// SetStartedAt sets the "started_at" field.
func (_u *ExtractJobUpdate) SetStartedAt(v time.Time) *ExtractJobUpdate {
	_u.mutation.SetStartedAt(v)
	return _u
}

// SetNillableStartedAt sets the "started_at" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableStartedAt(v *time.Time) *ExtractJobUpdate {
	if v != nil {
		_u.SetStartedAt(*v)
	}
	return _u
}

// SetFinishedAt sets the "finished_at" field.
func (_u *ExtractJobUpdate) SetFinishedAt(v time.Time) *ExtractJobUpdate {
	_u.mutation.SetFinishedAt(v)
	return _u
}

// SetNillableFinishedAt sets the "finished_at" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableFinishedAt(v *time.Time) *ExtractJobUpdate {
	if v != nil {
		_u.SetFinishedAt(*v)
	}
	return _u
}

// ClearFinishedAt clears the value of the "finished_at" field.
func (_u *ExtractJobUpdate) ClearFinishedAt() *ExtractJobUpdate {
	_u.mutation.ClearFinishedAt()
	return _u
}

// SetStatus sets the "status" field.
func (_u *ExtractJobUpdate) SetStatus(v string) *ExtractJobUpdate {
	_u.mutation.SetStatus(v)
	return _u
}

// SetNillableStatus sets the "status" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableStatus(v *string) *ExtractJobUpdate {
	if v != nil {
		_u.SetStatus(*v)
	}
	return _u
}

// ClearStatus clears the value of the "status" field.
func (_u *ExtractJobUpdate) ClearStatus() *ExtractJobUpdate {
	_u.mutation.ClearStatus()
	return _u
}

// SetErrorMessage sets the "error_message" field.
func (_u *ExtractJobUpdate) SetErrorMessage(v string) *ExtractJobUpdate {
	_u.mutation.SetErrorMessage(v)
	return _u
}

// SetNillableErrorMessage sets the "error_message" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableErrorMessage(v *string) *ExtractJobUpdate {
	if v != nil {
		_u.SetErrorMessage(*v)
	}
	return _u
}

// ClearErrorMessage clears the value of the "error_message" field.
func (_u *ExtractJobUpdate) ClearErrorMessage() *ExtractJobUpdate {
	_u.mutation.ClearErrorMessage()
	return _u
}

// SetStrategyUsed sets the "strategy_used" field.
func (_u *ExtractJobUpdate) SetStrategyUsed(v string) *ExtractJobUpdate {
	_u.mutation.SetStrategyUsed(v)
	return _u
}

// SetNillableStrategyUsed sets the "strategy_used" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableStrategyUsed(v *string) *ExtractJobUpdate {
	if v != nil {
		_u.SetStrategyUsed(*v)
	}
	return _u
}

// ClearStrategyUsed clears the value of the "strategy_used" field.
func (_u *ExtractJobUpdate) ClearStrategyUsed() *ExtractJobUpdate {
	_u.mutation.ClearStrategyUsed()
	return _u
}

// SetUsedRecognition sets the "used_recognition" field.
func (_u *ExtractJobUpdate) SetUsedRecognition(v bool) *ExtractJobUpdate {
	_u.mutation.SetUsedRecognition(v)
	return _u
}

// SetNillableUsedRecognition sets the "used_recognition" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableUsedRecognition(v *bool) *ExtractJobUpdate {
	if v != nil {
		_u.SetUsedRecognition(*v)
	}
	return _u
}

// SetEnhancementApplied sets the "enhancement_applied" field.
func (_u *ExtractJobUpdate) SetEnhancementApplied(v bool) *ExtractJobUpdate {
	_u.mutation.SetEnhancementApplied(v)
	return _u
}

// SetNillableEnhancementApplied sets the "enhancement_applied" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableEnhancementApplied(v *bool) *ExtractJobUpdate {
	if v != nil {
		_u.SetEnhancementApplied(*v)
	}
	return _u
}

// SetExtractedText sets the "extracted_text" field.
func (_u *ExtractJobUpdate) SetExtractedText(v string) *ExtractJobUpdate {
	_u.mutation.SetExtractedText(v)
	return _u
}

// SetNillableExtractedText sets the "extracted_text" field if the given value is not nil.
func (_u *ExtractJobUpdate) SetNillableExtractedText(v *string) *ExtractJobUpdate {
	if v != nil {
		_u.SetExtractedText(*v)
	}
	return _u
}

// ClearExtractedText clears the value of the "extracted_text" field.
func (_u *ExtractJobUpdate) ClearExtractedText() *ExtractJobUpdate {
	_u.mutation.ClearExtractedText()
	return _u
}

// SetTables sets the "tables" field.
func (_u *ExtractJobUpdate) SetTables(v json.RawMessage) *ExtractJobUpdate {
	_u.mutation.SetTables(v)
	return _u
}

// AppendTables appends value to the "tables" field.
func (_u *ExtractJobUpdate) AppendTables(v json.RawMessage) *ExtractJobUpdate {
	_u.mutation.AppendTables(v)
	return _u
}

// ClearTables clears the value of the "tables" field.
func (_u *ExtractJobUpdate) ClearTables() *ExtractJobUpdate {
	_u.mutation.ClearTables()
	return _u
}

// SetClassification sets the "classification" field.
func (_u *ExtractJobUpdate) SetClassification(v json.RawMessage) *ExtractJobUpdate {
	_u.mutation.SetClassification(v)
	return _u
}

// AppendClassification appends value to the "classification" field.
func (_u *ExtractJobUpdate) AppendClassification(v json.RawMessage) *ExtractJobUpdate {
	_u.mutation.AppendClassification(v)
	return _u
}

// ClearClassification clears the value of the "classification" field.
func (_u *ExtractJobUpdate) ClearClassification() *ExtractJobUpdate {
	_u.mutation.ClearClassification()
	return _u
}

// SetFile sets the "file" edge to the DocumentFile entity.
func (_u *ExtractJobUpdate) SetFile(v *DocumentFile) *ExtractJobUpdate {
	return _u.SetFileID(v.ID)
}

// Mutation returns the ExtractJobMutation object of the builder.
func (_u *ExtractJobUpdate) Mutation() *ExtractJobMutation {
	return _u.mutation
}

// ClearFile clears the "file" edge to the DocumentFile entity.
func (_u *ExtractJobUpdate) ClearFile() *ExtractJobUpdate {
	_u.mutation.ClearFile()
	return _u
}

// Save executes the query and returns the number of nodes affected by the update operation.
func (_u *ExtractJobUpdate) Save(ctx context.Context) (int, error) {
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *ExtractJobUpdate) SaveX(ctx context.Context) int {
	affected, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return affected
}

// Exec executes the query.
func (_u *ExtractJobUpdate) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *ExtractJobUpdate) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_u *ExtractJobUpdate) check() error {
	if v, ok := _u.mutation.Format(); ok {
		if err := extractjob.FormatValidator(v); err != nil {
			return &ValidationError{Name: "format", err: fmt.Errorf(`ent: validator failed for field "ExtractJob.format": %w`, err)}
		}
	}
	if v, ok := _u.mutation.Status(); ok {
		if err := extractjob.StatusValidator(v); err != nil {
			return &ValidationError{Name: "status", err: fmt.Errorf(`ent: validator failed for field "ExtractJob.status": %w`, err)}
		}
	}
	if _u.mutation.FileCleared() && len(_u.mutation.FileIDs()) > 0 {
		return errors.New(`ent: clearing a required unique edge "ExtractJob.file"`)
	}
	return nil
}

func (_u *ExtractJobUpdate) sqlSave(ctx context.Context) (_node int, err error) {
	if err := _u.check(); err != nil {
		return _node, err
	}
	_spec := sqlgraph.NewUpdateSpec(extractjob.Table, extractjob.Columns, sqlgraph.NewFieldSpec(extractjob.FieldID, field.TypeUUID))
	if ps := _u.mutation.predicates; len(ps) > 0 {
		_spec.Predicate = func(selector *sql.Selector) {
			for i := range ps {
				ps[i](selector)
			}
		}
	}
	if value, ok := _u.mutation.Format(); ok {
		_spec.SetField(extractjob.FieldFormat, field.TypeString, value)
	}
	if value, ok := _u.mutation.StartedAt(); ok {
		_spec.SetField(extractjob.FieldStartedAt, field.TypeTime, value)
	}
	if value, ok := _u.mutation.FinishedAt(); ok {
		_spec.SetField(extractjob.FieldFinishedAt, field.TypeTime, value)
	}
	if _u.mutation.FinishedAtCleared() {
		_spec.ClearField(extractjob.FieldFinishedAt, field.TypeTime)
	}
	if value, ok := _u.mutation.Status(); ok {
		_spec.SetField(extractjob.FieldStatus, field.TypeString, value)
	}
	if _u.mutation.StatusCleared() {
		_spec.ClearField(extractjob.FieldStatus, field.TypeString)
	}
	if value, ok := _u.mutation.ErrorMessage(); ok {
		_spec.SetField(extractjob.FieldErrorMessage, field.TypeString, value)
	}
	if _u.mutation.ErrorMessageCleared() {
		_spec.ClearField(extractjob.FieldErrorMessage, field.TypeString)
	}
	if value, ok := _u.mutation.StrategyUsed(); ok {
		_spec.SetField(extractjob.FieldStrategyUsed, field.TypeString, value)
	}
	if _u.mutation.StrategyUsedCleared() {
		_spec.ClearField(extractjob.FieldStrategyUsed, field.TypeString)
	}
	if value, ok := _u.mutation.UsedRecognition(); ok {
		_spec.SetField(extractjob.FieldUsedRecognition, field.TypeBool, value)
	}
	if value, ok := _u.mutation.EnhancementApplied(); ok {
		_spec.SetField(extractjob.FieldEnhancementApplied, field.TypeBool, value)
	}
	if value, ok := _u.mutation.ExtractedText(); ok {
		_spec.SetField(extractjob.FieldExtractedText, field.TypeString, value)
	}
	if _u.mutation.ExtractedTextCleared() {
		_spec.ClearField(extractjob.FieldExtractedText, field.TypeString)
	}
	if value, ok := _u.mutation.Tables(); ok {
		_spec.SetField(extractjob.FieldTables, field.TypeJSON, value)
	}
	if value, ok := _u.mutation.AppendedTables(); ok {
		_spec.AddModifier(func(u *sql.UpdateBuilder) {
			sqljson.Append(u, extractjob.FieldTables, value)
		})
	}
	if _u.mutation.TablesCleared() {
		_spec.ClearField(extractjob.FieldTables, field.TypeJSON)
	}
	if value, ok := _u.mutation.Classification(); ok {
		_spec.SetField(extractjob.FieldClassification, field.TypeJSON, value)
	}
	if value, ok := _u.mutation.AppendedClassification(); ok {
		_spec.AddModifier(func(u *sql.UpdateBuilder) {
			sqljson.Append(u, extractjob.FieldClassification, value)
		})
	}
	if _u.mutation.ClassificationCleared() {
		_spec.ClearField(extractjob.FieldClassification, field.TypeJSON)
	}
	if _u.mutation.FileCleared() {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   extractjob.FileTable,
			Columns: []string{extractjob.FileColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID),
			},
		}
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.FileIDs(); len(nodes) > 0 {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   extractjob.FileTable,
			Columns: []string{extractjob.FileColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID),
			},
		}
		for _, k := range nodes {
			edge.Target.Nodes = append(edge.Target.Nodes, k)
		}
		_spec.Edges.Add = append(_spec.Edges.Add, edge)
	}
	if _node, err = sqlgraph.UpdateNodes(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{extractjob.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return 0, err
	}
	_u.mutation.done = true
	return _node, nil
}

// ExtractJobUpdateOne is the builder for updating a single ExtractJob entity.
type ExtractJobUpdateOne struct {
	config
	fields   []string
	hooks    []Hook
	mutation *ExtractJobMutation
}

// SetFileID sets the "file_id" field.
func (_u *ExtractJobUpdateOne) SetFileID(v uuid.UUID) *ExtractJobUpdateOne {
	_u.mutation.SetFileID(v)
	return _u
}

// SetNillableFileID sets the "file_id" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableFileID(v *uuid.UUID) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetFileID(*v)
	}
	return _u
}

// SetFormat sets the "format" field.
func (_u *ExtractJobUpdateOne) SetFormat(v string) *ExtractJobUpdateOne {
	_u.mutation.SetFormat(v)
	return _u
}

// SetNillableFormat sets the "format" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableFormat(v *string) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetFormat(*v)
	}
	return _u
}

// SetStartedAt sets the "started_at" field.
func (_u *ExtractJobUpdateOne) SetStartedAt(v time.Time) *ExtractJobUpdateOne {
	_u.mutation.SetStartedAt(v)
	return _u
}

// SetNillableStartedAt sets the "started_at" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableStartedAt(v *time.Time) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetStartedAt(*v)
	}
	return _u
}

// SetFinishedAt sets the "finished_at" field.
func (_u *ExtractJobUpdateOne) SetFinishedAt(v time.Time) *ExtractJobUpdateOne {
	_u.mutation.SetFinishedAt(v)
	return _u
}

// SetNillableFinishedAt sets the "finished_at" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableFinishedAt(v *time.Time) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetFinishedAt(*v)
	}
	return _u
}

// ClearFinishedAt clears the value of the "finished_at" field.
func (_u *ExtractJobUpdateOne) ClearFinishedAt() *ExtractJobUpdateOne {
	_u.mutation.ClearFinishedAt()
	return _u
}

// SetStatus sets the "status" field.
func (_u *ExtractJobUpdateOne) SetStatus(v string) *ExtractJobUpdateOne {
	_u.mutation.SetStatus(v)
	return _u
}

// SetNillableStatus sets the "status" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableStatus(v *string) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetStatus(*v)
	}
	return _u
}

// ClearStatus clears the value of the "status" field.
func (_u *ExtractJobUpdateOne) ClearStatus() *ExtractJobUpdateOne {
	_u.mutation.ClearStatus()
	return _u
}

// SetErrorMessage sets the "error_message" field.
func (_u *ExtractJobUpdateOne) SetErrorMessage(v string) *ExtractJobUpdateOne {
	_u.mutation.SetErrorMessage(v)
	return _u
}

// SetNillableErrorMessage sets the "error_message" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableErrorMessage(v *string) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetErrorMessage(*v)
	}
	return _u
}

// ClearErrorMessage clears the value of the "error_message" field.
func (_u *ExtractJobUpdateOne) ClearErrorMessage() *ExtractJobUpdateOne {
	_u.mutation.ClearErrorMessage()
	return _u
}

// SetStrategyUsed sets the "strategy_used" field.
func (_u *ExtractJobUpdateOne) SetStrategyUsed(v string) *ExtractJobUpdateOne {
	_u.mutation.SetStrategyUsed(v)
	return _u
}

// SetNillableStrategyUsed sets the "strategy_used" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableStrategyUsed(v *string) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetStrategyUsed(*v)
	}
	return _u
}

// ClearStrategyUsed clears the value of the "strategy_used" field.
func (_u *ExtractJobUpdateOne) ClearStrategyUsed() *ExtractJobUpdateOne {
	_u.mutation.ClearStrategyUsed()
	return _u
}

// SetUsedRecognition sets the "used_recognition" field.
func (_u *ExtractJobUpdateOne) SetUsedRecognition(v bool) *ExtractJobUpdateOne {
	_u.mutation.SetUsedRecognition(v)
	return _u
}

// SetNillableUsedRecognition sets the "used_recognition" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableUsedRecognition(v *bool) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetUsedRecognition(*v)
	}
	return _u
}

// SetEnhancementApplied sets the "enhancement_applied" field.
func (_u *ExtractJobUpdateOne) SetEnhancementApplied(v bool) *ExtractJobUpdateOne {
	_u.mutation.SetEnhancementApplied(v)
	return _u
}

// SetNillableEnhancementApplied sets the "enhancement_applied" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableEnhancementApplied(v *bool) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetEnhancementApplied(*v)
	}
	return _u
}

// SetExtractedText sets the "extracted_text" field.
func (_u *ExtractJobUpdateOne) SetExtractedText(v string) *ExtractJobUpdateOne {
	_u.mutation.SetExtractedText(v)
	return _u
}

// SetNillableExtractedText sets the "extracted_text" field if the given value is not nil.
func (_u *ExtractJobUpdateOne) SetNillableExtractedText(v *string) *ExtractJobUpdateOne {
	if v != nil {
		_u.SetExtractedText(*v)
	}
	return _u
}

// ClearExtractedText clears the value of the "extracted_text" field.
func (_u *ExtractJobUpdateOne) ClearExtractedText() *ExtractJobUpdateOne {
	_u.mutation.ClearExtractedText()
	return _u
}

// SetTables sets the "tables" field.
func (_u *ExtractJobUpdateOne) SetTables(v json.RawMessage) *ExtractJobUpdateOne {
	_u.mutation.SetTables(v)
	return _u
}

// AppendTables appends value to the "tables" field.
func (_u *ExtractJobUpdateOne) AppendTables(v json.RawMessage) *ExtractJobUpdateOne {
	_u.mutation.AppendTables(v)
	return _u
}

// ClearTables clears the value of the "tables" field.
func (_u *ExtractJobUpdateOne) ClearTables() *ExtractJobUpdateOne {
	_u.mutation.ClearTables()
	return _u
}

// SetClassification sets the "classification" field.
func (_u *ExtractJobUpdateOne) SetClassification(v json.RawMessage) *ExtractJobUpdateOne {
	_u.mutation.SetClassification(v)
	return _u
}

// AppendClassification appends value to the "classification" field.
func (_u *ExtractJobUpdateOne) AppendClassification(v json.RawMessage) *ExtractJobUpdateOne {
	_u.mutation.AppendClassification(v)
	return _u
}

// ClearClassification clears the value of the "classification" field.
func (_u *ExtractJobUpdateOne) ClearClassification() *ExtractJobUpdateOne {
	_u.mutation.ClearClassification()
	return _u
}

// SetFile sets the "file" edge to the DocumentFile entity.
func (_u *ExtractJobUpdateOne) SetFile(v *DocumentFile) *ExtractJobUpdateOne {
	return _u.SetFileID(v.ID)
}

// Mutation returns the ExtractJobMutation object of the builder.
func (_u *ExtractJobUpdateOne) Mutation() *ExtractJobMutation {
	return _u.mutation
}

// ClearFile clears the "file" edge to the DocumentFile entity.
func (_u *ExtractJobUpdateOne) ClearFile() *ExtractJobUpdateOne {
	_u.mutation.ClearFile()
	return _u
}

// Where appends a list predicates to the ExtractJobUpdate builder.
func (_u *ExtractJobUpdateOne) Where(ps ...predicate.ExtractJob) *ExtractJobUpdateOne {
	_u.mutation.Where(ps...)
	return _u
}

// Select allows selecting one or more fields (columns) of the returned entity.
// The default is selecting all fields defined in the entity schema.
func (_u *ExtractJobUpdateOne) Select(field string, fields ...string) *ExtractJobUpdateOne {
	_u.fields = append([]string{field}, fields...)
	return _u
}

// Save executes the query and returns the updated ExtractJob entity.
func (_u *ExtractJobUpdateOne) Save(ctx context.Context) (*ExtractJob, error) {
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *ExtractJobUpdateOne) SaveX(ctx context.Context) *ExtractJob {
	node, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return node
}

// Exec executes the query on the entity.
func (_u *ExtractJobUpdateOne) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *ExtractJobUpdateOne) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_u *ExtractJobUpdateOne) check() error {
	if v, ok := _u.mutation.Format(); ok {
		if err := extractjob.FormatValidator(v); err != nil {
			return &ValidationError{Name: "format", err: fmt.Errorf(`ent: validator failed for field "ExtractJob.format": %w`, err)}
		}
	}
	if v, ok := _u.mutation.Status(); ok {
		if err := extractjob.StatusValidator(v); err != nil {
			return &ValidationError{Name: "status", err: fmt.Errorf(`ent: validator failed for field "ExtractJob.status": %w`, err)}
		}
	}
	if _u.mutation.FileCleared() && len(_u.mutation.FileIDs()) > 0 {
		return errors.New(`ent: clearing a required unique edge "ExtractJob.file"`)
	}
	return nil
}

func (_u *ExtractJobUpdateOne) sqlSave(ctx context.Context) (_node *ExtractJob, err error) {
	if err := _u.check(); err != nil {
		return _node, err
	}
	_spec := sqlgraph.NewUpdateSpec(extractjob.Table, extractjob.Columns, sqlgraph.NewFieldSpec(extractjob.FieldID, field.TypeUUID))
	id, ok := _u.mutation.ID()
	if !ok {
		return nil, &ValidationError{Name: "id", err: errors.New(`ent: missing "ExtractJob.id" for update`)}
	}
	_spec.Node.ID.Value = id
	if fields := _u.fields; len(fields) > 0 {
		_spec.Node.Columns = make([]string, 0, len(fields))
		_spec.Node.Columns = append(_spec.Node.Columns, extractjob.FieldID)
		for _, f := range fields {
			if !extractjob.ValidColumn(f) {
				return nil, &ValidationError{Name: f, err: fmt.Errorf("ent: invalid field %q for query", f)}
			}
			if f != extractjob.FieldID {
				_spec.Node.Columns = append(_spec.Node.Columns, f)
			}
		}
	}
	if ps := _u.mutation.predicates; len(ps) > 0 {
		_spec.Predicate = func(selector *sql.Selector) {
			for i := range ps {
				ps[i](selector)
			}
		}
	}
	if value, ok := _u.mutation.Format(); ok {
		_spec.SetField(extractjob.FieldFormat, field.TypeString, value)
	}
	if value, ok := _u.mutation.StartedAt(); ok {
		_spec.SetField(extractjob.FieldStartedAt, field.TypeTime, value)
	}
	if value, ok := _u.mutation.FinishedAt(); ok {
		_spec.SetField(extractjob.FieldFinishedAt, field.TypeTime, value)
	}
	if _u.mutation.FinishedAtCleared() {
		_spec.ClearField(extractjob.FieldFinishedAt, field.TypeTime)
	}
	if value, ok := _u.mutation.Status(); ok {
		_spec.SetField(extractjob.FieldStatus, field.TypeString, value)
	}
	if _u.mutation.StatusCleared() {
		_spec.ClearField(extractjob.FieldStatus, field.TypeString)
	}
	if value, ok := _u.mutation.ErrorMessage(); ok {
		_spec.SetField(extractjob.FieldErrorMessage, field.TypeString, value)
	}
	if _u.mutation.ErrorMessageCleared() {
		_spec.ClearField(extractjob.FieldErrorMessage, field.TypeString)
	}
	if value, ok := _u.mutation.StrategyUsed(); ok {
		_spec.SetField(extractjob.FieldStrategyUsed, field.TypeString, value)
	}
	if _u.mutation.StrategyUsedCleared() {
		_spec.ClearField(extractjob.FieldStrategyUsed, field.TypeString)
	}
	if value, ok := _u.mutation.UsedRecognition(); ok {
		_spec.SetField(extractjob.FieldUsedRecognition, field.TypeBool, value)
	}
	if value, ok := _u.mutation.EnhancementApplied(); ok {
		_spec.SetField(extractjob.FieldEnhancementApplied, field.TypeBool, value)
	}
	if value, ok := _u.mutation.ExtractedText(); ok {
		_spec.SetField(extractjob.FieldExtractedText, field.TypeString, value)
	}
	if _u.mutation.ExtractedTextCleared() {
		_spec.ClearField(extractjob.FieldExtractedText, field.TypeString)
	}
	if value, ok := _u.mutation.Tables(); ok {
		_spec.SetField(extractjob.FieldTables, field.TypeJSON, value)
	}
	if value, ok := _u.mutation.AppendedTables(); ok {
		_spec.AddModifier(func(u *sql.UpdateBuilder) {
			sqljson.Append(u, extractjob.FieldTables, value)
		})
	}
	if _u.mutation.TablesCleared() {
		_spec.ClearField(extractjob.FieldTables, field.TypeJSON)
	}
	if value, ok := _u.mutation.Classification(); ok {
		_spec.SetField(extractjob.FieldClassification, field.TypeJSON, value)
	}
	if value, ok := _u.mutation.AppendedClassification(); ok {
		_spec.AddModifier(func(u *sql.UpdateBuilder) {
			sqljson.Append(u, extractjob.FieldClassification, value)
		})
	}
	if _u.mutation.ClassificationCleared() {
		_spec.ClearField(extractjob.FieldClassification, field.TypeJSON)
	}
	if _u.mutation.FileCleared() {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   extractjob.FileTable,
			Columns: []string{extractjob.FileColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID),
			},
		}
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.FileIDs(); len(nodes) > 0 {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.M2O,
			Inverse: true,
			Table:   extractjob.FileTable,
			Columns: []string{extractjob.FileColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID),
			},
		}
		for _, k := range nodes {
			edge.Target.Nodes = append(edge.Target.Nodes, k)
		}
		_spec.Edges.Add = append(_spec.Edges.Add, edge)
	}
	_node = &ExtractJob{config: _u.config}
	_spec.Assign = _node.assignValues
	_spec.ScanValues = _node.scanValues
	if err = sqlgraph.UpdateNode(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{extractjob.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return nil, err
	}
	_u.mutation.done = true
	return _node, nil
}
