// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql/sqlgraph"
	"entgo.io/ent/schema/field"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/google/uuid"
)

// ExtractJobCreate is the builder for creating a ExtractJob entity.
type ExtractJobCreate struct {
	config
	mutation *ExtractJobMutation
	hooks    []Hook
}

// SetFileID sets the "file_id" field.
func (_c *ExtractJobCreate) SetFileID(v uuid.UUID) *ExtractJobCreate {
	_c.mutation.SetFileID(v)
	return _c
}

// SetFormat sets the "format" field.
func (_c *ExtractJobCreate) SetFormat(v string) *ExtractJobCreate {
	_c.mutation.SetFormat(v)
	return _c
}

// SetStartedAt sets the "started_at" field.
func (_c *ExtractJobCreate) SetStartedAt(v time.Time) *ExtractJobCreate {
	_c.mutation.SetStartedAt(v)
	return _c
}

// SetNillableStartedAt sets the "started_at" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableStartedAt(v *time.Time) *ExtractJobCreate {
	if v != nil {
		_c.SetStartedAt(*v)
	}
	return _c
}

// SetFinishedAt sets the "finished_at" field.
func (_c *ExtractJobCreate) SetFinishedAt(v time.Time) *ExtractJobCreate {
	_c.mutation.SetFinishedAt(v)
	return _c
}

// SetNillableFinishedAt sets the "finished_at" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableFinishedAt(v *time.Time) *ExtractJobCreate {
	if v != nil {
		_c.SetFinishedAt(*v)
	}
	return _c
}

// SetStatus sets the "status" field.
func (_c *ExtractJobCreate) SetStatus(v string) *ExtractJobCreate {
	_c.mutation.SetStatus(v)
	return _c
}

// SetNillableStatus sets the "status" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableStatus(v *string) *ExtractJobCreate {
	if v != nil {
		_c.SetStatus(*v)
	}
	return _c
}

// SetErrorMessage sets the "error_message" field.
func (_c *ExtractJobCreate) SetErrorMessage(v string) *ExtractJobCreate {
	_c.mutation.SetErrorMessage(v)
	return _c
}

// SetNillableErrorMessage sets the "error_message" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableErrorMessage(v *string) *ExtractJobCreate {
	if v != nil {
		_c.SetErrorMessage(*v)
	}
	return _c
}

// SetStrategyUsed sets the "strategy_used" field.
func (_c *ExtractJobCreate) SetStrategyUsed(v string) *ExtractJobCreate {
	_c.mutation.SetStrategyUsed(v)
	return _c
}

// SetNillableStrategyUsed sets the "strategy_used" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableStrategyUsed(v *string) *ExtractJobCreate {
	if v != nil {
		_c.SetStrategyUsed(*v)
	}
	return _c
}

// SetUsedRecognition sets the "used_recognition" field.
func (_c *ExtractJobCreate) SetUsedRecognition(v bool) *ExtractJobCreate {
	_c.mutation.SetUsedRecognition(v)
	return _c
}

// SetNillableUsedRecognition sets the "used_recognition" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableUsedRecognition(v *bool) *ExtractJobCreate {
	if v != nil {
		_c.SetUsedRecognition(*v)
	}
	return _c
}

// SetEnhancementApplied sets the "enhancement_applied" field.
func (_c *ExtractJobCreate) SetEnhancementApplied(v bool) *ExtractJobCreate {
	_c.mutation.SetEnhancementApplied(v)
	return _c
}

// SetNillableEnhancementApplied sets the "enhancement_applied" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableEnhancementApplied(v *bool) *ExtractJobCreate {
	if v != nil {
		_c.SetEnhancementApplied(*v)
	}
	return _c
}

// SetExtractedText sets the "extracted_text" field.
func (_c *ExtractJobCreate) SetExtractedText(v string) *ExtractJobCreate {
	_c.mutation.SetExtractedText(v)
	return _c
}

// SetNillableExtractedText sets the "extracted_text" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableExtractedText(v *string) *ExtractJobCreate {
	if v != nil {
		_c.SetExtractedText(*v)
	}
	return _c
}

// SetTables sets the "tables" field.
func (_c *ExtractJobCreate) SetTables(v json.RawMessage) *ExtractJobCreate {
	_c.mutation.SetTables(v)
	return _c
}

// SetClassification sets the "classification" field.
func (_c *ExtractJobCreate) SetClassification(v json.RawMessage) *ExtractJobCreate {
	_c.mutation.SetClassification(v)
	return _c
}

// SetID sets the "id" field.
func (_c *ExtractJobCreate) SetID(v uuid.UUID) *ExtractJobCreate {
	_c.mutation.SetID(v)
	return _c
}

// SetNillableID sets the "id" field if the given value is not nil.
func (_c *ExtractJobCreate) SetNillableID(v *uuid.UUID) *ExtractJobCreate {
	if v != nil {
		_c.SetID(*v)
	}
	return _c
}

// SetFile sets the "file" edge to the DocumentFile entity.
func (_c *ExtractJobCreate) SetFile(v *DocumentFile) *ExtractJobCreate {
	return _c.SetFileID(v.ID)
}

// Mutation returns the ExtractJobMutation object of the builder.
func (_c *ExtractJobCreate) Mutation() *ExtractJobMutation {
	return _c.mutation
}

// Save creates the ExtractJob in the database.
func (_c *ExtractJobCreate) Save(ctx context.Context) (*ExtractJob, error) {
	_c.defaults()
	return withHooks(ctx, _c.sqlSave, _c.mutation, _c.hooks)
}

// SaveX calls Save and panics if Save returns an error.
func (_c *ExtractJobCreate) SaveX(ctx context.Context) *ExtractJob {
	v, err := _c.Save(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// Exec executes the query.
func (_c *ExtractJobCreate) Exec(ctx context.Context) error {
	_, err := _c.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_c *ExtractJobCreate) ExecX(ctx context.Context) {
	if err := _c.Exec(ctx); err != nil {
		panic(err)
	}
}

// defaults sets the default values of the builder before save.
func (_c *ExtractJobCreate) defaults() {
	if _, ok := _c.mutation.StartedAt(); !ok {
		v := extractjob.DefaultStartedAt()
		_c.mutation.SetStartedAt(v)
	}
	if _, ok := _c.mutation.UsedRecognition(); !ok {
		v := extractjob.DefaultUsedRecognition
		_c.mutation.SetUsedRecognition(v)
	}
	if _, ok := _c.mutation.EnhancementApplied(); !ok {
		v := extractjob.DefaultEnhancementApplied
		_c.mutation.SetEnhancementApplied(v)
	}
	if _, ok := _c.mutation.ID(); !ok {
		v := extractjob.DefaultID()
		_c.mutation.SetID(v)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_c *ExtractJobCreate) check() error {
	if _, ok := _c.mutation.FileID(); !ok {
		return &ValidationError{Name: "file_id", err: errors.New(`ent: missing required field "ExtractJob.file_id"`)}
	}
	if _, ok := _c.mutation.Format(); !ok {
		return &ValidationError{Name: "format", err: errors.New(`ent: missing required field "ExtractJob.format"`)}
	}
	if v, ok := _c.mutation.Format(); ok {
		if err := extractjob.FormatValidator(v); err != nil {
			return &ValidationError{Name: "format", err: fmt.Errorf(`ent: validator failed for field "ExtractJob.format": %w`, err)}
		}
	}
	if _, ok := _c.mutation.StartedAt(); !ok {
		return &ValidationError{Name: "started_at", err: errors.New(`ent: missing required field "ExtractJob.started_at"`)}
	}
	if v, ok := _c.mutation.Status(); ok {
		if err := extractjob.StatusValidator(v); err != nil {
			return &ValidationError{Name: "status", err: fmt.Errorf(`ent: validator failed for field "ExtractJob.status": %w`, err)}
		}
	}
	if _, ok := _c.mutation.UsedRecognition(); !ok {
		return &ValidationError{Name: "used_recognition", err: errors.New(`ent: missing required field "ExtractJob.used_recognition"`)}
	}
	if _, ok := _c.mutation.EnhancementApplied(); !ok {
		return &ValidationError{Name: "enhancement_applied", err: errors.New(`ent: missing required field "ExtractJob.enhancement_applied"`)}
	}
	if len(_c.mutation.FileIDs()) == 0 {
		return &ValidationError{Name: "file", err: errors.New(`ent: missing required edge "ExtractJob.file"`)}
	}
	return nil
}

func (_c *ExtractJobCreate) sqlSave(ctx context.Context) (*ExtractJob, error) {
	if err := _c.check(); err != nil {
		return nil, err
	}
	_node, _spec := _c.createSpec()
	if err := sqlgraph.CreateNode(ctx, _c.driver, _spec); err != nil {
		if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return nil, err
	}
	if _spec.ID.Value != nil {
		if id, ok := _spec.ID.Value.(*uuid.UUID); ok {
			_node.ID = *id
		} else if err := _node.ID.Scan(_spec.ID.Value); err != nil {
			return nil, err
		}
	}
	_c.mutation.id = &_node.ID
	_c.mutation.done = true
	return _node, nil
}

func (_c *ExtractJobCreate) createSpec() (*ExtractJob, *sqlgraph.CreateSpec) {
	var (
		_node = &ExtractJob{config: _c.config}
		_spec = sqlgraph.NewCreateSpec(extractjob.Table, sqlgraph.NewFieldSpec(extractjob.FieldID, field.TypeUUID))
	)
	if id, ok := _c.mutation.ID(); ok {
		_node.ID = id
		_spec.ID.Value = &id
	}
	if value, ok := _c.mutation.Format(); ok {
		_spec.SetField(extractjob.FieldFormat, field.TypeString, value)
		_node.Format = value
	}
	if value, ok := _c.mutation.StartedAt(); ok {
		_spec.SetField(extractjob.FieldStartedAt, field.TypeTime, value)
		_node.StartedAt = value
	}
	if value, ok := _c.mutation.FinishedAt(); ok {
		_spec.SetField(extractjob.FieldFinishedAt, field.TypeTime, value)
		_node.FinishedAt = &value
	}
	if value, ok := _c.mutation.Status(); ok {
		_spec.SetField(extractjob.FieldStatus, field.TypeString, value)
		_node.Status = &value
	}
	if value, ok := _c.mutation.ErrorMessage(); ok {
		_spec.SetField(extractjob.FieldErrorMessage, field.TypeString, value)
		_node.ErrorMessage = &value
	}
	if value, ok := _c.mutation.StrategyUsed(); ok {
		_spec.SetField(extractjob.FieldStrategyUsed, field.TypeString, value)
		_node.StrategyUsed = &value
	}
	if value, ok := _c.mutation.UsedRecognition(); ok {
		_spec.SetField(extractjob.FieldUsedRecognition, field.TypeBool, value)
		_node.UsedRecognition = value
	}
	if value, ok := _c.mutation.EnhancementApplied(); ok {
		_spec.SetField(extractjob.FieldEnhancementApplied, field.TypeBool, value)
		_node.EnhancementApplied = value
	}
	if value, ok := _c.mutation.ExtractedText(); ok {
		_spec.SetField(extractjob.FieldExtractedText, field.TypeString, value)
		_node.ExtractedText = &value
	}
	if value, ok := _c.mutation.Tables(); ok {
		_spec.SetField(extractjob.FieldTables, field.TypeJSON, value)
		_node.Tables = value
	}
	if value, ok := _c.mutation.Classification(); ok {
		_spec.SetField(extractjob.FieldClassification, field.TypeJSON, value)
		_node.Classification = value
	}
	if nodes := _c.mutation.FileIDs(); len(nodes) > 0 {
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
		_node.FileID = nodes[0]
		_spec.Edges = append(_spec.Edges, edge)
	}
	return _node, _spec
}

// ExtractJobCreateBulk is the builder for creating many ExtractJob entities in bulk.
type ExtractJobCreateBulk struct {
	config
	err      error
	builders []*ExtractJobCreate
}

// Save creates the ExtractJob entities in the database.
func (_c *ExtractJobCreateBulk) Save(ctx context.Context) ([]*ExtractJob, error) {
	if _c.err != nil {
		return nil, _c.err
	}
	specs := make([]*sqlgraph.CreateSpec, len(_c.builders))
	nodes := make([]*ExtractJob, len(_c.builders))
	mutators := make([]Mutator, len(_c.builders))
	for i := range _c.builders {
		func(i int, root context.Context) {
			builder := _c.builders[i]
			builder.defaults()
			var mut Mutator = MutateFunc(func(ctx context.Context, m Mutation) (Value, error) {
				mutation, ok := m.(*ExtractJobMutation)
				if !ok {
					return nil, fmt.Errorf("unexpected mutation type %T", m)
				}
				if err := builder.check(); err != nil {
					return nil, err
				}
				builder.mutation = mutation
				var err error
				nodes[i], specs[i] = builder.createSpec()
				if i < len(mutators)-1 {
					_, err = mutators[i+1].Mutate(root, _c.builders[i+1].mutation)
				} else {
					spec := &sqlgraph.BatchCreateSpec{Nodes: specs}
					// Invoke the actual operation on the latest mutation in the chain.
					if err = sqlgraph.BatchCreate(ctx, _c.driver, spec); err != nil {
						if sqlgraph.IsConstraintError(err) {
							err = &ConstraintError{msg: err.Error(), wrap: err}
						}
					}
				}
				if err != nil {
					return nil, err
				}
				mutation.id = &nodes[i].ID
				mutation.done = true
				return nodes[i], nil
			})
			for i := len(builder.hooks) - 1; i >= 0; i-- {
				mut = builder.hooks[i](mut)
			}
			mutators[i] = mut
		}(i, ctx)
	}
	if len(mutators) > 0 {
		if _, err := mutators[0].Mutate(ctx, _c.builders[0].mutation); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// SaveX is like Save, but panics if an error occurs.
func (_c *ExtractJobCreateBulk) SaveX(ctx context.Context) []*ExtractJob {
	v, err := _c.Save(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// Exec executes the query.
func (_c *ExtractJobCreateBulk) Exec(ctx context.Context) error {
	_, err := _c.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_c *ExtractJobCreateBulk) ExecX(ctx context.Context) {
	if err := _c.Exec(ctx); err != nil {
		panic(err)
	}
}
