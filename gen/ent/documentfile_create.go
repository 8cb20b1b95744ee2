// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql/sqlgraph"
	"entgo.io/ent/schema/field"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/google/uuid"
)

// DocumentFileCreate is the builder for creating a DocumentFile entity.
type DocumentFileCreate struct {
	config
	mutation *DocumentFileMutation
	hooks    []Hook
}

// SetSourcePath sets the "source_path" field.
func (_c *DocumentFileCreate) SetSourcePath(v string) *DocumentFileCreate {
	_c.mutation.SetSourcePath(v)
	return _c
}

// SetContentHash sets the "content_hash" field.
func (_c *DocumentFileCreate) SetContentHash(v []byte) *DocumentFileCreate {
	_c.mutation.SetContentHash(v)
	return _c
}

// SetFilename sets the "filename" field.
func (_c *DocumentFileCreate) SetFilename(v string) *DocumentFileCreate {
	_c.mutation.SetFilename(v)
	return _c
}

// SetFileExt sets the "file_ext" field.
func (_c *DocumentFileCreate) SetFileExt(v string) *DocumentFileCreate {
	_c.mutation.SetFileExt(v)
	return _c
}

// SetFileSize sets the "file_size" field.
func (_c *DocumentFileCreate) SetFileSize(v int) *DocumentFileCreate {
	_c.mutation.SetFileSize(v)
	return _c
}

// SetUploadedAt sets the "uploaded_at" field.
func (_c *DocumentFileCreate) SetUploadedAt(v time.Time) *DocumentFileCreate {
	_c.mutation.SetUploadedAt(v)
	return _c
}

// SetNillableUploadedAt sets the "uploaded_at" field if the given value is not nil.
func (_c *DocumentFileCreate) SetNillableUploadedAt(v *time.Time) *DocumentFileCreate {
	if v != nil {
		_c.SetUploadedAt(*v)
	}
	return _c
}

// SetID sets the "id" field.
func (_c *DocumentFileCreate) SetID(v uuid.UUID) *DocumentFileCreate {
	_c.mutation.SetID(v)
	return _c
}

// SetNillableID sets the "id" field if the given value is not nil.
func (_c *DocumentFileCreate) SetNillableID(v *uuid.UUID) *DocumentFileCreate {
	if v != nil {
		_c.SetID(*v)
	}
	return _c
}

// AddJobIDs adds the "jobs" edge to the ExtractJob entity by IDs.
func (_c *DocumentFileCreate) AddJobIDs(ids ...uuid.UUID) *DocumentFileCreate {
	_c.mutation.AddJobIDs(ids...)
	return _c
}

// AddJobs adds the "jobs" edges to the ExtractJob entity.
func (_c *DocumentFileCreate) AddJobs(v ...*ExtractJob) *DocumentFileCreate {
	ids := make([]uuid.UUID, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return _c.AddJobIDs(ids...)
}

// Mutation returns the DocumentFileMutation object of the builder.
func (_c *DocumentFileCreate) Mutation() *DocumentFileMutation {
	return _c.mutation
}

// Save creates the DocumentFile in the database.
func (_c *DocumentFileCreate) Save(ctx context.Context) (*DocumentFile, error) {
	_c.defaults()
	return withHooks(ctx, _c.sqlSave, _c.mutation, _c.hooks)
}

// SaveX calls Save and panics if Save returns an error.
func (_c *DocumentFileCreate) SaveX(ctx context.Context) *DocumentFile {
	v, err := _c.Save(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// Exec executes the query.
func (_c *DocumentFileCreate) Exec(ctx context.Context) error {
	_, err := _c.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_c *DocumentFileCreate) ExecX(ctx context.Context) {
	if err := _c.Exec(ctx); err != nil {
		panic(err)
	}
}

// defaults sets the default values of the builder before save.
func (_c *DocumentFileCreate) defaults() {
	if _, ok := _c.mutation.UploadedAt(); !ok {
		v := documentfile.DefaultUploadedAt()
		_c.mutation.SetUploadedAt(v)
	}
	if _, ok := _c.mutation.ID(); !ok {
		v := documentfile.DefaultID()
		_c.mutation.SetID(v)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_c *DocumentFileCreate) check() error {
	if _, ok := _c.mutation.SourcePath(); !ok {
		return &ValidationError{Name: "source_path", err: errors.New(`ent: missing required field "DocumentFile.source_path"`)}
	}
	if v, ok := _c.mutation.SourcePath(); ok {
		if err := documentfile.SourcePathValidator(v); err != nil {
			return &ValidationError{Name: "source_path", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.source_path": %w`, err)}
		}
	}
	if _, ok := _c.mutation.ContentHash(); !ok {
		return &ValidationError{Name: "content_hash", err: errors.New(`ent: missing required field "DocumentFile.content_hash"`)}
	}
	if v, ok := _c.mutation.ContentHash(); ok {
		if err := documentfile.ContentHashValidator(v); err != nil {
			return &ValidationError{Name: "content_hash", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.content_hash": %w`, err)}
		}
	}
	if _, ok := _c.mutation.Filename(); !ok {
		return &ValidationError{Name: "filename", err: errors.New(`ent: missing required field "DocumentFile.filename"`)}
	}
	if v, ok := _c.mutation.Filename(); ok {
		if err := documentfile.FilenameValidator(v); err != nil {
			return &ValidationError{Name: "filename", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.filename": %w`, err)}
		}
	}
	if _, ok := _c.mutation.FileExt(); !ok {
		return &ValidationError{Name: "file_ext", err: errors.New(`ent: missing required field "DocumentFile.file_ext"`)}
	}
	if v, ok := _c.mutation.FileExt(); ok {
		if err := documentfile.FileExtValidator(v); err != nil {
			return &ValidationError{Name: "file_ext", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.file_ext": %w`, err)}
		}
	}
	if _, ok := _c.mutation.FileSize(); !ok {
		return &ValidationError{Name: "file_size", err: errors.New(`ent: missing required field "DocumentFile.file_size"`)}
	}
	if v, ok := _c.mutation.FileSize(); ok {
		if err := documentfile.FileSizeValidator(v); err != nil {
			return &ValidationError{Name: "file_size", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.file_size": %w`, err)}
		}
	}
	if _, ok := _c.mutation.UploadedAt(); !ok {
		return &ValidationError{Name: "uploaded_at", err: errors.New(`ent: missing required field "DocumentFile.uploaded_at"`)}
	}
	return nil
}

func (_c *DocumentFileCreate) sqlSave(ctx context.Context) (*DocumentFile, error) {
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

func (_c *DocumentFileCreate) createSpec() (*DocumentFile, *sqlgraph.CreateSpec) {
	var (
		_node = &DocumentFile{config: _c.config}
		_spec = sqlgraph.NewCreateSpec(documentfile.Table, sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID))
	)
	if id, ok := _c.mutation.ID(); ok {
		_node.ID = id
		_spec.ID.Value = &id
	}
	if value, ok := _c.mutation.SourcePath(); ok {
		_spec.SetField(documentfile.FieldSourcePath, field.TypeString, value)
		_node.SourcePath = value
	}
	if value, ok := _c.mutation.ContentHash(); ok {
		_spec.SetField(documentfile.FieldContentHash, field.TypeBytes, value)
		_node.ContentHash = value
	}
	if value, ok := _c.mutation.Filename(); ok {
		_spec.SetField(documentfile.FieldFilename, field.TypeString, value)
		_node.Filename = value
	}
	if value, ok := _c.mutation.FileExt(); ok {
		_spec.SetField(documentfile.FieldFileExt, field.TypeString, value)
		_node.FileExt = value
	}
	if value, ok := _c.mutation.FileSize(); ok {
		_spec.SetField(documentfile.FieldFileSize, field.TypeInt, value)
		_node.FileSize = value
	}
	if value, ok := _c.mutation.UploadedAt(); ok {
		_spec.SetField(documentfile.FieldUploadedAt, field.TypeTime, value)
		_node.UploadedAt = value
	}
	if nodes := _c.mutation.JobsIDs(); len(nodes) > 0 {
		edge := &sqlgraph.EdgeSpec{
			Rel:     sqlgraph.O2M,
			Inverse: false,
			Table:   documentfile.JobsTable,
			Columns: []string{documentfile.JobsColumn},
			Bidi:    false,
			Target: &sqlgraph.EdgeTarget{
				IDSpec: sqlgraph.NewFieldSpec(extractjob.FieldID, field.TypeUUID),
			},
		}
		for _, k := range nodes {
			edge.Target.Nodes = append(edge.Target.Nodes, k)
		}
		_spec.Edges = append(_spec.Edges, edge)
	}
	return _node, _spec
}

// DocumentFileCreateBulk is the builder for creating many DocumentFile entities in bulk.
type DocumentFileCreateBulk struct {
	config
	err      error
	builders []*DocumentFileCreate
}

// Save creates the DocumentFile entities in the database.
func (_c *DocumentFileCreateBulk) Save(ctx context.Context) ([]*DocumentFile, error) {
	if _c.err != nil {
		return nil, _c.err
	}
	specs := make([]*sqlgraph.CreateSpec, len(_c.builders))
	nodes := make([]*DocumentFile, len(_c.builders))
	mutators := make([]Mutator, len(_c.builders))
	for i := range _c.builders {
		func(i int, root context.Context) {
			builder := _c.builders[i]
			builder.defaults()
			var mut Mutator = MutateFunc(func(ctx context.Context, m Mutation) (Value, error) {
				mutation, ok := m.(*DocumentFileMutation)
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
func (_c *DocumentFileCreateBulk) SaveX(ctx context.Context) []*DocumentFile {
	v, err := _c.Save(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// Exec executes the query.
func (_c *DocumentFileCreateBulk) Exec(ctx context.Context) error {
	_, err := _c.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_c *DocumentFileCreateBulk) ExecX(ctx context.Context) {
	if err := _c.Exec(ctx); err != nil {
		panic(err)
	}
}
