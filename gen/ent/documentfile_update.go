// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"entgo.io/ent/schema/field"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/enerdoc/docingest/gen/ent/predicate"
	"github.com/google/uuid"
)

// DocumentFileUpdate is the builder for updating DocumentFile entities.
type DocumentFileUpdate struct {
	config
	hooks    []Hook
	mutation *DocumentFileMutation
}

// Where appends a list predicates to the DocumentFileUpdate builder.
func (_u *DocumentFileUpdate) Where(ps ...predicate.DocumentFile) *DocumentFileUpdate {
	_u.mutation.Where(ps...)
	return _u
}

// SetSourcePath sets the "source_path" field.
func (_u *DocumentFileUpdate) SetSourcePath(v string) *DocumentFileUpdate {
	_u.mutation.SetSourcePath(v)
	return _u
}

// SetNillableSourcePath sets the "source_path" field if the given value is not nil.
func (_u *DocumentFileUpdate) SetNillableSourcePath(v *string) *DocumentFileUpdate {
	if v != nil {
		_u.SetSourcePath(*v)
	}
	return _u
}

// SetContentHash sets the "content_hash" field.
func (_u *DocumentFileUpdate) SetContentHash(v []byte) *DocumentFileUpdate {
	_u.mutation.SetContentHash(v)
	return _u
}

// SetFilename sets the "filename" field.
func (_u *DocumentFileUpdate) SetFilename(v string) *DocumentFileUpdate {
	_u.mutation.SetFilename(v)
	return _u
}

// SetNillableFilename sets the "filename" field if the given value is not nil.
func (_u *DocumentFileUpdate) SetNillableFilename(v *string) *DocumentFileUpdate {
	if v != nil {
		_u.SetFilename(*v)
	}
	return _u
}

// SetFileExt sets the "file_ext" field.
func (_u *DocumentFileUpdate) SetFileExt(v string) *DocumentFileUpdate {
	_u.mutation.SetFileExt(v)
	return _u
}

// SetNillableFileExt sets the "file_ext" field if the given value is not nil.
func (_u *DocumentFileUpdate) SetNillableFileExt(v *string) *DocumentFileUpdate {
	if v != nil {
		_u.SetFileExt(*v)
	}
	return _u
}

// SetFileSize sets the "file_size" field.
func (_u *DocumentFileUpdate) SetFileSize(v int) *DocumentFileUpdate {
	_u.mutation.ResetFileSize()
	_u.mutation.SetFileSize(v)
	return _u
}

// SetNillableFileSize sets the "file_size" field if the given value is not nil.
func (_u *DocumentFileUpdate) SetNillableFileSize(v *int) *DocumentFileUpdate {
	if v != nil {
		_u.SetFileSize(*v)
	}
	return _u
}

// AddFileSize adds value to the "file_size" field.
func (_u *DocumentFileUpdate) AddFileSize(v int) *DocumentFileUpdate {
	_u.mutation.AddFileSize(v)
	return _u
}

// SetUploadedAt sets the "uploaded_at" field.
func (_u *DocumentFileUpdate) SetUploadedAt(v time.Time) *DocumentFileUpdate {
	_u.mutation.SetUploadedAt(v)
	return _u
}

// SetNillableUploadedAt sets the "uploaded_at" field if the given value is not nil.
func (_u *DocumentFileUpdate) SetNillableUploadedAt(v *time.Time) *DocumentFileUpdate {
	if v != nil {
		_u.SetUploadedAt(*v)
	}
	return _u
}

// AddJobIDs adds the "jobs" edge to the ExtractJob entity by IDs.
func (_u *DocumentFileUpdate) AddJobIDs(ids ...uuid.UUID) *DocumentFileUpdate {
	_u.mutation.AddJobIDs(ids...)
	return _u
}

// AddJobs adds the "jobs" edges to the ExtractJob entity.
func (_u *DocumentFileUpdate) AddJobs(v ...*ExtractJob) *DocumentFileUpdate {
	ids := make([]uuid.UUID, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return _u.AddJobIDs(ids...)
}

// Mutation returns the DocumentFileMutation object of the builder.
func (_u *DocumentFileUpdate) Mutation() *DocumentFileMutation {
	return _u.mutation
}

// ClearJobs clears all "jobs" edges to the ExtractJob entity.
func (_u *DocumentFileUpdate) ClearJobs() *DocumentFileUpdate {
	_u.mutation.ClearJobs()
	return _u
}

// RemoveJobIDs removes the "jobs" edge to ExtractJob entities by IDs.
func (_u *DocumentFileUpdate) RemoveJobIDs(ids ...uuid.UUID) *DocumentFileUpdate {
	_u.mutation.RemoveJobIDs(ids...)
	return _u
}

// RemoveJobs removes "jobs" edges to ExtractJob entities.
func (_u *DocumentFileUpdate) RemoveJobs(v ...*ExtractJob) *DocumentFileUpdate {
	ids := make([]uuid.UUID, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return _u.RemoveJobIDs(ids...)
}

// Save executes the query and returns the number of nodes affected by the update operation.
func (_u *DocumentFileUpdate) Save(ctx context.Context) (int, error) {
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *DocumentFileUpdate) SaveX(ctx context.Context) int {
	affected, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return affected
}

// Exec executes the query.
func (_u *DocumentFileUpdate) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *DocumentFileUpdate) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_u *DocumentFileUpdate) check() error {
	if v, ok := _u.mutation.SourcePath(); ok {
		if err := documentfile.SourcePathValidator(v); err != nil {
			return &ValidationError{Name: "source_path", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.source_path": %w`, err)}
		}
	}
	if v, ok := _u.mutation.ContentHash(); ok {
		if err := documentfile.ContentHashValidator(v); err != nil {
			return &ValidationError{Name: "content_hash", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.content_hash": %w`, err)}
		}
	}
	if v, ok := _u.mutation.Filename(); ok {
		if err := documentfile.FilenameValidator(v); err != nil {
			return &ValidationError{Name: "filename", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.filename": %w`, err)}
		}
	}
	if v, ok := _u.mutation.FileExt(); ok {
		if err := documentfile.FileExtValidator(v); err != nil {
			return &ValidationError{Name: "file_ext", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.file_ext": %w`, err)}
		}
	}
	if v, ok := _u.mutation.FileSize(); ok {
		if err := documentfile.FileSizeValidator(v); err != nil {
			return &ValidationError{Name: "file_size", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.file_size": %w`, err)}
		}
	}
	return nil
}

func (_u *DocumentFileUpdate) sqlSave(ctx context.Context) (_node int, err error) {
	if err := _u.check(); err != nil {
		return _node, err
	}
	_spec := sqlgraph.NewUpdateSpec(documentfile.Table, documentfile.Columns, sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID))
	if ps := _u.mutation.predicates; len(ps) > 0 {
		_spec.Predicate = func(selector *sql.Selector) {
			for i := range ps {
				ps[i](selector)
			}
		}
	}
	if value, ok := _u.mutation.SourcePath(); ok {
		_spec.SetField(documentfile.FieldSourcePath, field.TypeString, value)
	}
	if value, ok := _u.mutation.ContentHash(); ok {
		_spec.SetField(documentfile.FieldContentHash, field.TypeBytes, value)
	}
	if value, ok := _u.mutation.Filename(); ok {
		_spec.SetField(documentfile.FieldFilename, field.TypeString, value)
	}
	if value, ok := _u.mutation.FileExt(); ok {
		_spec.SetField(documentfile.FieldFileExt, field.TypeString, value)
	}
	if value, ok := _u.mutation.FileSize(); ok {
		_spec.SetField(documentfile.FieldFileSize, field.TypeInt, value)
	}
	if value, ok := _u.mutation.AddedFileSize(); ok {
		_spec.AddField(documentfile.FieldFileSize, field.TypeInt, value)
	}
	if value, ok := _u.mutation.UploadedAt(); ok {
		_spec.SetField(documentfile.FieldUploadedAt, field.TypeTime, value)
	}
	if _u.mutation.JobsCleared() {
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
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.RemovedJobsIDs(); len(nodes) > 0 && !_u.mutation.JobsCleared() {
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
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.JobsIDs(); len(nodes) > 0 {
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
		_spec.Edges.Add = append(_spec.Edges.Add, edge)
	}
	if _node, err = sqlgraph.UpdateNodes(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{documentfile.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return 0, err
	}
	_u.mutation.done = true
	return _node, nil
}

// DocumentFileUpdateOne is the builder for updating a single DocumentFile entity.
type DocumentFileUpdateOne struct {
	config
	fields   []string
	hooks    []Hook
	mutation *DocumentFileMutation
}

// SetSourcePath sets the "source_path" field.
func (_u *DocumentFileUpdateOne) SetSourcePath(v string) *DocumentFileUpdateOne {
	_u.mutation.SetSourcePath(v)
	return _u
}

// SetNillableSourcePath sets the "source_path" field if the given value is not nil.
func (_u *DocumentFileUpdateOne) SetNillableSourcePath(v *string) *DocumentFileUpdateOne {
	if v != nil {
		_u.SetSourcePath(*v)
	}
	return _u
}

// SetContentHash sets the "content_hash" field.
func (_u *DocumentFileUpdateOne) SetContentHash(v []byte) *DocumentFileUpdateOne {
	_u.mutation.SetContentHash(v)
	return _u
}

// SetFilename sets the "filename" field.
func (_u *DocumentFileUpdateOne) SetFilename(v string) *DocumentFileUpdateOne {
	_u.mutation.SetFilename(v)
	return _u
}

// SetNillableFilename sets the "filename" field if the given value is not nil.
func (_u *DocumentFileUpdateOne) SetNillableFilename(v *string) *DocumentFileUpdateOne {
	if v != nil {
		_u.SetFilename(*v)
	}
	return _u
}

// SetFileExt sets the "file_ext" field.
func (_u *DocumentFileUpdateOne) SetFileExt(v string) *DocumentFileUpdateOne {
	_u.mutation.SetFileExt(v)
	return _u
}

// SetNillableFileExt sets the "file_ext" field if the given value is not nil.
func (_u *DocumentFileUpdateOne) SetNillableFileExt(v *string) *DocumentFileUpdateOne {
	if v != nil {
		_u.SetFileExt(*v)
	}
	return _u
}

// SetFileSize sets the "file_size" field.
func (_u *DocumentFileUpdateOne) SetFileSize(v int) *DocumentFileUpdateOne {
	_u.mutation.ResetFileSize()
	_u.mutation.SetFileSize(v)
	return _u
}

// SetNillableFileSize sets the "file_size" field if the given value is not nil.
func (_u *DocumentFileUpdateOne) SetNillableFileSize(v *int) *DocumentFileUpdateOne {
	if v != nil {
		_u.SetFileSize(*v)
	}
	return _u
}

// AddFileSize adds value to the "file_size" field.
func (_u *DocumentFileUpdateOne) AddFileSize(v int) *DocumentFileUpdateOne {
	_u.mutation.AddFileSize(v)
	return _u
}

// SetUploadedAt sets the "uploaded_at" field.
func (_u *DocumentFileUpdateOne) SetUploadedAt(v time.Time) *DocumentFileUpdateOne {
	_u.mutation.SetUploadedAt(v)
	return _u
}

// SetNillableUploadedAt sets the "uploaded_at" field if the given value is not nil.
func (_u *DocumentFileUpdateOne) SetNillableUploadedAt(v *time.Time) *DocumentFileUpdateOne {
	if v != nil {
		_u.SetUploadedAt(*v)
	}
	return _u
}

// AddJobIDs adds the "jobs" edge to the ExtractJob entity by IDs.
func (_u *DocumentFileUpdateOne) AddJobIDs(ids ...uuid.UUID) *DocumentFileUpdateOne {
	_u.mutation.AddJobIDs(ids...)
	return _u
}

// AddJobs adds the "jobs" edges to the ExtractJob entity.
func (_u *DocumentFileUpdateOne) AddJobs(v ...*ExtractJob) *DocumentFileUpdateOne {
	ids := make([]uuid.UUID, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return _u.AddJobIDs(ids...)
}

// Mutation returns the DocumentFileMutation object of the builder.
func (_u *DocumentFileUpdateOne) Mutation() *DocumentFileMutation {
	return _u.mutation
}

// ClearJobs clears all "jobs" edges to the ExtractJob entity.
func (_u *DocumentFileUpdateOne) ClearJobs() *DocumentFileUpdateOne {
	_u.mutation.ClearJobs()
	return _u
}

// RemoveJobIDs removes the "jobs" edge to ExtractJob entities by IDs.
func (_u *DocumentFileUpdateOne) RemoveJobIDs(ids ...uuid.UUID) *DocumentFileUpdateOne {
	_u.mutation.RemoveJobIDs(ids...)
	return _u
}

// RemoveJobs removes "jobs" edges to ExtractJob entities.
func (_u *DocumentFileUpdateOne) RemoveJobs(v ...*ExtractJob) *DocumentFileUpdateOne {
	ids := make([]uuid.UUID, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return _u.RemoveJobIDs(ids...)
}

// Where appends a list predicates to the DocumentFileUpdate builder.
func (_u *DocumentFileUpdateOne) Where(ps ...predicate.DocumentFile) *DocumentFileUpdateOne {
	_u.mutation.Where(ps...)
	return _u
}

// Select allows selecting one or more fields (columns) of the returned entity.
// The default is selecting all fields defined in the entity schema.
func (_u *DocumentFileUpdateOne) Select(field string, fields ...string) *DocumentFileUpdateOne {
	_u.fields = append([]string{field}, fields...)
	return _u
}

// Save executes the query and returns the updated DocumentFile entity.
func (_u *DocumentFileUpdateOne) Save(ctx context.Context) (*DocumentFile, error) {
	return withHooks(ctx, _u.sqlSave, _u.mutation, _u.hooks)
}

// SaveX is like Save, but panics if an error occurs.
func (_u *DocumentFileUpdateOne) SaveX(ctx context.Context) *DocumentFile {
	node, err := _u.Save(ctx)
	if err != nil {
		panic(err)
	}
	return node
}

// Exec executes the query on the entity.
func (_u *DocumentFileUpdateOne) Exec(ctx context.Context) error {
	_, err := _u.Save(ctx)
	return err
}

// ExecX is like Exec, but panics if an error occurs.
func (_u *DocumentFileUpdateOne) ExecX(ctx context.Context) {
	if err := _u.Exec(ctx); err != nil {
		panic(err)
	}
}

// check runs all checks and user-defined validators on the builder.
func (_u *DocumentFileUpdateOne) check() error {
	if v, ok := _u.mutation.SourcePath(); ok {
		if err := documentfile.SourcePathValidator(v); err != nil {
			return &ValidationError{Name: "source_path", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.source_path": %w`, err)}
		}
	}
	if v, ok := _u.mutation.ContentHash(); ok {
		if err := documentfile.ContentHashValidator(v); err != nil {
			return &ValidationError{Name: "content_hash", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.content_hash": %w`, err)}
		}
	}
	if v, ok := _u.mutation.Filename(); ok {
		if err := documentfile.FilenameValidator(v); err != nil {
			return &ValidationError{Name: "filename", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.filename": %w`, err)}
		}
	}
	if v, ok := _u.mutation.FileExt(); ok {
		if err := documentfile.FileExtValidator(v); err != nil {
			return &ValidationError{Name: "file_ext", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.file_ext": %w`, err)}
		}
	}
	if v, ok := _u.mutation.FileSize(); ok {
		if err := documentfile.FileSizeValidator(v); err != nil {
			return &ValidationError{Name: "file_size", err: fmt.Errorf(`ent: validator failed for field "DocumentFile.file_size": %w`, err)}
		}
	}
	return nil
}

func (_u *DocumentFileUpdateOne) sqlSave(ctx context.Context) (_node *DocumentFile, err error) {
	if err := _u.check(); err != nil {
		return _node, err
	}
	_spec := sqlgraph.NewUpdateSpec(documentfile.Table, documentfile.Columns, sqlgraph.NewFieldSpec(documentfile.FieldID, field.TypeUUID))
	id, ok := _u.mutation.ID()
	if !ok {
		return nil, &ValidationError{Name: "id", err: errors.New(`ent: missing "DocumentFile.id" for update`)}
	}
	_spec.Node.ID.Value = id
	if fields := _u.fields; len(fields) > 0 {
		_spec.Node.Columns = make([]string, 0, len(fields))
		_spec.Node.Columns = append(_spec.Node.Columns, documentfile.FieldID)
		for _, f := range fields {
			if !documentfile.ValidColumn(f) {
				return nil, &ValidationError{Name: f, err: fmt.Errorf("ent: invalid field %q for query", f)}
			}
			if f != documentfile.FieldID {
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
	if value, ok := _u.mutation.SourcePath(); ok {
		_spec.SetField(documentfile.FieldSourcePath, field.TypeString, value)
	}
	if value, ok := _u.mutation.ContentHash(); ok {
		_spec.SetField(documentfile.FieldContentHash, field.TypeBytes, value)
	}
	if value, ok := _u.mutation.Filename(); ok {
		_spec.SetField(documentfile.FieldFilename, field.TypeString, value)
	}
	if value, ok := _u.mutation.FileExt(); ok {
		_spec.SetField(documentfile.FieldFileExt, field.TypeString, value)
	}
	if value, ok := _u.mutation.FileSize(); ok {
		_spec.SetField(documentfile.FieldFileSize, field.TypeInt, value)
	}
	if value, ok := _u.mutation.AddedFileSize(); ok {
		_spec.AddField(documentfile.FieldFileSize, field.TypeInt, value)
	}
	if value, ok := _u.mutation.UploadedAt(); ok {
		_spec.SetField(documentfile.FieldUploadedAt, field.TypeTime, value)
	}
	if _u.mutation.JobsCleared() {
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
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.RemovedJobsIDs(); len(nodes) > 0 && !_u.mutation.JobsCleared() {
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
		_spec.Edges.Clear = append(_spec.Edges.Clear, edge)
	}
	if nodes := _u.mutation.JobsIDs(); len(nodes) > 0 {
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
		_spec.Edges.Add = append(_spec.Edges.Add, edge)
	}
	_node = &DocumentFile{config: _u.config}
	_spec.Assign = _node.assignValues
	_spec.ScanValues = _node.scanValues
	if err = sqlgraph.UpdateNode(ctx, _u.driver, _spec); err != nil {
		if _, ok := err.(*sqlgraph.NotFoundError); ok {
			err = &NotFoundError{documentfile.Label}
		} else if sqlgraph.IsConstraintError(err) {
			err = &ConstraintError{msg: err.Error(), wrap: err}
		}
		return nil, err
	}
	_u.mutation.done = true
	return _node, nil
}
