// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/enerdoc/docingest/gen/ent/predicate"
	"github.com/google/uuid"
)

const (
	// Operation types.
	OpCreate    = ent.OpCreate
	OpDelete    = ent.OpDelete
	OpDeleteOne = ent.OpDeleteOne
	OpUpdate    = ent.OpUpdate
	OpUpdateOne = ent.OpUpdateOne

	// Node types.
	TypeDocumentFile = "DocumentFile"
	TypeExtractJob   = "ExtractJob"
)

// DocumentFileMutation represents an operation that mutates the DocumentFile nodes in the graph.
type DocumentFileMutation struct {
	config
	op            Op
	typ           string
	id            *uuid.UUID
	source_path   *string
	content_hash  *[]byte
	filename      *string
	file_ext      *string
	file_size     *int
	addfile_size  *int
	uploaded_at   *time.Time
	clearedFields map[string]struct{}
	jobs          map[uuid.UUID]struct{}
	removedjobs   map[uuid.UUID]struct{}
	clearedjobs   bool
	done          bool
	oldValue      func(context.Context) (*DocumentFile, error)
	predicates    []predicate.DocumentFile
}

var _ ent.Mutation = (*DocumentFileMutation)(nil)

// documentfileOption allows management of the mutation configuration using functional options.
type documentfileOption func(*DocumentFileMutation)

// newDocumentFileMutation creates new mutation for the DocumentFile entity.
func newDocumentFileMutation(c config, op Op, opts ...documentfileOption) *DocumentFileMutation {
	m := &DocumentFileMutation{
		config:        c,
		op:            op,
		typ:           TypeDocumentFile,
		clearedFields: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// withDocumentFileID sets the ID field of the mutation.
func withDocumentFileID(id uuid.UUID) documentfileOption {
	return func(m *DocumentFileMutation) {
		var (
			err   error
			once  sync.Once
			value *DocumentFile
		)
		m.oldValue = func(ctx context.Context) (*DocumentFile, error) {
			once.Do(func() {
				if m.done {
					err = errors.New("querying old values post mutation is not allowed")
				} else {
					value, err = m.Client().DocumentFile.Get(ctx, id)
				}
			})
			return value, err
		}
		m.id = &id
	}
}

// withDocumentFile sets the old DocumentFile of the mutation.
func withDocumentFile(node *DocumentFile) documentfileOption {
	return func(m *DocumentFileMutation) {
		m.oldValue = func(context.Context) (*DocumentFile, error) {
			return node, nil
		}
		m.id = &node.ID
	}
}

// Client returns a new `ent.Client` from the mutation. If the mutation was
// executed in a transaction (ent.Tx), a transactional client is returned.
func (m DocumentFileMutation) Client() *Client {
	client := &Client{config: m.config}
	client.init()
	return client
}

// Tx returns an `ent.Tx` for mutations that were executed in transactions;
// it returns an error otherwise.
func (m DocumentFileMutation) Tx() (*Tx, error) {
	if _, ok := m.driver.(*txDriver); !ok {
		return nil, errors.New("ent: mutation is not running in a transaction")
	}
	tx := &Tx{config: m.config}
	tx.init()
	return tx, nil
}

// SetID sets the value of the id field. Note that this
// operation is only accepted on creation of DocumentFile entities.
func (m *DocumentFileMutation) SetID(id uuid.UUID) {
	m.id = &id
}

// ID returns the ID value in the mutation. Note that the ID is only available
// if it was provided to the builder or after it was returned from the database.
func (m *DocumentFileMutation) ID() (id uuid.UUID, exists bool) {
	if m.id == nil {
		return
	}
	return *m.id, true
}

// IDs queries the database and returns the entity ids that match the mutation's predicate.
// That means, if the mutation is applied within a transaction with an isolation level such
// as sql.LevelSerializable, the returned ids match the ids of the rows that will be updated
// or updated by the mutation.
func (m *DocumentFileMutation) IDs(ctx context.Context) ([]uuid.UUID, error) {
	switch {
	case m.op.Is(OpUpdateOne | OpDeleteOne):
		id, exists := m.ID()
		if exists {
			return []uuid.UUID{id}, nil
		}
		fallthrough
	case m.op.Is(OpUpdate | OpDelete):
		return m.Client().DocumentFile.Query().Where(m.predicates...).IDs(ctx)
	default:
		return nil, fmt.Errorf("IDs is not allowed on %s operations", m.op)
	}
}

// SetSourcePath sets the "source_path" field.
func (m *DocumentFileMutation) SetSourcePath(s string) {
	m.source_path = &s
}

// SourcePath returns the value of the "source_path" field in the mutation.
func (m *DocumentFileMutation) SourcePath() (r string, exists bool) {
	v := m.source_path
	if v == nil {
		return
	}
	return *v, true
}

// OldSourcePath returns the old "source_path" field's value of the DocumentFile entity.
// If the DocumentFile object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *DocumentFileMutation) OldSourcePath(ctx context.Context) (v string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldSourcePath is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldSourcePath requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldSourcePath: %w", err)
	}
	return oldValue.SourcePath, nil
}

// ResetSourcePath resets all changes to the "source_path" field.
func (m *DocumentFileMutation) ResetSourcePath() {
	m.source_path = nil
}

// SetContentHash sets the "content_hash" field.
func (m *DocumentFileMutation) SetContentHash(b []byte) {
	m.content_hash = &b
}

// ContentHash returns the value of the "content_hash" field in the mutation.
func (m *DocumentFileMutation) ContentHash() (r []byte, exists bool) {
	v := m.content_hash
	if v == nil {
		return
	}
	return *v, true
}

// OldContentHash returns the old "content_hash" field's value of the DocumentFile entity.
// If the DocumentFile object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *DocumentFileMutation) OldContentHash(ctx context.Context) (v []byte, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldContentHash is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldContentHash requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldContentHash: %w", err)
	}
	return oldValue.ContentHash, nil
}

// ResetContentHash resets all changes to the "content_hash" field.
func (m *DocumentFileMutation) ResetContentHash() {
	m.content_hash = nil
}

// SetFilename sets the "filename" field.
func (m *DocumentFileMutation) SetFilename(s string) {
	m.filename = &s
}

// Filename returns the value of the "filename" field in the mutation.
func (m *DocumentFileMutation) Filename() (r string, exists bool) {
	v := m.filename
	if v == nil {
		return
	}
	return *v, true
}

// OldFilename returns the old "filename" field's value of the DocumentFile entity.
// If the DocumentFile object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *DocumentFileMutation) OldFilename(ctx context.Context) (v string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldFilename is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldFilename requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldFilename: %w", err)
	}
	return oldValue.Filename, nil
}

// ResetFilename resets all changes to the "filename" field.
func (m *DocumentFileMutation) ResetFilename() {
	m.filename = nil
}

// SetFileExt sets the "file_ext" field.
func (m *DocumentFileMutation) SetFileExt(s string) {
	m.file_ext = &s
}

// FileExt returns the value of the "file_ext" field in the mutation.
func (m *DocumentFileMutation) FileExt() (r string, exists bool) {
	v := m.file_ext
	if v == nil {
		return
	}
	return *v, true
}

// OldFileExt returns the old "file_ext" field's value of the DocumentFile entity.
// If the DocumentFile object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *DocumentFileMutation) OldFileExt(ctx context.Context) (v string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldFileExt is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldFileExt requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldFileExt: %w", err)
	}
	return oldValue.FileExt, nil
}

// ResetFileExt resets all changes to the "file_ext" field.
func (m *DocumentFileMutation) ResetFileExt() {
	m.file_ext = nil
}

// SetFileSize sets the "file_size" field.
func (m *DocumentFileMutation) SetFileSize(i int) {
	m.file_size = &i
	m.addfile_size = nil
}

// FileSize returns the value of the "file_size" field in the mutation.
func (m *DocumentFileMutation) FileSize() (r int, exists bool) {
	v := m.file_size
	if v == nil {
		return
	}
	return *v, true
}

// OldFileSize returns the old "file_size" field's value of the DocumentFile entity.
// If the DocumentFile object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *DocumentFileMutation) OldFileSize(ctx context.Context) (v int, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldFileSize is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldFileSize requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldFileSize: %w", err)
	}
	return oldValue.FileSize, nil
}

// AddFileSize adds i to the "file_size" field.
func (m *DocumentFileMutation) AddFileSize(i int) {
	if m.addfile_size != nil {
		*m.addfile_size += i
	} else {
		m.addfile_size = &i
	}
}

// AddedFileSize returns the value that was added to the "file_size" field in this mutation.
func (m *DocumentFileMutation) AddedFileSize() (r int, exists bool) {
	v := m.addfile_size
	if v == nil {
		return
	}
	return *v, true
}

// ResetFileSize resets all changes to the "file_size" field.
func (m *DocumentFileMutation) ResetFileSize() {
	m.file_size = nil
	m.addfile_size = nil
}

// SetUploadedAt sets the "uploaded_at" field.
func (m *DocumentFileMutation) SetUploadedAt(t time.Time) {
	m.uploaded_at = &t
}

// UploadedAt returns the value of the "uploaded_at" field in the mutation.
func (m *DocumentFileMutation) UploadedAt() (r time.Time, exists bool) {
	v := m.uploaded_at
	if v == nil {
		return
	}
	return *v, true
}

// OldUploadedAt returns the old "uploaded_at" field's value of the DocumentFile entity.
// If the DocumentFile object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *DocumentFileMutation) OldUploadedAt(ctx context.Context) (v time.Time, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldUploadedAt is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldUploadedAt requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldUploadedAt: %w", err)
	}
	return oldValue.UploadedAt, nil
}

// ResetUploadedAt resets all changes to the "uploaded_at" field.
func (m *DocumentFileMutation) ResetUploadedAt() {
	m.uploaded_at = nil
}

// AddJobIDs adds the "jobs" edge to the ExtractJob entity by ids.
func (m *DocumentFileMutation) AddJobIDs(ids ...uuid.UUID) {
	if m.jobs == nil {
		m.jobs = make(map[uuid.UUID]struct{})
	}
	for i := range ids {
		m.jobs[ids[i]] = struct{}{}
	}
}

// ClearJobs clears the "jobs" edge to the ExtractJob entity.
func (m *DocumentFileMutation) ClearJobs() {
	m.clearedjobs = true
}

// JobsCleared reports if the "jobs" edge to the ExtractJob entity was cleared.
func (m *DocumentFileMutation) JobsCleared() bool {
	return m.clearedjobs
}

// RemoveJobIDs removes the "jobs" edge to the ExtractJob entity by IDs.
func (m *DocumentFileMutation) RemoveJobIDs(ids ...uuid.UUID) {
	if m.removedjobs == nil {
		m.removedjobs = make(map[uuid.UUID]struct{})
	}
	for i := range ids {
		delete(m.jobs, ids[i])
		m.removedjobs[ids[i]] = struct{}{}
	}
}

// RemovedJobs returns the removed IDs of the "jobs" edge to the ExtractJob entity.
func (m *DocumentFileMutation) RemovedJobsIDs() (ids []uuid.UUID) {
	for id := range m.removedjobs {
		ids = append(ids, id)
	}
	return
}

// JobsIDs returns the "jobs" edge IDs in the mutation.
func (m *DocumentFileMutation) JobsIDs() (ids []uuid.UUID) {
	for id := range m.jobs {
		ids = append(ids, id)
	}
	return
}

// ResetJobs resets all changes to the "jobs" edge.
func (m *DocumentFileMutation) ResetJobs() {
	m.jobs = nil
	m.clearedjobs = false
	m.removedjobs = nil
}

// Where appends a list predicates to the DocumentFileMutation builder.
func (m *DocumentFileMutation) Where(ps ...predicate.DocumentFile) {
	m.predicates = append(m.predicates, ps...)
}

// WhereP appends storage-level predicates to the DocumentFileMutation builder. Using this method,
// users can use type-assertion to append predicates that do not depend on any generated package.
func (m *DocumentFileMutation) WhereP(ps ...func(*sql.Selector)) {
	p := make([]predicate.DocumentFile, len(ps))
	for i := range ps {
		p[i] = ps[i]
	}
	m.Where(p...)
}

// Op returns the operation name.
func (m *DocumentFileMutation) Op() Op {
	return m.op
}

// SetOp allows setting the mutation operation.
func (m *DocumentFileMutation) SetOp(op Op) {
	m.op = op
}

// Type returns the node type of this mutation (DocumentFile).
func (m *DocumentFileMutation) Type() string {
	return m.typ
}

// Fields returns all fields that were changed during this mutation. Note that in
// order to get all numeric fields that were incremented/decremented, call
// AddedFields().
func (m *DocumentFileMutation) Fields() []string {
	fields := make([]string, 0, 6)
	if m.source_path != nil {
		fields = append(fields, documentfile.FieldSourcePath)
	}
	if m.content_hash != nil {
		fields = append(fields, documentfile.FieldContentHash)
	}
	if m.filename != nil {
		fields = append(fields, documentfile.FieldFilename)
	}
	if m.file_ext != nil {
		fields = append(fields, documentfile.FieldFileExt)
	}
	if m.file_size != nil {
		fields = append(fields, documentfile.FieldFileSize)
	}
	if m.uploaded_at != nil {
		fields = append(fields, documentfile.FieldUploadedAt)
	}
	return fields
}

// Field returns the value of a field with the given name. The second boolean
// return value indicates that this field was not set, or was not defined in the
// schema.
func (m *DocumentFileMutation) Field(name string) (ent.Value, bool) {
	switch name {
	case documentfile.FieldSourcePath:
		return m.SourcePath()
	case documentfile.FieldContentHash:
		return m.ContentHash()
	case documentfile.FieldFilename:
		return m.Filename()
	case documentfile.FieldFileExt:
		return m.FileExt()
	case documentfile.FieldFileSize:
		return m.FileSize()
	case documentfile.FieldUploadedAt:
		return m.UploadedAt()
	}
	return nil, false
}

// OldField returns the old value of the field from the database. An error is
// returned if the mutation operation is not UpdateOne, or the query to the
// database failed.
func (m *DocumentFileMutation) OldField(ctx context.Context, name string) (ent.Value, error) {
	switch name {
	case documentfile.FieldSourcePath:
		return m.OldSourcePath(ctx)
	case documentfile.FieldContentHash:
		return m.OldContentHash(ctx)
	case documentfile.FieldFilename:
		return m.OldFilename(ctx)
	case documentfile.FieldFileExt:
		return m.OldFileExt(ctx)
	case documentfile.FieldFileSize:
		return m.OldFileSize(ctx)
	case documentfile.FieldUploadedAt:
		return m.OldUploadedAt(ctx)
	}
	return nil, fmt.Errorf("unknown DocumentFile field %s", name)
}

// SetField sets the value of a field with the given name. It returns an error if
// the field is not defined in the schema, or if the type mismatched the field
// type.
func (m *DocumentFileMutation) SetField(name string, value ent.Value) error {
	switch name {
	case documentfile.FieldSourcePath:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetSourcePath(v)
		return nil
	case documentfile.FieldContentHash:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetContentHash(v)
		return nil
	case documentfile.FieldFilename:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetFilename(v)
		return nil
	case documentfile.FieldFileExt:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetFileExt(v)
		return nil
	case documentfile.FieldFileSize:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetFileSize(v)
		return nil
	case documentfile.FieldUploadedAt:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetUploadedAt(v)
		return nil
	}
	return fmt.Errorf("unknown DocumentFile field %s", name)
}

// AddedFields returns all numeric fields that were incremented/decremented during
// this mutation.
func (m *DocumentFileMutation) AddedFields() []string {
	var fields []string
	if m.addfile_size != nil {
		fields = append(fields, documentfile.FieldFileSize)
	}
	return fields
}

// AddedField returns the numeric value that was incremented/decremented on a field
// with the given name. The second boolean return value indicates that this field
// was not set, or was not defined in the schema.
func (m *DocumentFileMutation) AddedField(name string) (ent.Value, bool) {
	switch name {
	case documentfile.FieldFileSize:
		return m.AddedFileSize()
	}
	return nil, false
}

// AddField adds the value to the field with the given name. It returns an error if
// the field is not defined in the schema, or if the type mismatched the field
// type.
func (m *DocumentFileMutation) AddField(name string, value ent.Value) error {
	switch name {
	case documentfile.FieldFileSize:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.AddFileSize(v)
		return nil
	}
	return fmt.Errorf("unknown DocumentFile numeric field %s", name)
}

// ClearedFields returns all nullable fields that were cleared during this
// mutation.
func (m *DocumentFileMutation) ClearedFields() []string {
	return nil
}

// FieldCleared returns a boolean indicating if a field with the given name was
// cleared in this mutation.
func (m *DocumentFileMutation) FieldCleared(name string) bool {
	_, ok := m.clearedFields[name]
	return ok
}

// ClearField clears the value of the field with the given name. It returns an
// error if the field is not defined in the schema.
func (m *DocumentFileMutation) ClearField(name string) error {
	return fmt.Errorf("unknown DocumentFile nullable field %s", name)
}

// ResetField resets all changes in the mutation for the field with the given name.
// It returns an error if the field is not defined in the schema.
func (m *DocumentFileMutation) ResetField(name string) error {
	switch name {
	case documentfile.FieldSourcePath:
		m.ResetSourcePath()
		return nil
	case documentfile.FieldContentHash:
		m.ResetContentHash()
		return nil
	case documentfile.FieldFilename:
		m.ResetFilename()
		return nil
	case documentfile.FieldFileExt:
		m.ResetFileExt()
		return nil
	case documentfile.FieldFileSize:
		m.ResetFileSize()
		return nil
	case documentfile.FieldUploadedAt:
		m.ResetUploadedAt()
		return nil
	}
	return fmt.Errorf("unknown DocumentFile field %s", name)
}

// AddedEdges returns all edge names that were set/added in this mutation.
func (m *DocumentFileMutation) AddedEdges() []string {
	edges := make([]string, 0, 1)
	if m.jobs != nil {
		edges = append(edges, documentfile.EdgeJobs)
	}
	return edges
}

// AddedIDs returns all IDs (to other nodes) that were added for the given edge
// name in this mutation.
func (m *DocumentFileMutation) AddedIDs(name string) []ent.Value {
	switch name {
	case documentfile.EdgeJobs:
		ids := make([]ent.Value, 0, len(m.jobs))
		for id := range m.jobs {
			ids = append(ids, id)
		}
		return ids
	}
	return nil
}

// RemovedEdges returns all edge names that were removed in this mutation.
func (m *DocumentFileMutation) RemovedEdges() []string {
	edges := make([]string, 0, 1)
	if m.removedjobs != nil {
		edges = append(edges, documentfile.EdgeJobs)
	}
	return edges
}

// RemovedIDs returns all IDs (to other nodes) that were removed for the edge with
// the given name in this mutation.
func (m *DocumentFileMutation) RemovedIDs(name string) []ent.Value {
	switch name {
	case documentfile.EdgeJobs:
		ids := make([]ent.Value, 0, len(m.removedjobs))
		for id := range m.removedjobs {
			ids = append(ids, id)
		}
		return ids
	}
	return nil
}

// ClearedEdges returns all edge names that were cleared in this mutation.
func (m *DocumentFileMutation) ClearedEdges() []string {
	edges := make([]string, 0, 1)
	if m.clearedjobs {
		edges = append(edges, documentfile.EdgeJobs)
	}
	return edges
}

// EdgeCleared returns a boolean which indicates if the edge with the given name
// was cleared in this mutation.
func (m *DocumentFileMutation) EdgeCleared(name string) bool {
	switch name {
	case documentfile.EdgeJobs:
		return m.clearedjobs
	}
	return false
}

// ClearEdge clears the value of the edge with the given name. It returns an error
// if that edge is not defined in the schema.
func (m *DocumentFileMutation) ClearEdge(name string) error {
	switch name {
	}
	return fmt.Errorf("unknown DocumentFile unique edge %s", name)
}

// ResetEdge resets all changes to the edge with the given name in this mutation.
// It returns an error if the edge is not defined in the schema.
func (m *DocumentFileMutation) ResetEdge(name string) error {
	switch name {
	case documentfile.EdgeJobs:
		m.ResetJobs()
		return nil
	}
	return fmt.Errorf("unknown DocumentFile edge %s", name)
}

// ExtractJobMutation represents an operation that mutates the ExtractJob nodes in the graph.
type ExtractJobMutation struct {
	config
	op                   Op
	typ                  string
	id                   *uuid.UUID
	format               *string
	started_at           *time.Time
	finished_at          *time.Time
	status               *string
	error_message        *string
	strategy_used        *string
	used_recognition     *bool
	enhancement_applied  *bool
	extracted_text       *string
	tables               *json.RawMessage
	appendtables         json.RawMessage
	classification       *json.RawMessage
	appendclassification json.RawMessage
	clearedFields        map[string]struct{}
	file                 *uuid.UUID
	clearedfile          bool
	done                 bool
	oldValue             func(context.Context) (*ExtractJob, error)
	predicates           []predicate.ExtractJob
}

var _ ent.Mutation = (*ExtractJobMutation)(nil)

// extractjobOption allows management of the mutation configuration using functional options.
type extractjobOption func(*ExtractJobMutation)

// newExtractJobMutation creates new mutation for the ExtractJob entity.
func newExtractJobMutation(c config, op Op, opts ...extractjobOption) *ExtractJobMutation {
	m := &ExtractJobMutation{
		config:        c,
		op:            op,
		typ:           TypeExtractJob,
		clearedFields: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// withExtractJobID sets the ID field of the mutation.
func withExtractJobID(id uuid.UUID) extractjobOption {
	return func(m *ExtractJobMutation) {
		var (
			err   error
			once  sync.Once
			value *ExtractJob
		)
		m.oldValue = func(ctx context.Context) (*ExtractJob, error) {
			once.Do(func() {
				if m.done {
					err = errors.New("querying old values post mutation is not allowed")
				} else {
					value, err = m.Client().ExtractJob.Get(ctx, id)
				}
			})
			return value, err
		}
		m.id = &id
	}
}

// withExtractJob sets the old ExtractJob of the mutation.
func withExtractJob(node *ExtractJob) extractjobOption {
	return func(m *ExtractJobMutation) {
		m.oldValue = func(context.Context) (*ExtractJob, error) {
			return node, nil
		}
		m.id = &node.ID
	}
}

// Client returns a new `ent.Client` from the mutation. If the mutation was
// executed in a transaction (ent.Tx), a transactional client is returned.
func (m ExtractJobMutation) Client() *Client {
	client := &Client{config: m.config}
	client.init()
	return client
}

// Tx returns an `ent.Tx` for mutations that were executed in transactions;
// it returns an error otherwise.
func (m ExtractJobMutation) Tx() (*Tx, error) {
	if _, ok := m.driver.(*txDriver); !ok {
		return nil, errors.New("ent: mutation is not running in a transaction")
	}
	tx := &Tx{config: m.config}
	tx.init()
	return tx, nil
}

// SetID sets the value of the id field. Note that this
// operation is only accepted on creation of ExtractJob entities.
func (m *ExtractJobMutation) SetID(id uuid.UUID) {
	m.id = &id
}

// ID returns the ID value in the mutation. Note that the ID is only available
// if it was provided to the builder or after it was returned from the database.
func (m *ExtractJobMutation) ID() (id uuid.UUID, exists bool) {
	if m.id == nil {
		return
	}
	return *m.id, true
}

// IDs queries the database and returns the entity ids that match the mutation's predicate.
// That means, if the mutation is applied within a transaction with an isolation level such
// as sql.LevelSerializable, the returned ids match the ids of the rows that will be updated
// or updated by the mutation.
func (m *ExtractJobMutation) IDs(ctx context.Context) ([]uuid.UUID, error) {
	switch {
	case m.op.Is(OpUpdateOne | OpDeleteOne):
		id, exists := m.ID()
		if exists {
			return []uuid.UUID{id}, nil
		}
		fallthrough
	case m.op.Is(OpUpdate | OpDelete):
		return m.Client().ExtractJob.Query().Where(m.predicates...).IDs(ctx)
	default:
		return nil, fmt.Errorf("IDs is not allowed on %s operations", m.op)
	}
}

// SetFileID sets the "file_id" field.
func (m *ExtractJobMutation) SetFileID(u uuid.UUID) {
	m.file = &u
}

// FileID returns the value of the "file_id" field in the mutation.
func (m *ExtractJobMutation) FileID() (r uuid.UUID, exists bool) {
	v := m.file
	if v == nil {
		return
	}
	return *v, true
}

// OldFileID returns the old "file_id" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldFileID(ctx context.Context) (v uuid.UUID, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldFileID is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldFileID requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldFileID: %w", err)
	}
	return oldValue.FileID, nil
}

// ResetFileID resets all changes to the "file_id" field.
func (m *ExtractJobMutation) ResetFileID() {
	m.file = nil
}

// SetFormat sets the "format" field.
func (m *ExtractJobMutation) SetFormat(s string) {
	m.format = &s
}

// Format returns the value of the "format" field in the mutation.
func (m *ExtractJobMutation) Format() (r string, exists bool) {
	v := m.format
	if v == nil {
		return
	}
	return *v, true
}

// OldFormat returns the old "format" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldFormat(ctx context.Context) (v string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldFormat is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldFormat requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldFormat: %w", err)
	}
	return oldValue.Format, nil
}

// ResetFormat resets all changes to the "format" field.
func (m *ExtractJobMutation) ResetFormat() {
	m.format = nil
}

// SetStartedAt sets the "started_at" field.
func (m *ExtractJobMutation) SetStartedAt(t time.Time) {
	m.started_at = &t
}

// StartedAt returns the value of the "started_at" field in the mutation.
func (m *ExtractJobMutation) StartedAt() (r time.Time, exists bool) {
	v := m.started_at
	if v == nil {
		return
	}
	return *v, true
}

// OldStartedAt returns the old "started_at" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldStartedAt(ctx context.Context) (v time.Time, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldStartedAt is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldStartedAt requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldStartedAt: %w", err)
	}
	return oldValue.StartedAt, nil
}

// ResetStartedAt resets all changes to the "started_at" field.
func (m *ExtractJobMutation) ResetStartedAt() {
	m.started_at = nil
}

// SetFinishedAt sets the "finished_at" field.
func (m *ExtractJobMutation) SetFinishedAt(t time.Time) {
	m.finished_at = &t
}

// FinishedAt returns the value of the "finished_at" field in the mutation.
func (m *ExtractJobMutation) FinishedAt() (r time.Time, exists bool) {
	v := m.finished_at
	if v == nil {
		return
	}
	return *v, true
}

// OldFinishedAt returns the old "finished_at" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldFinishedAt(ctx context.Context) (v *time.Time, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldFinishedAt is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldFinishedAt requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldFinishedAt: %w", err)
	}
	return oldValue.FinishedAt, nil
}

// ClearFinishedAt clears the value of the "finished_at" field.
func (m *ExtractJobMutation) ClearFinishedAt() {
	m.finished_at = nil
	m.clearedFields[extractjob.FieldFinishedAt] = struct{}{}
}

// FinishedAtCleared returns if the "finished_at" field was cleared in this mutation.
func (m *ExtractJobMutation) FinishedAtCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldFinishedAt]
	return ok
}

// ResetFinishedAt resets all changes to the "finished_at" field.
func (m *ExtractJobMutation) ResetFinishedAt() {
	m.finished_at = nil
	delete(m.clearedFields, extractjob.FieldFinishedAt)
}

// SetStatus sets the "status" field.
func (m *ExtractJobMutation) SetStatus(s string) {
	m.status = &s
}

// Status returns the value of the "status" field in the mutation.
func (m *ExtractJobMutation) Status() (r string, exists bool) {
	v := m.status
	if v == nil {
		return
	}
	return *v, true
}

// OldStatus returns the old "status" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldStatus(ctx context.Context) (v *string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldStatus is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldStatus requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldStatus: %w", err)
	}
	return oldValue.Status, nil
}

// ClearStatus clears the value of the "status" field.
func (m *ExtractJobMutation) ClearStatus() {
	m.status = nil
	m.clearedFields[extractjob.FieldStatus] = struct{}{}
}

// StatusCleared returns if the "status" field was cleared in this mutation.
func (m *ExtractJobMutation) StatusCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldStatus]
	return ok
}

// ResetStatus resets all changes to the "status" field.
func (m *ExtractJobMutation) ResetStatus() {
	m.status = nil
	delete(m.clearedFields, extractjob.FieldStatus)
}

// SetErrorMessage sets the "error_message" field.
func (m *ExtractJobMutation) SetErrorMessage(s string) {
	m.error_message = &s
}

// ErrorMessage returns the value of the "error_message" field in the mutation.
func (m *ExtractJobMutation) ErrorMessage() (r string, exists bool) {
	v := m.error_message
	if v == nil {
		return
	}
	return *v, true
}

// OldErrorMessage returns the old "error_message" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldErrorMessage(ctx context.Context) (v *string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldErrorMessage is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldErrorMessage requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldErrorMessage: %w", err)
	}
	return oldValue.ErrorMessage, nil
}

// ClearErrorMessage clears the value of the "error_message" field.
func (m *ExtractJobMutation) ClearErrorMessage() {
	m.error_message = nil
	m.clearedFields[extractjob.FieldErrorMessage] = struct{}{}
}

// ErrorMessageCleared returns if the "error_message" field was cleared in this mutation.
func (m *ExtractJobMutation) ErrorMessageCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldErrorMessage]
	return ok
}

// ResetErrorMessage resets all changes to the "error_message" field.
func (m *ExtractJobMutation) ResetErrorMessage() {
	m.error_message = nil
	delete(m.clearedFields, extractjob.FieldErrorMessage)
}

// SetStrategyUsed sets the "strategy_used" field.
func (m *ExtractJobMutation) SetStrategyUsed(s string) {
	m.strategy_used = &s
}

// StrategyUsed returns the value of the "strategy_used" field in the mutation.
func (m *ExtractJobMutation) StrategyUsed() (r string, exists bool) {
	v := m.strategy_used
	if v == nil {
		return
	}
	return *v, true
}

// OldStrategyUsed returns the old "strategy_used" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldStrategyUsed(ctx context.Context) (v *string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldStrategyUsed is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldStrategyUsed requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldStrategyUsed: %w", err)
	}
	return oldValue.StrategyUsed, nil
}

// ClearStrategyUsed clears the value of the "strategy_used" field.
func (m *ExtractJobMutation) ClearStrategyUsed() {
	m.strategy_used = nil
	m.clearedFields[extractjob.FieldStrategyUsed] = struct{}{}
}

// StrategyUsedCleared returns if the "strategy_used" field was cleared in this mutation.
func (m *ExtractJobMutation) StrategyUsedCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldStrategyUsed]
	return ok
}

// ResetStrategyUsed resets all changes to the "strategy_used" field.
func (m *ExtractJobMutation) ResetStrategyUsed() {
	m.strategy_used = nil
	delete(m.clearedFields, extractjob.FieldStrategyUsed)
}

// SetUsedRecognition sets the "used_recognition" field.
func (m *ExtractJobMutation) SetUsedRecognition(b bool) {
	m.used_recognition = &b
}

// UsedRecognition returns the value of the "used_recognition" field in the mutation.
func (m *ExtractJobMutation) UsedRecognition() (r bool, exists bool) {
	v := m.used_recognition
	if v == nil {
		return
	}
	return *v, true
}

// OldUsedRecognition returns the old "used_recognition" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldUsedRecognition(ctx context.Context) (v bool, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldUsedRecognition is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldUsedRecognition requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldUsedRecognition: %w", err)
	}
	return oldValue.UsedRecognition, nil
}

// ResetUsedRecognition resets all changes to the "used_recognition" field.
func (m *ExtractJobMutation) ResetUsedRecognition() {
	m.used_recognition = nil
}

// SetEnhancementApplied sets the "enhancement_applied" field.
func (m *ExtractJobMutation) SetEnhancementApplied(b bool) {
	m.enhancement_applied = &b
}

// EnhancementApplied returns the value of the "enhancement_applied" field in the mutation.
func (m *ExtractJobMutation) EnhancementApplied() (r bool, exists bool) {
	v := m.enhancement_applied
	if v == nil {
		return
	}
	return *v, true
}

// OldEnhancementApplied returns the old "enhancement_applied" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldEnhancementApplied(ctx context.Context) (v bool, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldEnhancementApplied is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldEnhancementApplied requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldEnhancementApplied: %w", err)
	}
	return oldValue.EnhancementApplied, nil
}

// ResetEnhancementApplied resets all changes to the "enhancement_applied" field.
func (m *ExtractJobMutation) ResetEnhancementApplied() {
	m.enhancement_applied = nil
}

// SetExtractedText sets the "extracted_text" field.
func (m *ExtractJobMutation) SetExtractedText(s string) {
	m.extracted_text = &s
}

// ExtractedText returns the value of the "extracted_text" field in the mutation.
func (m *ExtractJobMutation) ExtractedText() (r string, exists bool) {
	v := m.extracted_text
	if v == nil {
		return
	}
	return *v, true
}

// OldExtractedText returns the old "extracted_text" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldExtractedText(ctx context.Context) (v *string, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldExtractedText is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldExtractedText requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldExtractedText: %w", err)
	}
	return oldValue.ExtractedText, nil
}

// ClearExtractedText clears the value of the "extracted_text" field.
func (m *ExtractJobMutation) ClearExtractedText() {
	m.extracted_text = nil
	m.clearedFields[extractjob.FieldExtractedText] = struct{}{}
}

// ExtractedTextCleared returns if the "extracted_text" field was cleared in this mutation.
func (m *ExtractJobMutation) ExtractedTextCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldExtractedText]
	return ok
}

// ResetExtractedText resets all changes to the "extracted_text" field.
func (m *ExtractJobMutation) ResetExtractedText() {
	m.extracted_text = nil
	delete(m.clearedFields, extractjob.FieldExtractedText)
}

// SetTables sets the "tables" field.
func (m *ExtractJobMutation) SetTables(jm json.RawMessage) {
	m.tables = &jm
	m.appendtables = nil
}

// Tables returns the value of the "tables" field in the mutation.
func (m *ExtractJobMutation) Tables() (r json.RawMessage, exists bool) {
	v := m.tables
	if v == nil {
		return
	}
	return *v, true
}

// OldTables returns the old "tables" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldTables(ctx context.Context) (v json.RawMessage, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldTables is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldTables requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldTables: %w", err)
	}
	return oldValue.Tables, nil
}

// AppendTables adds jm to the "tables" field.
func (m *ExtractJobMutation) AppendTables(jm json.RawMessage) {
	m.appendtables = append(m.appendtables, jm...)
}

// AppendedTables returns the list of values that were appended to the "tables" field in this mutation.
func (m *ExtractJobMutation) AppendedTables() (json.RawMessage, bool) {
	if len(m.appendtables) == 0 {
		return nil, false
	}
	return m.appendtables, true
}

// ClearTables clears the value of the "tables" field.
func (m *ExtractJobMutation) ClearTables() {
	m.tables = nil
	m.appendtables = nil
	m.clearedFields[extractjob.FieldTables] = struct{}{}
}

// TablesCleared returns if the "tables" field was cleared in this mutation.
func (m *ExtractJobMutation) TablesCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldTables]
	return ok
}

// ResetTables resets all changes to the "tables" field.
func (m *ExtractJobMutation) ResetTables() {
	m.tables = nil
	m.appendtables = nil
	delete(m.clearedFields, extractjob.FieldTables)
}

// SetClassification sets the "classification" field.
func (m *ExtractJobMutation) SetClassification(jm json.RawMessage) {
	m.classification = &jm
	m.appendclassification = nil
}

// Classification returns the value of the "classification" field in the mutation.
func (m *ExtractJobMutation) Classification() (r json.RawMessage, exists bool) {
	v := m.classification
	if v == nil {
		return
	}
	return *v, true
}

// OldClassification returns the old "classification" field's value of the ExtractJob entity.
// If the ExtractJob object wasn't provided to the builder, the object is fetched from the database.
// An error is returned if the mutation operation is not UpdateOne, or the database query fails.
func (m *ExtractJobMutation) OldClassification(ctx context.Context) (v json.RawMessage, err error) {
	if !m.op.Is(OpUpdateOne) {
		return v, errors.New("OldClassification is only allowed on UpdateOne operations")
	}
	if m.id == nil || m.oldValue == nil {
		return v, errors.New("OldClassification requires an ID field in the mutation")
	}
	oldValue, err := m.oldValue(ctx)
	if err != nil {
		return v, fmt.Errorf("querying old value for OldClassification: %w", err)
	}
	return oldValue.Classification, nil
}

// AppendClassification adds jm to the "classification" field.
func (m *ExtractJobMutation) AppendClassification(jm json.RawMessage) {
	m.appendclassification = append(m.appendclassification, jm...)
}

// AppendedClassification returns the list of values that were appended to the "classification" field in this mutation.
func (m *ExtractJobMutation) AppendedClassification() (json.RawMessage, bool) {
	if len(m.appendclassification) == 0 {
		return nil, false
	}
	return m.appendclassification, true
}

// ClearClassification clears the value of the "classification" field.
func (m *ExtractJobMutation) ClearClassification() {
	m.classification = nil
	m.appendclassification = nil
	m.clearedFields[extractjob.FieldClassification] = struct{}{}
}

// ClassificationCleared returns if the "classification" field was cleared in this mutation.
func (m *ExtractJobMutation) ClassificationCleared() bool {
	_, ok := m.clearedFields[extractjob.FieldClassification]
	return ok
}

// ResetClassification resets all changes to the "classification" field.
func (m *ExtractJobMutation) ResetClassification() {
	m.classification = nil
	m.appendclassification = nil
	delete(m.clearedFields, extractjob.FieldClassification)
}

// ClearFile clears the "file" edge to the DocumentFile entity.
func (m *ExtractJobMutation) ClearFile() {
	m.clearedfile = true
	m.clearedFields[extractjob.FieldFileID] = struct{}{}
}

// FileCleared reports if the "file" edge to the DocumentFile entity was cleared.
func (m *ExtractJobMutation) FileCleared() bool {
	return m.clearedfile
}

// FileIDs returns the "file" edge IDs in the mutation.
// Note that IDs always returns len(IDs) <= 1 for unique edges, and you should use
// FileID instead. It exists only for internal usage by the builders.
func (m *ExtractJobMutation) FileIDs() (ids []uuid.UUID) {
	if id := m.file; id != nil {
		ids = append(ids, *id)
	}
	return
}

// ResetFile resets all changes to the "file" edge.
func (m *ExtractJobMutation) ResetFile() {
	m.file = nil
	m.clearedfile = false
}

// Where appends a list predicates to the ExtractJobMutation builder.
func (m *ExtractJobMutation) Where(ps ...predicate.ExtractJob) {
	m.predicates = append(m.predicates, ps...)
}

// WhereP appends storage-level predicates to the ExtractJobMutation builder. Using this method,
// users can use type-assertion to append predicates that do not depend on any generated package.
func (m *ExtractJobMutation) WhereP(ps ...func(*sql.Selector)) {
	p := make([]predicate.ExtractJob, len(ps))
	for i := range ps {
		p[i] = ps[i]
	}
	m.Where(p...)
}

// Op returns the operation name.
func (m *ExtractJobMutation) Op() Op {
	return m.op
}

// SetOp allows setting the mutation operation.
func (m *ExtractJobMutation) SetOp(op Op) {
	m.op = op
}

// Type returns the node type of this mutation (ExtractJob).
func (m *ExtractJobMutation) Type() string {
	return m.typ
}

// Fields returns all fields that were changed during this mutation. Note that in
// order to get all numeric fields that were incremented/decremented, call
// AddedFields().
func (m *ExtractJobMutation) Fields() []string {
	fields := make([]string, 0, 12)
	if m.file != nil {
		fields = append(fields, extractjob.FieldFileID)
	}
	if m.format != nil {
		fields = append(fields, extractjob.FieldFormat)
	}
	if m.started_at != nil {
		fields = append(fields, extractjob.FieldStartedAt)
	}
	if m.finished_at != nil {
		fields = append(fields, extractjob.FieldFinishedAt)
	}
	if m.status != nil {
		fields = append(fields, extractjob.FieldStatus)
	}
	if m.error_message != nil {
		fields = append(fields, extractjob.FieldErrorMessage)
	}
	if m.strategy_used != nil {
		fields = append(fields, extractjob.FieldStrategyUsed)
	}
	if m.used_recognition != nil {
		fields = append(fields, extractjob.FieldUsedRecognition)
	}
	if m.enhancement_applied != nil {
		fields = append(fields, extractjob.FieldEnhancementApplied)
	}
	if m.extracted_text != nil {
		fields = append(fields, extractjob.FieldExtractedText)
	}
	if m.tables != nil {
		fields = append(fields, extractjob.FieldTables)
	}
	if m.classification != nil {
		fields = append(fields, extractjob.FieldClassification)
	}
	return fields
}

// Field returns the value of a field with the given name. The second boolean
// return value indicates that this field was not set, or was not defined in the
// schema.
func (m *ExtractJobMutation) Field(name string) (ent.Value, bool) {
	switch name {
	case extractjob.FieldFileID:
		return m.FileID()
	case extractjob.FieldFormat:
		return m.Format()
	case extractjob.FieldStartedAt:
		return m.StartedAt()
	case extractjob.FieldFinishedAt:
		return m.FinishedAt()
	case extractjob.FieldStatus:
		return m.Status()
	case extractjob.FieldErrorMessage:
		return m.ErrorMessage()
	case extractjob.FieldStrategyUsed:
		return m.StrategyUsed()
	case extractjob.FieldUsedRecognition:
		return m.UsedRecognition()
	case extractjob.FieldEnhancementApplied:
		return m.EnhancementApplied()
	case extractjob.FieldExtractedText:
		return m.ExtractedText()
	case extractjob.FieldTables:
		return m.Tables()
	case extractjob.FieldClassification:
		return m.Classification()
	}
	return nil, false
}

// OldField returns the old value of the field from the database. An error is
// returned if the mutation operation is not UpdateOne, or the query to the
// database failed.
func (m *ExtractJobMutation) OldField(ctx context.Context, name string) (ent.Value, error) {
	switch name {
	case extractjob.FieldFileID:
		return m.OldFileID(ctx)
	case extractjob.FieldFormat:
		return m.OldFormat(ctx)
	case extractjob.FieldStartedAt:
		return m.OldStartedAt(ctx)
	case extractjob.FieldFinishedAt:
		return m.OldFinishedAt(ctx)
	case extractjob.FieldStatus:
		return m.OldStatus(ctx)
	case extractjob.FieldErrorMessage:
		return m.OldErrorMessage(ctx)
	case extractjob.FieldStrategyUsed:
		return m.OldStrategyUsed(ctx)
	case extractjob.FieldUsedRecognition:
		return m.OldUsedRecognition(ctx)
	case extractjob.FieldEnhancementApplied:
		return m.OldEnhancementApplied(ctx)
	case extractjob.FieldExtractedText:
		return m.OldExtractedText(ctx)
	case extractjob.FieldTables:
		return m.OldTables(ctx)
	case extractjob.FieldClassification:
		return m.OldClassification(ctx)
	}
	return nil, fmt.Errorf("unknown ExtractJob field %s", name)
}

// SetField sets the value of a field with the given name. It returns an error if
// the field is not defined in the schema, or if the type mismatched the field
// type.
func (m *ExtractJobMutation) SetField(name string, value ent.Value) error {
	switch name {
	case extractjob.FieldFileID:
		v, ok := value.(uuid.UUID)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetFileID(v)
		return nil
	case extractjob.FieldFormat:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetFormat(v)
		return nil
	case extractjob.FieldStartedAt:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetStartedAt(v)
		return nil
	case extractjob.FieldFinishedAt:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetFinishedAt(v)
		return nil
	case extractjob.FieldStatus:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetStatus(v)
		return nil
	case extractjob.FieldErrorMessage:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetErrorMessage(v)
		return nil
	case extractjob.FieldStrategyUsed:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetStrategyUsed(v)
		return nil
	case extractjob.FieldUsedRecognition:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetUsedRecognition(v)
		return nil
	case extractjob.FieldEnhancementApplied:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetEnhancementApplied(v)
		return nil
	case extractjob.FieldExtractedText:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetExtractedText(v)
		return nil
	case extractjob.FieldTables:
		v, ok := value.(json.RawMessage)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetTables(v)
		return nil
	case extractjob.FieldClassification:
		v, ok := value.(json.RawMessage)
		if !ok {
			return fmt.Errorf("unexpected type %T for field %s", value, name)
		}
		m.SetClassification(v)
		return nil
	}
	return fmt.Errorf("unknown ExtractJob field %s", name)
}

// AddedFields returns all numeric fields that were incremented/decremented during
// this mutation.
func (m *ExtractJobMutation) AddedFields() []string {
	return nil
}

// AddedField returns the numeric value that was incremented/decremented on a field
// with the given name. The second boolean return value indicates that this field
// was not set, or was not defined in the schema.
func (m *ExtractJobMutation) AddedField(name string) (ent.Value, bool) {
	return nil, false
}

// AddField adds the value to the field with the given name. It returns an error if
// the field is not defined in the schema, or if the type mismatched the field
// type.
func (m *ExtractJobMutation) AddField(name string, value ent.Value) error {
	switch name {
	}
	return fmt.Errorf("unknown ExtractJob numeric field %s", name)
}

// ClearedFields returns all nullable fields that were cleared during this
// mutation.
func (m *ExtractJobMutation) ClearedFields() []string {
	var fields []string
	if m.FieldCleared(extractjob.FieldFinishedAt) {
		fields = append(fields, extractjob.FieldFinishedAt)
	}
	if m.FieldCleared(extractjob.FieldStatus) {
		fields = append(fields, extractjob.FieldStatus)
	}
	if m.FieldCleared(extractjob.FieldErrorMessage) {
		fields = append(fields, extractjob.FieldErrorMessage)
	}
	if m.FieldCleared(extractjob.FieldStrategyUsed) {
		fields = append(fields, extractjob.FieldStrategyUsed)
	}
	if m.FieldCleared(extractjob.FieldExtractedText) {
		fields = append(fields, extractjob.FieldExtractedText)
	}
	if m.FieldCleared(extractjob.FieldTables) {
		fields = append(fields, extractjob.FieldTables)
	}
	if m.FieldCleared(extractjob.FieldClassification) {
		fields = append(fields, extractjob.FieldClassification)
	}
	return fields
}

// FieldCleared returns a boolean indicating if a field with the given name was
// cleared in this mutation.
func (m *ExtractJobMutation) FieldCleared(name string) bool {
	_, ok := m.clearedFields[name]
	return ok
}

// ClearField clears the value of the field with the given name. It returns an
// error if the field is not defined in the schema.
func (m *ExtractJobMutation) ClearField(name string) error {
	switch name {
	case extractjob.FieldFinishedAt:
		m.ClearFinishedAt()
		return nil
	case extractjob.FieldStatus:
		m.ClearStatus()
		return nil
	case extractjob.FieldErrorMessage:
		m.ClearErrorMessage()
		return nil
	case extractjob.FieldStrategyUsed:
		m.ClearStrategyUsed()
		return nil
	case extractjob.FieldExtractedText:
		m.ClearExtractedText()
		return nil
	case extractjob.FieldTables:
		m.ClearTables()
		return nil
	case extractjob.FieldClassification:
		m.ClearClassification()
		return nil
	}
	return fmt.Errorf("unknown ExtractJob nullable field %s", name)
}

// ResetField resets all changes in the mutation for the field with the given name.
// It returns an error if the field is not defined in the schema.
func (m *ExtractJobMutation) ResetField(name string) error {
	switch name {
	case extractjob.FieldFileID:
		m.ResetFileID()
		return nil
	case extractjob.FieldFormat:
		m.ResetFormat()
		return nil
	case extractjob.FieldStartedAt:
		m.ResetStartedAt()
		return nil
	case extractjob.FieldFinishedAt:
		m.ResetFinishedAt()
		return nil
	case extractjob.FieldStatus:
		m.ResetStatus()
		return nil
	case extractjob.FieldErrorMessage:
		m.ResetErrorMessage()
		return nil
	case extractjob.FieldStrategyUsed:
		m.ResetStrategyUsed()
		return nil
	case extractjob.FieldUsedRecognition:
		m.ResetUsedRecognition()
		return nil
	case extractjob.FieldEnhancementApplied:
		m.ResetEnhancementApplied()
		return nil
	case extractjob.FieldExtractedText:
		m.ResetExtractedText()
		return nil
	case extractjob.FieldTables:
		m.ResetTables()
		return nil
	case extractjob.FieldClassification:
		m.ResetClassification()
		return nil
	}
	return fmt.Errorf("unknown ExtractJob field %s", name)
}

// AddedEdges returns all edge names that were set/added in this mutation.
func (m *ExtractJobMutation) AddedEdges() []string {
	edges := make([]string, 0, 1)
	if m.file != nil {
		edges = append(edges, extractjob.EdgeFile)
	}
	return edges
}

// AddedIDs returns all IDs (to other nodes) that were added for the given edge
// name in this mutation.
func (m *ExtractJobMutation) AddedIDs(name string) []ent.Value {
	switch name {
	case extractjob.EdgeFile:
		if id := m.file; id != nil {
			return []ent.Value{*id}
		}
	}
	return nil
}

// RemovedEdges returns all edge names that were removed in this mutation.
func (m *ExtractJobMutation) RemovedEdges() []string {
	edges := make([]string, 0, 1)
	return edges
}

// RemovedIDs returns all IDs (to other nodes) that were removed for the edge with
// the given name in this mutation.
func (m *ExtractJobMutation) RemovedIDs(name string) []ent.Value {
	return nil
}

// ClearedEdges returns all edge names that were cleared in this mutation.
func (m *ExtractJobMutation) ClearedEdges() []string {
	edges := make([]string, 0, 1)
	if m.clearedfile {
		edges = append(edges, extractjob.EdgeFile)
	}
	return edges
}

// EdgeCleared returns a boolean which indicates if the edge with the given name
// was cleared in this mutation.
func (m *ExtractJobMutation) EdgeCleared(name string) bool {
	switch name {
	case extractjob.EdgeFile:
		return m.clearedfile
	}
	return false
}

// ClearEdge clears the value of the edge with the given name. It returns an error
// if that edge is not defined in the schema.
func (m *ExtractJobMutation) ClearEdge(name string) error {
	switch name {
	case extractjob.EdgeFile:
		m.ClearFile()
		return nil
	}
	return fmt.Errorf("unknown ExtractJob unique edge %s", name)
}

// ResetEdge resets all changes to the edge with the given name in this mutation.
// It returns an error if the edge is not defined in the schema.
func (m *ExtractJobMutation) ResetEdge(name string) error {
	switch name {
	case extractjob.EdgeFile:
		m.ResetFile()
		return nil
	}
	return fmt.Errorf("unknown ExtractJob edge %s", name)
}
