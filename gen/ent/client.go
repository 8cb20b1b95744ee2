// Code generated by ent, DO NOT EDIT.

package ent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/enerdoc/docingest/gen/ent/migrate"
	"github.com/google/uuid"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
)

// Client is the client that holds all ent builders.
type Client struct {
	config
	// Schema is the client for creating, migrating and dropping schema.
	Schema *migrate.Schema
	// DocumentFile is the client for interacting with the DocumentFile builders.
	DocumentFile *DocumentFileClient
	// ExtractJob is the client for interacting with the ExtractJob builders.
	ExtractJob *ExtractJobClient
}

// NewClient creates a new client configured with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{config: newConfig(opts...)}
	client.init()
	return client
}

func (c *Client) init() {
	c.Schema = migrate.NewSchema(c.driver)
	c.DocumentFile = NewDocumentFileClient(c.config)
	c.ExtractJob = NewExtractJobClient(c.config)
}

type (
	// config is the configuration for the client and its builder.
	config struct {
		// driver used for executing database requests.
		driver dialect.Driver
		// debug enable a debug logging.
		debug bool
		// log used for logging on debug mode.
		log func(...any)
		// hooks to execute on mutations.
		hooks *hooks
		// interceptors to execute on queries.
		inters *inters
	}
	// Option function to configure the client.
	Option func(*config)
)

// newConfig creates a new config for the client.
func newConfig(opts ...Option) config {
	cfg := config{log: log.Println, hooks: &hooks{}, inters: &inters{}}
	cfg.options(opts...)
	return cfg
}

// options applies the options on the config object.
func (c *config) options(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.debug {
		c.driver = dialect.Debug(c.driver, c.log)
	}
}

// Debug enables debug logging on the ent.Driver.
func Debug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// Log sets the logging function for debug mode.
func Log(fn func(...any)) Option {
	return func(c *config) {
		c.log = fn
	}
}

// Driver configures the client driver.
func Driver(driver dialect.Driver) Option {
	return func(c *config) {
		c.driver = driver
	}
}

// Open opens a database/sql.DB specified by the driver name and
// the data source name, and returns a new client attached to it.
// Optional parameters can be added for configuring the client.
func Open(driverName, dataSourceName string, options ...Option) (*Client, error) {
	switch driverName {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
		drv, err := sql.Open(driverName, dataSourceName)
		if err != nil {
			return nil, err
		}
		return NewClient(append(options, Driver(drv))...), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %q", driverName)
	}
}

// ErrTxStarted is returned when trying to start a new transaction from a transactional client.
var ErrTxStarted = errors.New("ent: cannot start a transaction within a transaction")

// Tx returns a new transactional client. The provided context
// is used until the transaction is committed or rolled back.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	if _, ok := c.driver.(*txDriver); ok {
		return nil, ErrTxStarted
	}
	tx, err := newTx(ctx, c.driver)
	if err != nil {
		return nil, fmt.Errorf("ent: starting a transaction: %w", err)
	}
	cfg := c.config
	cfg.driver = tx
	return &Tx{
		ctx:          ctx,
		config:       cfg,
		DocumentFile: NewDocumentFileClient(cfg),
		ExtractJob:   NewExtractJobClient(cfg),
	}, nil
}

// BeginTx returns a transactional client with specified options.
func (c *Client) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if _, ok := c.driver.(*txDriver); ok {
		return nil, errors.New("ent: cannot start a transaction within a transaction")
	}
	tx, err := c.driver.(interface {
		BeginTx(context.Context, *sql.TxOptions) (dialect.Tx, error)
	}).BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("ent: starting a transaction: %w", err)
	}
	cfg := c.config
	cfg.driver = &txDriver{tx: tx, drv: c.driver}
	return &Tx{
		ctx:          ctx,
		config:       cfg,
		DocumentFile: NewDocumentFileClient(cfg),
		ExtractJob:   NewExtractJobClient(cfg),
	}, nil
}

// Debug returns a new debug-client. It's used to get verbose logging on specific operations.
//
//	client.Debug().
//		DocumentFile.
//		Query().
//		Count(ctx)
func (c *Client) Debug() *Client {
	if c.debug {
		return c
	}
	cfg := c.config
	cfg.driver = dialect.Debug(c.driver, c.log)
	client := &Client{config: cfg}
	client.init()
	return client
}

// Close closes the database connection and prevents new queries from starting.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Use adds the mutation hooks to all the entity clients.
// In order to add hooks to a specific client, call: `client.Node.Use(...)`.
func (c *Client) Use(hooks ...Hook) {
	c.DocumentFile.Use(hooks...)
	c.ExtractJob.Use(hooks...)
}

// Intercept adds the query interceptors to all the entity clients.
// In order to add interceptors to a specific client, call: `client.Node.Intercept(...)`.
func (c *Client) Intercept(interceptors ...Interceptor) {
	c.DocumentFile.Intercept(interceptors...)
	c.ExtractJob.Intercept(interceptors...)
}

// Mutate implements the ent.Mutator interface.
func (c *Client) Mutate(ctx context.Context, m Mutation) (Value, error) {
	switch m := m.(type) {
	case *DocumentFileMutation:
		return c.DocumentFile.mutate(ctx, m)
	case *ExtractJobMutation:
		return c.ExtractJob.mutate(ctx, m)
	default:
		return nil, fmt.Errorf("ent: unknown mutation type %T", m)
	}
}

// DocumentFileClient is a client for the DocumentFile schema.
type DocumentFileClient struct {
	config
}

// NewDocumentFileClient returns a client for the DocumentFile from the given config.
func NewDocumentFileClient(c config) *DocumentFileClient {
	return &DocumentFileClient{config: c}
}

// Use adds a list of mutation hooks to the hooks stack.
// A call to `Use(f, g, h)` equals to `documentfile.Hooks(f(g(h())))`.
func (c *DocumentFileClient) Use(hooks ...Hook) {
	c.hooks.DocumentFile = append(c.hooks.DocumentFile, hooks...)
}

// Intercept adds a list of query interceptors to the interceptors stack.
// A call to `Intercept(f, g, h)` equals to `documentfile.Intercept(f(g(h())))`.
func (c *DocumentFileClient) Intercept(interceptors ...Interceptor) {
	c.inters.DocumentFile = append(c.inters.DocumentFile, interceptors...)
}

// Create returns a builder for creating a DocumentFile entity.
func (c *DocumentFileClient) Create() *DocumentFileCreate {
	mutation := newDocumentFileMutation(c.config, OpCreate)
	return &DocumentFileCreate{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// CreateBulk returns a builder for creating a bulk of DocumentFile entities.
func (c *DocumentFileClient) CreateBulk(builders ...*DocumentFileCreate) *DocumentFileCreateBulk {
	return &DocumentFileCreateBulk{config: c.config, builders: builders}
}

// MapCreateBulk creates a bulk creation builder from the given slice. For each item in the slice, the function creates
// a builder and applies setFunc on it.
func (c *DocumentFileClient) MapCreateBulk(slice any, setFunc func(*DocumentFileCreate, int)) *DocumentFileCreateBulk {
	rv := reflect.ValueOf(slice)
	if rv.Kind() != reflect.Slice {
		return &DocumentFileCreateBulk{err: fmt.Errorf("calling to DocumentFileClient.MapCreateBulk with wrong type %T, need slice", slice)}
	}
	builders := make([]*DocumentFileCreate, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		builders[i] = c.Create()
		setFunc(builders[i], i)
	}
	return &DocumentFileCreateBulk{config: c.config, builders: builders}
}

// Update returns an update builder for DocumentFile.
func (c *DocumentFileClient) Update() *DocumentFileUpdate {
	mutation := newDocumentFileMutation(c.config, OpUpdate)
	return &DocumentFileUpdate{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// UpdateOne returns an update builder for the given entity.
func (c *DocumentFileClient) UpdateOne(_m *DocumentFile) *DocumentFileUpdateOne {
	mutation := newDocumentFileMutation(c.config, OpUpdateOne, withDocumentFile(_m))
	return &DocumentFileUpdateOne{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// UpdateOneID returns an update builder for the given id.
func (c *DocumentFileClient) UpdateOneID(id uuid.UUID) *DocumentFileUpdateOne {
	mutation := newDocumentFileMutation(c.config, OpUpdateOne, withDocumentFileID(id))
	return &DocumentFileUpdateOne{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// Delete returns a delete builder for DocumentFile.
func (c *DocumentFileClient) Delete() *DocumentFileDelete {
	mutation := newDocumentFileMutation(c.config, OpDelete)
	return &DocumentFileDelete{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// DeleteOne returns a builder for deleting the given entity.
func (c *DocumentFileClient) DeleteOne(_m *DocumentFile) *DocumentFileDeleteOne {
	return c.DeleteOneID(_m.ID)
}

// DeleteOneID returns a builder for deleting the given entity by its id.
func (c *DocumentFileClient) DeleteOneID(id uuid.UUID) *DocumentFileDeleteOne {
	builder := c.Delete().Where(documentfile.ID(id))
	builder.mutation.id = &id
	builder.mutation.op = OpDeleteOne
	return &DocumentFileDeleteOne{builder}
}

// Query returns a query builder for DocumentFile.
func (c *DocumentFileClient) Query() *DocumentFileQuery {
	return &DocumentFileQuery{
		config: c.config,
		ctx:    &QueryContext{Type: TypeDocumentFile},
		inters: c.Interceptors(),
	}
}

// Get returns a DocumentFile entity by its id.
func (c *DocumentFileClient) Get(ctx context.Context, id uuid.UUID) (*DocumentFile, error) {
	return c.Query().Where(documentfile.ID(id)).Only(ctx)
}

// GetX is like Get, but panics if an error occurs.
func (c *DocumentFileClient) GetX(ctx context.Context, id uuid.UUID) *DocumentFile {
	obj, err := c.Get(ctx, id)
	if err != nil {
		panic(err)
	}
	return obj
}

// QueryJobs queries the jobs edge of a DocumentFile.
func (c *DocumentFileClient) QueryJobs(_m *DocumentFile) *ExtractJobQuery {
	query := (&ExtractJobClient{config: c.config}).Query()
	query.path = func(context.Context) (fromV *sql.Selector, _ error) {
		id := _m.ID
		step := sqlgraph.NewStep(
			sqlgraph.From(documentfile.Table, documentfile.FieldID, id),
			sqlgraph.To(extractjob.Table, extractjob.FieldID),
			sqlgraph.Edge(sqlgraph.O2M, false, documentfile.JobsTable, documentfile.JobsColumn),
		)
		fromV = sqlgraph.Neighbors(_m.driver.Dialect(), step)
		return fromV, nil
	}
	return query
}

// Hooks returns the client hooks.
func (c *DocumentFileClient) Hooks() []Hook {
	return c.hooks.DocumentFile
}

// Interceptors returns the client interceptors.
func (c *DocumentFileClient) Interceptors() []Interceptor {
	return c.inters.DocumentFile
}

func (c *DocumentFileClient) mutate(ctx context.Context, m *DocumentFileMutation) (Value, error) {
	switch m.Op() {
	case OpCreate:
		return (&DocumentFileCreate{config: c.config, hooks: c.Hooks(), mutation: m}).Save(ctx)
	case OpUpdate:
		return (&DocumentFileUpdate{config: c.config, hooks: c.Hooks(), mutation: m}).Save(ctx)
	case OpUpdateOne:
		return (&DocumentFileUpdateOne{config: c.config, hooks: c.Hooks(), mutation: m}).Save(ctx)
	case OpDelete, OpDeleteOne:
		return (&DocumentFileDelete{config: c.config, hooks: c.Hooks(), mutation: m}).Exec(ctx)
	default:
		return nil, fmt.Errorf("ent: unknown DocumentFile mutation op: %q", m.Op())
	}
}

// ExtractJobClient is a client for the ExtractJob schema.
type ExtractJobClient struct {
	config
}

// NewExtractJobClient returns a client for the ExtractJob from the given config.
func NewExtractJobClient(c config) *ExtractJobClient {
	return &ExtractJobClient{config: c}
}

// Use adds a list of mutation hooks to the hooks stack.
// A call to `Use(f, g, h)` equals to `extractjob.Hooks(f(g(h())))`.
func (c *ExtractJobClient) Use(hooks ...Hook) {
	c.hooks.ExtractJob = append(c.hooks.ExtractJob, hooks...)
}

// Intercept adds a list of query interceptors to the interceptors stack.
// A call to `Intercept(f, g, h)` equals to `extractjob.Intercept(f(g(h())))`.
func (c *ExtractJobClient) Intercept(interceptors ...Interceptor) {
	c.inters.ExtractJob = append(c.inters.ExtractJob, interceptors...)
}

// Create returns a builder for creating a ExtractJob entity.
func (c *ExtractJobClient) Create() *ExtractJobCreate {
	mutation := newExtractJobMutation(c.config, OpCreate)
	return &ExtractJobCreate{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// CreateBulk returns a builder for creating a bulk of ExtractJob entities.
func (c *ExtractJobClient) CreateBulk(builders ...*ExtractJobCreate) *ExtractJobCreateBulk {
	return &ExtractJobCreateBulk{config: c.config, builders: builders}
}

// MapCreateBulk creates a bulk creation builder from the given slice. For each item in the slice, the function creates
// a builder and applies setFunc on it.
func (c *ExtractJobClient) MapCreateBulk(slice any, setFunc func(*ExtractJobCreate, int)) *ExtractJobCreateBulk {
	rv := reflect.ValueOf(slice)
	if rv.Kind() != reflect.Slice {
		return &ExtractJobCreateBulk{err: fmt.Errorf("calling to ExtractJobClient.MapCreateBulk with wrong type %T, need slice", slice)}
	}
	builders := make([]*ExtractJobCreate, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		builders[i] = c.Create()
		setFunc(builders[i], i)
	}
	return &ExtractJobCreateBulk{config: c.config, builders: builders}
}

// Update returns an update builder for ExtractJob.
func (c *ExtractJobClient) Update() *ExtractJobUpdate {
	mutation := newExtractJobMutation(c.config, OpUpdate)
	return &ExtractJobUpdate{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// UpdateOne returns an update builder for the given entity.
func (c *ExtractJobClient) UpdateOne(_m *ExtractJob) *ExtractJobUpdateOne {
	mutation := newExtractJobMutation(c.config, OpUpdateOne, withExtractJob(_m))
	return &ExtractJobUpdateOne{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// UpdateOneID returns an update builder for the given id.
func (c *ExtractJobClient) UpdateOneID(id uuid.UUID) *ExtractJobUpdateOne {
	mutation := newExtractJobMutation(c.config, OpUpdateOne, withExtractJobID(id))
	return &ExtractJobUpdateOne{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// Delete returns a delete builder for ExtractJob.
func (c *ExtractJobClient) Delete() *ExtractJobDelete {
	mutation := newExtractJobMutation(c.config, OpDelete)
	return &ExtractJobDelete{config: c.config, hooks: c.Hooks(), mutation: mutation}
}

// DeleteOne returns a builder for deleting the given entity.
func (c *ExtractJobClient) DeleteOne(_m *ExtractJob) *ExtractJobDeleteOne {
	return c.DeleteOneID(_m.ID)
}

// DeleteOneID returns a builder for deleting the given entity by its id.
func (c *ExtractJobClient) DeleteOneID(id uuid.UUID) *ExtractJobDeleteOne {
	builder := c.Delete().Where(extractjob.ID(id))
	builder.mutation.id = &id
	builder.mutation.op = OpDeleteOne
	return &ExtractJobDeleteOne{builder}
}

// Query returns a query builder for ExtractJob.
func (c *ExtractJobClient) Query() *ExtractJobQuery {
	return &ExtractJobQuery{
		config: c.config,
		ctx:    &QueryContext{Type: TypeExtractJob},
		inters: c.Interceptors(),
	}
}

// Get returns a ExtractJob entity by its id.
func (c *ExtractJobClient) Get(ctx context.Context, id uuid.UUID) (*ExtractJob, error) {
	return c.Query().Where(extractjob.ID(id)).Only(ctx)
}

// GetX is like Get, but panics if an error occurs.
func (c *ExtractJobClient) GetX(ctx context.Context, id uuid.UUID) *ExtractJob {
	obj, err := c.Get(ctx, id)
	if err != nil {
		panic(err)
	}
	return obj
}

// QueryFile queries the file edge of a ExtractJob.
func (c *ExtractJobClient) QueryFile(_m *ExtractJob) *DocumentFileQuery {
	query := (&DocumentFileClient{config: c.config}).Query()
	query.path = func(context.Context) (fromV *sql.Selector, _ error) {
		id := _m.ID
		step := sqlgraph.NewStep(
			sqlgraph.From(extractjob.Table, extractjob.FieldID, id),
			sqlgraph.To(documentfile.Table, documentfile.FieldID),
			sqlgraph.Edge(sqlgraph.M2O, true, extractjob.FileTable, extractjob.FileColumn),
		)
		fromV = sqlgraph.Neighbors(_m.driver.Dialect(), step)
		return fromV, nil
	}
	return query
}

// Hooks returns the client hooks.
func (c *ExtractJobClient) Hooks() []Hook {
	return c.hooks.ExtractJob
}

// Interceptors returns the client interceptors.
func (c *ExtractJobClient) Interceptors() []Interceptor {
	return c.inters.ExtractJob
}

func (c *ExtractJobClient) mutate(ctx context.Context, m *ExtractJobMutation) (Value, error) {
	switch m.Op() {
	case OpCreate:
		return (&ExtractJobCreate{config: c.config, hooks: c.Hooks(), mutation: m}).Save(ctx)
	case OpUpdate:
		return (&ExtractJobUpdate{config: c.config, hooks: c.Hooks(), mutation: m}).Save(ctx)
	case OpUpdateOne:
		return (&ExtractJobUpdateOne{config: c.config, hooks: c.Hooks(), mutation: m}).Save(ctx)
	case OpDelete, OpDeleteOne:
		return (&ExtractJobDelete{config: c.config, hooks: c.Hooks(), mutation: m}).Exec(ctx)
	default:
		return nil, fmt.Errorf("ent: unknown ExtractJob mutation op: %q", m.Op())
	}
}

// hooks and interceptors per client, for fast access.
type (
	hooks struct {
		DocumentFile, ExtractJob []ent.Hook
	}
	inters struct {
		DocumentFile, ExtractJob []ent.Interceptor
	}
)
