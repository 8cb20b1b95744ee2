// Package tables recovers tabular structure from document text. Three
// independent backends run over the same page and their pooled output is
// deduplicated by Merge; backends differ in which tables they recover, so
// all available ones run rather than the first to succeed.
package tables

// Table is one recovered table. Identity for deduplication is the tuple
// (PageNumber, RowCount, ColCount).
type Table struct {
	PageNumber  int
	BackendName string
	Rows        [][]string
	RowCount    int
	ColCount    int
	// Accuracy in [0,1]; zero means the backend does not score its output.
	Accuracy float64
}

// Backend is an independent table-extraction algorithm.
type Backend interface {
	// Name returns the backend identifier recorded on extracted tables.
	Name() string

	// Available reports whether the backend can run in this deployment.
	// Checked once at registration and again before each use.
	Available() bool

	// ExtractFromText finds tables in the text of a single page.
	// A nil or empty result is not an error.
	ExtractFromText(pageNum int, text string) []Table
}

// Registry holds backends in preference order. The orchestrator asks the
// registry which backends are usable instead of branching on global flags.
type Registry struct {
	backends []Backend
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a backend. Registration order is preference order.
func (r *Registry) Register(b Backend) {
	r.backends = append(r.backends, b)
}

// Available returns the registered backends that pass their health check,
// preserving preference order.
func (r *Registry) Available() []Backend {
	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		if b.Available() {
			out = append(out, b)
		}
	}
	return out
}

// Names lists all registered backend names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, b.Name())
	}
	return names
}

// DefaultRegistry returns the standard backend set in preference order:
// bordered tables carry the highest per-table accuracy, the generic text
// layout backend recovers most whitespace-aligned tables, and column ruling
// is the opportunistic fallback for numeric tables.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewBorderedBackend())
	r.Register(NewTextLayoutBackend())
	r.Register(NewColumnRulingBackend())
	return r
}

func newTable(pageNum int, backend string, rows [][]string, accuracy float64) Table {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return Table{
		PageNumber:  pageNum,
		BackendName: backend,
		Rows:        rows,
		RowCount:    len(rows),
		ColCount:    cols,
		Accuracy:    accuracy,
	}
}
