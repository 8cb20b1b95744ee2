package tables

import (
	"reflect"
	"testing"
)

func makeTable(page, rows, cols int, backend string, accuracy float64) Table {
	r := make([][]string, rows)
	for i := range r {
		r[i] = make([]string, cols)
	}
	return Table{
		PageNumber:  page,
		BackendName: backend,
		Rows:        r,
		RowCount:    rows,
		ColCount:    cols,
		Accuracy:    accuracy,
	}
}

func TestMergeKeepsHigherAccuracy(t *testing.T) {
	pooled := []Table{
		makeTable(2, 5, 3, "text_layout", 0.6),
		makeTable(2, 5, 3, "bordered", 0.8),
	}

	got := Merge(pooled)
	if len(got) != 1 {
		t.Fatalf("merged = %d tables, want 1", len(got))
	}
	if got[0].Accuracy != 0.8 || got[0].BackendName != "bordered" {
		t.Errorf("kept %s/%v, want bordered/0.8", got[0].BackendName, got[0].Accuracy)
	}
}

func TestMergeTieKeepsEarliest(t *testing.T) {
	pooled := []Table{
		makeTable(1, 4, 2, "bordered", 0.5),
		makeTable(1, 4, 2, "text_layout", 0.5),
	}

	got := Merge(pooled)
	if len(got) != 1 {
		t.Fatalf("merged = %d tables, want 1", len(got))
	}
	if got[0].BackendName != "bordered" {
		t.Errorf("kept %s, want the earliest-discovered table on a tie", got[0].BackendName)
	}
}

func TestMergeMissingScoreLosesToScored(t *testing.T) {
	pooled := []Table{
		makeTable(1, 3, 3, "text_layout", 0), // unscored
		makeTable(1, 3, 3, "bordered", 0.4),
	}

	got := Merge(pooled)
	if got[0].BackendName != "bordered" {
		t.Errorf("kept %s, want the scored table", got[0].BackendName)
	}
}

func TestMergeDistinctIdentitiesSurvive(t *testing.T) {
	pooled := []Table{
		makeTable(1, 5, 3, "bordered", 0.8),
		makeTable(2, 5, 3, "bordered", 0.8), // different page
		makeTable(1, 4, 3, "bordered", 0.8), // different row count
		makeTable(1, 5, 2, "bordered", 0.8), // different col count
	}

	got := Merge(pooled)
	if len(got) != 4 {
		t.Fatalf("merged = %d tables, want all 4 distinct identities", len(got))
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	pooled := []Table{
		makeTable(1, 5, 3, "bordered", 0.8),
		makeTable(1, 5, 3, "text_layout", 0.6),
		makeTable(2, 2, 2, "column_ruling", 0),
	}

	once := Merge(pooled)
	twice := Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second merge changed the set:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if got := Merge(nil); got != nil {
		t.Errorf("Merge(nil) = %v, want nil", got)
	}
}
