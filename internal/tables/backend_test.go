package tables

import (
	"reflect"
	"testing"
)

func TestBorderedBackendRuledBlock(t *testing.T) {
	text := `+------+-----+
| Item | Qty |
| Nails | 40 |
+------+-----+`

	got := NewBorderedBackend().ExtractFromText(2, text)
	if len(got) != 1 {
		t.Fatalf("tables = %d, want 1", len(got))
	}
	tab := got[0]
	if tab.BackendName != "bordered" {
		t.Errorf("backend = %s, want bordered", tab.BackendName)
	}
	if tab.PageNumber != 2 {
		t.Errorf("page = %d, want 2", tab.PageNumber)
	}
	want := [][]string{{"Item", "Qty"}, {"Nails", "40"}}
	if !reflect.DeepEqual(tab.Rows, want) {
		t.Errorf("rows = %v, want %v", tab.Rows, want)
	}
	if tab.RowCount != 2 || tab.ColCount != 2 {
		t.Errorf("dims = %dx%d, want 2x2", tab.RowCount, tab.ColCount)
	}
	if tab.Accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0 for a fully filled consistent table", tab.Accuracy)
	}
}

func TestBorderedBackendNeedsTwoRules(t *testing.T) {
	text := `----------
| a | b |
| c | d |`
	if got := NewBorderedBackend().ExtractFromText(1, text); got != nil {
		t.Fatalf("single rule line produced %v, want none", got)
	}
}

func TestBorderedBackendBracketDelimiters(t *testing.T) {
	text := `----------
[Item][Qty]
[Nails][40]
----------`
	got := NewBorderedBackend().ExtractFromText(1, text)
	if len(got) != 1 {
		t.Fatalf("tables = %d, want 1", len(got))
	}
	want := [][]string{{"Item", "Qty"}, {"Nails", "40"}}
	if !reflect.DeepEqual(got[0].Rows, want) {
		t.Errorf("rows = %v, want %v", got[0].Rows, want)
	}
}

func TestTextLayoutBackendAlignedColumns(t *testing.T) {
	text := "Name      Qty   Price\nNails     40    1.20\nScrews    12    0.80"

	got := NewTextLayoutBackend().ExtractFromText(3, text)
	if len(got) != 1 {
		t.Fatalf("tables = %d, want 1", len(got))
	}
	tab := got[0]
	if tab.BackendName != "text_layout" {
		t.Errorf("backend = %s, want text_layout", tab.BackendName)
	}
	if tab.RowCount != 3 || tab.ColCount != 3 {
		t.Fatalf("dims = %dx%d, want 3x3", tab.RowCount, tab.ColCount)
	}
	if tab.Rows[1][0] != "Nails" || tab.Rows[1][2] != "1.20" {
		t.Errorf("row 1 = %v, want [Nails 40 1.20]", tab.Rows[1])
	}
	if tab.Accuracy != 0 {
		t.Errorf("accuracy = %v, want unscored (0)", tab.Accuracy)
	}
}

func TestTextLayoutBackendNeedsThreeCandidates(t *testing.T) {
	text := "Name      Qty   Price\nNails     40    1.20"
	if got := NewTextLayoutBackend().ExtractFromText(1, text); got != nil {
		t.Fatalf("two candidate lines produced %v, want none", got)
	}
}

func TestTextLayoutBackendTabSeparated(t *testing.T) {
	text := "Name\tQty\tPrice\nNails\t40\t1.20\nScrews\t12\t0.80"
	got := NewTextLayoutBackend().ExtractFromText(1, text)
	if len(got) != 1 {
		t.Fatalf("tables = %d, want 1", len(got))
	}
	if got[0].ColCount != 3 {
		t.Errorf("cols = %d, want 3", got[0].ColCount)
	}
}

func TestColumnRulingBackendNumericRows(t *testing.T) {
	text := "Item 10 2.50\nOther 20 3.75"

	got := NewColumnRulingBackend().ExtractFromText(4, text)
	if len(got) != 1 {
		t.Fatalf("tables = %d, want 1", len(got))
	}
	tab := got[0]
	if tab.BackendName != "column_ruling" {
		t.Errorf("backend = %s, want column_ruling", tab.BackendName)
	}
	want := [][]string{{"Item", "10", "2.50"}, {"Other", "20", "3.75"}}
	if !reflect.DeepEqual(tab.Rows, want) {
		t.Errorf("rows = %v, want %v", tab.Rows, want)
	}
}

func TestColumnRulingBackendIgnoresProse(t *testing.T) {
	text := "This paragraph mentions one number 7 only.\nAnd this one has none at all."
	if got := NewColumnRulingBackend().ExtractFromText(1, text); got != nil {
		t.Fatalf("prose produced %v, want none", got)
	}
}

func TestAllBackendsRunOnSamePage(t *testing.T) {
	// A ruled block and an aligned block on the same page: the registry
	// pools output from every backend rather than stopping at the first.
	text := `+------+-----+
| Item | Qty |
| Nails | 40 |
+------+-----+

Name      Qty   Price
Nails     40    1.20
Screws    12    0.80`

	var pooled []Table
	for _, b := range DefaultRegistry().Available() {
		pooled = append(pooled, b.ExtractFromText(1, text)...)
	}
	names := map[string]bool{}
	for _, tab := range pooled {
		names[tab.BackendName] = true
	}
	if !names["bordered"] || !names["text_layout"] {
		t.Errorf("pooled backends = %v, want bordered and text_layout both present", names)
	}
}

func TestRegistryPreferenceOrder(t *testing.T) {
	got := DefaultRegistry().Names()
	want := []string{"bordered", "text_layout", "column_ruling"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
