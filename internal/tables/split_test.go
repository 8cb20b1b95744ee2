package tables

import (
	"fmt"
	"testing"
)

func TestSplitPagesWithMarkers(t *testing.T) {
	text := fmt.Sprintf("%s\nfirst page body\n%s\nsecond page body",
		fmt.Sprintf(PageMarker, 1), fmt.Sprintf(PageMarker, 2))

	got := SplitPages(text, 1)
	if len(got) != 2 {
		t.Fatalf("pages = %d, want 2", len(got))
	}
	if got[0].Number != 1 || got[0].Text != "first page body" {
		t.Errorf("page 1 = %+v", got[0])
	}
	if got[1].Number != 2 || got[1].Text != "second page body" {
		t.Errorf("page 2 = %+v", got[1])
	}
}

func TestSplitPagesWithoutMarkers(t *testing.T) {
	got := SplitPages("just one chunk of text", 7)
	if len(got) != 1 {
		t.Fatalf("pages = %d, want 1", len(got))
	}
	if got[0].Number != 7 {
		t.Errorf("default page = %d, want 7", got[0].Number)
	}
}

func TestSplitPagesEmptyText(t *testing.T) {
	if got := SplitPages("   \n  ", 1); got != nil {
		t.Errorf("blank text produced %v, want nil", got)
	}
}

func TestSplitPagesSkipsEmptyChunks(t *testing.T) {
	text := fmt.Sprintf("%s\n\n%s\ncontent", fmt.Sprintf(PageMarker, 1), fmt.Sprintf(PageMarker, 2))
	got := SplitPages(text, 1)
	if len(got) != 1 {
		t.Fatalf("pages = %d, want only the non-empty chunk", len(got))
	}
	if got[0].Number != 2 {
		t.Errorf("page = %d, want 2", got[0].Number)
	}
}
