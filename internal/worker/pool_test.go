package worker

import (
	"fmt"
	"sort"
	"testing"
)

func TestPoolProcessesAllJobs(t *testing.T) {
	p := NewPool(4)
	p.Start()

	const n = 20
	go func() {
		for i := 0; i < n; i++ {
			page := i + 1
			p.Submit(PageJob{
				PageNumber: page,
				Run: func() (string, error) {
					return fmt.Sprintf("page %d", page), nil
				},
			})
		}
		p.Stop()
	}()

	var pages []int
	for res := range p.Results() {
		if res.Err != nil {
			t.Errorf("page %d: %v", res.PageNumber, res.Err)
		}
		if want := fmt.Sprintf("page %d", res.PageNumber); res.Text != want {
			t.Errorf("text = %q, want %q", res.Text, want)
		}
		pages = append(pages, res.PageNumber)
	}

	if len(pages) != n {
		t.Fatalf("got %d results, want %d", len(pages), n)
	}
	sort.Ints(pages)
	for i, page := range pages {
		if page != i+1 {
			t.Fatalf("missing or duplicated page, pages[%d] = %d", i, page)
		}
	}
}

func TestPoolPropagatesJobErrors(t *testing.T) {
	p := NewPool(2)
	p.Start()

	go func() {
		p.Submit(PageJob{PageNumber: 1, Run: func() (string, error) {
			return "", fmt.Errorf("engine hiccup")
		}})
		p.Submit(PageJob{PageNumber: 2, Run: func() (string, error) {
			return "ok", nil
		}})
		p.Stop()
	}()

	byPage := map[int]PageResult{}
	for res := range p.Results() {
		byPage[res.PageNumber] = res
	}
	if byPage[1].Err == nil {
		t.Error("page 1 error was dropped")
	}
	if byPage[2].Err != nil || byPage[2].Text != "ok" {
		t.Errorf("page 2 = %+v", byPage[2])
	}
}

func TestPoolClampsWorkerCount(t *testing.T) {
	if got := NewPool(0).numWorkers; got < 1 {
		t.Errorf("numWorkers = %d, want at least 1", got)
	}
	if got := NewPool(1).numWorkers; got != 1 {
		t.Errorf("numWorkers = %d, want 1", got)
	}
}
