package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/client/clienttest"
	"codeberg.org/snonux/nori/internal/testutil"
)

var gen testutil.TestDataGenerator

const (
	rs = booru.RatingSafe
	rq = booru.RatingQuestionable
	re = booru.RatingExplicit
	ru = booru.RatingUndefined
)

func waitLoading(t *testing.T, sess *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !sess.Loading() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the fetch to start")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartAppliesFilters(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{
		0: gen.GenerateImages(0, rs, rq, re, ru),
	}}
	sess := New(fake, FiltersFromPreferences("s u", ""))

	added, err := sess.Start(context.Background(), "touhou")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 visible images, got %d", added)
	}

	for _, img := range sess.Result().Images() {
		if img.SafeSearchRating == rq || img.SafeSearchRating == re {
			t.Errorf("Filtered rating %s leaked into the result", img.SafeSearchRating)
		}
	}
	if calls := fake.Calls(); len(calls) != 1 || calls[0].Tags != "touhou" || calls[0].Page != 0 {
		t.Errorf("Unexpected calls %+v", calls)
	}
}

func TestLoadNextUntilLastPage(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{
		0: gen.GenerateImages(0, rs, rs),
		1: gen.GenerateImages(1, rs),
	}}
	sess := New(fake, Filters{})
	ctx := context.Background()

	if _, err := sess.Start(ctx, "a"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	added, err := sess.LoadNext(ctx)
	if err != nil || added != 1 {
		t.Fatalf("LoadNext() = %d, %v; want 1, nil", added, err)
	}
	if !sess.HasNextPage() {
		t.Fatal("Expected more pages before an empty page was seen")
	}

	// page 2 is empty and ends the result
	added, err = sess.LoadNext(ctx)
	if err != nil || added != 0 {
		t.Fatalf("LoadNext() = %d, %v; want 0, nil", added, err)
	}
	if sess.HasNextPage() {
		t.Error("Expected the empty page to mark the result exhausted")
	}
	if _, err := sess.LoadNext(ctx); !errors.Is(err, ErrLastPage) {
		t.Errorf("Expected ErrLastPage, got %v", err)
	}

	result := sess.Result()
	if result.Len() != 3 {
		t.Errorf("Expected 3 images, got %d", result.Len())
	}
	if result.CurrentOffset() != 1 {
		t.Errorf("Expected offset 1, got %d", result.CurrentOffset())
	}
}

func TestAutoContinueOnFilteredPages(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{
		0: gen.GenerateImages(0, re, re),
		1: gen.GenerateImages(1, rq),
		2: gen.GenerateImages(2, re, rs),
	}}
	sess := New(fake, FiltersFromPreferences("s", ""))

	added, err := sess.Start(context.Background(), "a")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 visible image, got %d", added)
	}
	if calls := fake.Calls(); len(calls) != 3 {
		t.Errorf("Expected 3 page requests, got %d", len(calls))
	}
}

func TestAutoContinueIsBounded(t *testing.T) {
	pages := make(map[int][]booru.Image)
	for p := 0; p < 2*MaxEmptyPages; p++ {
		pages[p] = gen.GenerateImages(p, re)
	}
	fake := &clienttest.Fake{Pages: pages}
	sess := New(fake, FiltersFromPreferences("s", ""))

	added, err := sess.Start(context.Background(), "a")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected nothing visible, got %d", added)
	}
	if calls := fake.Calls(); len(calls) != MaxEmptyPages {
		t.Errorf("Expected %d page requests, got %d", MaxEmptyPages, len(calls))
	}
	if !sess.HasNextPage() {
		t.Error("Expected more pages to remain")
	}

	// the next call continues where the last one stopped
	if _, err := sess.LoadNext(context.Background()); err != nil {
		t.Fatalf("LoadNext() failed: %v", err)
	}
	calls := fake.Calls()
	if first := calls[MaxEmptyPages]; first.Page != MaxEmptyPages {
		t.Errorf("Expected to resume at page %d, got %d", MaxEmptyPages, first.Page)
	}
	if len(calls) != 2*MaxEmptyPages {
		t.Errorf("Expected %d page requests, got %d", 2*MaxEmptyPages, len(calls))
	}
}

func TestLoadNextBusy(t *testing.T) {
	gate := make(chan struct{})
	fake := &clienttest.Fake{
		Pages: map[int][]booru.Image{0: gen.GenerateImages(0, rs)},
		Gate:  gate,
	}
	sess := New(fake, Filters{})

	done := make(chan error, 1)
	go func() {
		_, err := sess.Start(context.Background(), "a")
		done <- err
	}()
	waitLoading(t, sess)

	if _, err := sess.LoadNext(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if sess.Loading() {
		t.Error("Expected loading to be cleared")
	}
	if sess.Result().Len() != 1 {
		t.Errorf("Expected 1 image, got %d", sess.Result().Len())
	}
}

func TestCancelDiscardsLatePage(t *testing.T) {
	gate := make(chan struct{})
	fake := &clienttest.Fake{
		Pages: map[int][]booru.Image{0: gen.GenerateImages(0, rs, rs)},
		Gate:  gate,
	}
	sess := New(fake, Filters{})

	done := make(chan error, 1)
	go func() {
		_, err := sess.Start(context.Background(), "a")
		done <- err
	}()
	waitLoading(t, sess)

	sess.Cancel()
	close(gate)

	if err := <-done; !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
	if n := sess.Result().Len(); n != 0 {
		t.Errorf("Expected the late page to be discarded, got %d images", n)
	}
	if _, err := sess.LoadNext(context.Background()); !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled after Cancel, got %v", err)
	}

	// a new query clears the cancelled state
	if _, err := sess.Start(context.Background(), "b"); err != nil {
		t.Fatalf("Start() after Cancel failed: %v", err)
	}
	if n := sess.Result().Len(); n != 2 {
		t.Errorf("Expected 2 images, got %d", n)
	}
}

func TestBackendErrorKeepsResult(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{0: gen.GenerateImages(0, rs)}}
	sess := New(fake, Filters{})
	ctx := context.Background()

	if _, err := sess.Start(ctx, "a"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	boom := errors.New("boom")
	fake.Err = boom
	if _, err := sess.LoadNext(ctx); !errors.Is(err, boom) {
		t.Errorf("Expected the backend error, got %v", err)
	}
	if !sess.HasNextPage() {
		t.Error("Expected a failed fetch to leave the result open")
	}
	if sess.Result().Len() != 1 {
		t.Errorf("Expected the loaded image to survive, got %d", sess.Result().Len())
	}
}

func TestLoadNextBeforeStart(t *testing.T) {
	sess := New(&clienttest.Fake{}, Filters{})
	if _, err := sess.LoadNext(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}
	if sess.Result() != nil {
		t.Error("Expected no result before Start")
	}
}

func TestSetFiltersReapplies(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{0: gen.GenerateImages(0, rs, rq, re)}}
	sess := New(fake, Filters{})

	if _, err := sess.Start(context.Background(), "a"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	sess.SetFilters(FiltersFromPreferences("s q e u", "explicit"))

	for _, img := range sess.Result().Images() {
		if img.SafeSearchRating == re {
			t.Error("Expected blacklisted image to be removed")
		}
	}
	if sess.Result().Len() != 2 {
		t.Errorf("Expected 2 images, got %d", sess.Result().Len())
	}
}

func TestResultIsSnapshot(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{
		0: gen.GenerateImages(0, rs),
		1: gen.GenerateImages(1, rs),
	}}
	sess := New(fake, Filters{})
	ctx := context.Background()

	if _, err := sess.Start(ctx, "a"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	snapshot := sess.Result()
	if _, err := sess.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() failed: %v", err)
	}
	if snapshot.Len() != 1 {
		t.Errorf("Expected the snapshot to stay at 1 image, got %d", snapshot.Len())
	}
}

func TestFiltersFromPreferences(t *testing.T) {
	tests := []struct {
		name          string
		allowed       string
		blacklist     string
		wantExcluded  []booru.SafeSearchRating
		wantBlacklist int
	}{
		{"default", "", "", []booru.SafeSearchRating{rq, re}, 0},
		{"safe only", "s", "", []booru.SafeSearchRating{rq, re, ru}, 0},
		{"everything", "s q e u", "gore  spoilers", nil, 2},
		{"aliases", "f x", "", []booru.SafeSearchRating{rq, ru}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FiltersFromPreferences(tt.allowed, tt.blacklist)
			if len(f.Excluded) != len(tt.wantExcluded) {
				t.Fatalf("Excluded = %v, want %v", f.Excluded, tt.wantExcluded)
			}
			for i := range f.Excluded {
				if f.Excluded[i] != tt.wantExcluded[i] {
					t.Errorf("Excluded = %v, want %v", f.Excluded, tt.wantExcluded)
				}
			}
			if len(f.Blacklist) != tt.wantBlacklist {
				t.Errorf("Expected %d blacklisted tags, got %v", tt.wantBlacklist, f.Blacklist)
			}
		})
	}
}

func TestStartAtPage(t *testing.T) {
	fake := &clienttest.Fake{Pages: map[int][]booru.Image{
		0: gen.GenerateImages(0, rs),
		3: gen.GenerateImages(3, rs, rs),
	}}
	sess := New(fake, Filters{})

	added, err := sess.StartAt(context.Background(), "a", 3)
	if err != nil {
		t.Fatalf("StartAt() failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 images, got %d", added)
	}
	if calls := fake.Calls(); len(calls) != 1 || calls[0].Page != 3 {
		t.Errorf("Expected a single request for page 3, got %+v", calls)
	}
	if got := sess.Result().CurrentOffset(); got != 3 {
		t.Errorf("Expected offset 3, got %d", got)
	}
}
