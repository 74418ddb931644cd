package catalog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewCacheIsEmpty(t *testing.T) {
	c := NewCache()

	if c.Current().Len() != 0 {
		t.Errorf("Expected an empty snapshot")
	}

	if c.Ready() {
		t.Errorf("Expected a new cache not to be ready")
	}

	if c.Current().Lookup("") == nil {
		t.Errorf("Expected the empty snapshot to have a root")
	}
}

func TestCacheReplace(t *testing.T) {
	c := NewCache()

	old := NewSnapshot([]string{"team/app"}, time.Now())
	c.Replace(old)

	if c.Current() != old {
		t.Fatalf("Expected the installed snapshot")
	}

	if !c.Ready() {
		t.Errorf("Expected cache to be ready")
	}

	held := c.Current()

	next := NewSnapshot([]string{"other/app", "other/lib"}, time.Now())
	c.Replace(next)

	if c.Current() != next {
		t.Errorf("Expected the new snapshot")
	}

	// A reader holding the old snapshot still sees the old data
	if diff := cmp.Diff([]string{"team/app"}, held.Repositories()); diff != "" {
		t.Errorf("Old snapshot changed (-want +got):\n%s", diff)
	}

	if held.Lookup("other") != nil || held.Lookup("team/app") == nil {
		t.Errorf("Old snapshot index changed")
	}

	c.Replace(nil)
	if c.Current() != next {
		t.Errorf("Expected nil replacement to be ignored")
	}
}

func TestSnapshotCopiesInput(t *testing.T) {
	repositories := []string{"a/b", "c"}
	s := NewSnapshot(repositories, time.Now())
	repositories[0] = "changed"

	if !s.Contains("a/b") || s.Contains("changed") {
		t.Errorf("Snapshot changed with its input")
	}

	if diff := cmp.Diff([]string{"a/b", "c"}, s.Repositories()); diff != "" {
		t.Errorf("Unexpected repositories (-want +got):\n%s", diff)
	}

	out := s.Repositories()
	out[1] = "changed"
	if !s.Contains("c") || s.Repositories()[1] != "c" {
		t.Errorf("Snapshot changed through its output")
	}

	if s.Contains("a") {
		t.Errorf("Directory a should not be a repository")
	}
}

func TestCacheConcurrentReaders(t *testing.T) {
	c := NewCache()
	c.Replace(NewSnapshot([]string{"r0/app"}, time.Now()))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}

				s := c.Current()
				// Every snapshot is internally consistent
				for _, r := range s.Repositories() {
					if !s.Contains(r) || s.Lookup(r) == nil {
						t.Errorf("Inconsistent snapshot for %s", r)
						return
					}
				}
			}
		}()
	}

	for i := 1; i < 200; i++ {
		c.Replace(NewSnapshot([]string{fmt.Sprintf("r%d/app", i), fmt.Sprintf("r%d/lib", i)}, time.Now()))
	}

	close(stop)
	wg.Wait()
}
