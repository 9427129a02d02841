package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestEngineStressConcurrentSchedule(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const perWorker = 200
	const distinctJobs = 300
	total := workers * perWorker

	now := time.Now().UTC()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Jobs repeat across workers, so many schedules replace each other.
				n := (w*perWorker + i) % distinctJobs
				tr := Trigger{
					ID:  fmt.Sprintf("w%d-%d", w, i),
					Job: Job(fmt.Sprintf("job-%d", n)),
					At:  now.Add(time.Duration(n%50+500) * time.Millisecond),
				}
				if err := engine.Schedule(tr); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if p := engine.Pending(); p > distinctJobs {
		t.Fatalf("pending %d exceeds distinct jobs %d", p, distinctJobs)
	}

	seen := make(map[Job]int)
	deadline := time.After(5 * time.Second)
	for len(seen) < distinctJobs {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for triggers: jobs=%d total=%d dropped=%d", len(seen), total, engine.Dropped())
		case tr := <-engine.C():
			seen[tr.Job]++
		}
	}

	for job, n := range seen {
		if n != 1 {
			t.Fatalf("job %s fired %d times", job, n)
		}
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}
