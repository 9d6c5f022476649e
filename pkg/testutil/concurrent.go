package testutil

import (
	"sync"
)

// ConcurrentResult tallies RunConcurrent outcomes.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	// FirstErr is the first failure observed, for assertion messages.
	FirstErr error
}

// Total returns the number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors
}

// RunConcurrent calls fn from n goroutines released at the same instant.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		start = make(chan struct{})
		res   = &ConcurrentResult{}
	)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors++
				if res.FirstErr == nil {
					res.FirstErr = err
				}
				return
			}
			res.Successes++
		}()
	}

	close(start)
	wg.Wait()
	return res
}
