// Package parallel runs independent jobs (folds, search candidates, row
// ranges) on a bounded number of goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Workers resolves a scikit-learn style n_jobs hint: -1 is every CPU, -2
// every CPU but one, and so on; 0 and 1 mean sequential. The result is
// capped at items.
func Workers(nJobs, items int) int {
	n := nJobs
	if nJobs < 0 {
		n = runtime.NumCPU() + 1 + nJobs
	}
	if n < 1 {
		n = 1
	}
	if n > items {
		n = items
	}
	return n
}

// Run calls fn(i) for every i in [0, n) using at most Workers(nJobs, n)
// goroutines and returns the error of the lowest failing index.
func Run(n, nJobs int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	workers := Workers(nJobs, n)
	errs := make([]error, n)

	if workers == 1 {
		for i := 0; i < n; i++ {
			if errs[i] = fn(i); errs[i] != nil {
				return errs[i]
			}
		}
		return nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Parallelize splits [0, items) into one contiguous range per CPU and calls
// fn(start, end) for each range concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	numWorkers := Workers(-1, items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) inline when items <= threshold
// and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
