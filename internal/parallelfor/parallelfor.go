// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package parallelfor implements the static parallel-for scheduling model
// used throughout the core: disjoint index ranges, no task queue, no
// cooperative scheduling, a barrier at the end of the loop.
package parallelfor

import "sync"

// DefaultChunk is the representative chunk size from the concurrency design
// (§5): large enough that scheduling overhead is negligible next to the
// per-node or per-triangle work.
const DefaultChunk = 1024

// Range splits [0,n) into chunks of size chunk (DefaultChunk if chunk<=0),
// runs fn(lo,hi) over each chunk in its own goroutine, and waits for all of
// them. fn must only write to output locations private to [lo,hi); no two
// chunks may write the same location.
func Range(n, chunk int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	if n <= chunk {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
