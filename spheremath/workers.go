package spheremath

import (
	"runtime"
	"sync"
)

// ChunkWorkers splits the range [0, totalItems) into contiguous chunks and
// runs fn on each chunk in its own goroutine, blocking until all chunks
// are done. Each worker must only write to slots within its own chunk.
func ChunkWorkers(totalItems int, fn func(start, end int)) {
	numWorkers := runtime.NumCPU()
	if numWorkers > totalItems {
		numWorkers = totalItems
	}
	if numWorkers <= 1 {
		fn(0, totalItems)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (totalItems / numWorkers) + 1
	for chunkStart := 0; chunkStart < totalItems; chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > totalItems {
			chunkEnd = totalItems
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(chunkStart, chunkEnd)
	}
	wg.Wait()
}
