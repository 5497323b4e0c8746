package aethelgard

// queueEntry is a single entry in the plate-growth priority queue.
type queueEntry struct {
	index int     // index of the item in the heap
	score float64 // priority of the item in the queue
	tile  int     // tile to be claimed
	plate int     // claiming plate
}

// ascPriorityQueue implements heap.Interface with ascending priority
// (lowest score first). Ties break on tile id, then plate id, so the
// growth order never depends on heap internals.
type ascPriorityQueue []*queueEntry

func (pq ascPriorityQueue) Len() int { return len(pq) }

func (pq ascPriorityQueue) Less(i, j int) bool {
	if pq[i].score != pq[j].score {
		return pq[i].score < pq[j].score
	}
	if pq[i].tile != pq[j].tile {
		return pq[i].tile < pq[j].tile
	}
	return pq[i].plate < pq[j].plate
}

func (pq *ascPriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	*pq = old[0 : n-1]
	return item
}

func (pq *ascPriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*queueEntry)
	item.index = n
	*pq = append(*pq, item)
}

func (pq ascPriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
