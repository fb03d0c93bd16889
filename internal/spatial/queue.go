package spatial

// octantEntry is a node waiting in a ray query, keyed by the distance at
// which the ray enters it.
type octantEntry struct {
	id int
	t  float64
}

// octantQueue implements a min-heap of octants for container/heap.
type octantQueue []octantEntry

func (q octantQueue) Len() int { return len(q) }

func (q octantQueue) Less(i, j int) bool {
	if q[i].t != q[j].t {
		return q[i].t < q[j].t
	}
	return q[i].id < q[j].id
}

func (q octantQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *octantQueue) Push(x any) {
	*q = append(*q, x.(octantEntry))
}

func (q *octantQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
