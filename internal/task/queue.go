package task

import "container/heap"

// record is the runner's bookkeeping for one submitted task. It is owned by
// the runner; workers mutate it only through the runner's critical sections.
type record struct {
	task    Task
	seq     uint64
	heapIdx int
	result  Result
}

// readyQueue is a min-heap of runnable records ordered by priority, with
// submission order breaking ties.
type readyQueue []*record

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	pi, pj := q[i].task.Priority(), q[j].task.Priority()
	if pi != pj {
		return pi < pj
	}
	return q[i].seq < q[j].seq
}

func (q readyQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIdx = i
	q[j].heapIdx = j
}

func (q *readyQueue) Push(x any) {
	rec := x.(*record)
	rec.heapIdx = len(*q)
	*q = append(*q, rec)
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil
	rec.heapIdx = -1
	*q = old[:n-1]
	return rec
}

var _ heap.Interface = (*readyQueue)(nil)
