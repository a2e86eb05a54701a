package terrain

import "container/heap"

// NodeQueueIndex is implemented by queue entries that track their own heap
// position, which Update and Remove rely on.
type NodeQueueIndex interface {
	SetIndex(index int)
	GetIndex() int
}

type NodeQueue[T any] interface {
	Peek() T // top without removing
	Poll() T // pop the top
	Update(T) bool
	Remove(T) bool
	Offer(T)
	Reset()
	Len() int
	Empty() bool
}

// priority queue
type nodeQueue[T any] struct {
	data []T
	less func(t1, t2 T) bool
}

func NewNodeQueue[T any](less func(t1, t2 T) bool) NodeQueue[T] {
	q := &nodeQueue[T]{less: less}
	heap.Init(q)
	return q
}

// Reset empties the queue; indexed entries are marked as no longer queued.
func (q *nodeQueue[T]) Reset() {
	for _, e := range q.data {
		if v, ok := any(e).(NodeQueueIndex); ok {
			v.SetIndex(-1)
		}
	}
	q.data = q.data[:0]
}

func (q *nodeQueue[T]) Peek() T {
	return q.data[0]
}

func (q *nodeQueue[T]) Poll() T { return heap.Pop(q).(T) }

// Update restores heap order after the priority of value changed.
func (q *nodeQueue[T]) Update(value T) bool {
	if v, ok := any(value).(NodeQueueIndex); ok && v.GetIndex() >= 0 {
		heap.Fix(q, v.GetIndex())
		return true
	}
	return false
}

func (q *nodeQueue[T]) Remove(value T) bool {
	if v, ok := any(value).(NodeQueueIndex); ok && v.GetIndex() >= 0 {
		heap.Remove(q, v.GetIndex())
		return true
	}
	return false
}

func (q *nodeQueue[T]) Offer(value T) { heap.Push(q, value) }

func (q *nodeQueue[T]) Push(x any) {
	q.data = append(q.data, x.(T))
	if v, ok := x.(NodeQueueIndex); ok {
		v.SetIndex(len(q.data) - 1)
	}
}

// Pop removes the last element; heap.Pop has already swapped the top there.
func (q *nodeQueue[T]) Pop() any {
	n := len(q.data) - 1
	res := q.data[n]
	var zero T
	q.data[n] = zero
	q.data = q.data[:n]
	if v, ok := any(res).(NodeQueueIndex); ok {
		v.SetIndex(-1)
	}
	return res
}

func (q *nodeQueue[T]) Len() int {
	return len(q.data)
}

func (q *nodeQueue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *nodeQueue[T]) Less(i, j int) bool { return q.less(q.data[i], q.data[j]) }

func (q *nodeQueue[T]) Swap(i, j int) {
	q.data[i], q.data[j] = q.data[j], q.data[i]
	if v, ok := any(q.data[i]).(NodeQueueIndex); ok {
		v.SetIndex(i)
	}
	if v, ok := any(q.data[j]).(NodeQueueIndex); ok {
		v.SetIndex(j)
	}
}
