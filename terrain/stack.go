package terrain

// Stack is a LIFO worklist used by the graph passes.
type Stack[T any] interface {
	Pop() T
	Push(value T)
	Peek() T
	Len() int
	Empty() bool
	Clear()
	Data() []T
}

func NewStack[T any](construct func() T) Stack[T] {
	return &stack[T]{construct: construct}
}

type stack[T any] struct {
	data      []T
	construct func() T
}

func (s *stack[T]) Data() []T {
	return s.data
}

func (s *stack[T]) Clear() {
	s.data = s.data[:0]
}

// Pop returns the zero value built by construct when the stack is empty.
func (s *stack[T]) Pop() T {
	if s.Empty() {
		return s.construct()
	}
	e := s.data[s.Len()-1]
	s.data = s.data[:s.Len()-1]
	return e
}

func (s *stack[T]) Peek() T {
	if s.Empty() {
		return s.construct()
	}
	return s.data[s.Len()-1]
}

func (s *stack[T]) Push(value T) {
	s.data = append(s.data, value)
}

func (s *stack[T]) Len() int {
	return len(s.data)
}

func (s *stack[T]) Empty() bool {
	return s.Len() == 0
}
