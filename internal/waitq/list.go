// Package waitq provides the FIFO list that backs the asyncmu waiter
// queue. Unlike container/list, it is generic, and Remove reports
// whether the element was still linked, which is how the mutex tells
// a cancelled waiter apart from one that was already granted.
//
// A List is not safe for concurrent use; callers supply their own guard.
package waitq

// List is a doubly-linked list. It is adapted from container/list.List.
// The zero value is an empty list ready to use.
type List[T any] struct {
	root Element[T]
	len  int
}

// lazyInit lazily initializes a zero List value.
func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
		l.len = 0
	}
}

// Len returns the number of elements of list l.
func (l *List[T]) Len() int {
	return l.len
}

// Front returns the first element of list l or nil.
func (l *List[T]) Front() *Element[T] {
	if l.len == 0 {
		return nil
	}

	return l.root.next
}

// PushBack inserts a new element with value v at the back
// of list l and returns it.
func (l *List[T]) PushBack(v T) *Element[T] {
	l.lazyInit()
	return l.insert(&Element[T]{Value: v}, l.root.prev)
}

// Remove removes e from l and reports whether e was an element
// of l at the time of the call. Removing an element twice is
// harmless: the second call returns false.
func (l *List[T]) Remove(e *Element[T]) bool {
	if e == nil || e.list != l {
		return false
	}

	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil // avoid memory leaks
	e.prev = nil // avoid memory leaks
	e.list = nil
	l.len--
	return true
}

func (l *List[T]) insert(e, at *Element[T]) *Element[T] {
	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
	e.list = l
	l.len++

	return e
}

// Element is a node of a List.
type Element[T any] struct {
	next, prev *Element[T]

	list *List[T]

	Value T
}

// Next returns the next list element or nil.
func (e *Element[T]) Next() *Element[T] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}

	return nil
}

// Linked reports whether e is currently an element of a list.
func (e *Element[T]) Linked() bool {
	return e.list != nil
}
