// Package dlist implements an intrusive, circular, doubly-linked list with a
// sentinel head node, the Go counterpart of original_source's list.h. Nodes
// own their payload directly (Go generics make the container_of dance
// unnecessary) so callers can pre-allocate a flat array of Node[T] and link
// them without ever touching the heap per-item.
package dlist

// Node is one element of a List. The zero value is not linked to anything;
// use List.PushBack/PushFront to insert it.
type Node[T any] struct {
	prev, next *Node[T]
	linked     bool
	Value      T
}

// Linked reports whether the node is currently part of a list.
func (n *Node[T]) Linked() bool { return n.linked }

// List is a circular doubly-linked list with a sentinel head, matching
// list.h's INIT_LIST_HEAD / list_add / list_add_tail / list_del / list_empty.
type List[T any] struct {
	head Node[T]
	init bool
}

func (l *List[T]) lazyInit() {
	if !l.init {
		l.head.next = &l.head
		l.head.prev = &l.head
		l.init = true
	}
}

// Reset detaches every node, clearing each one's linked flag, and restores
// the list to empty, so a fixed node array can be reused afterwards.
func (l *List[T]) Reset() {
	l.lazyInit()
	for n := l.head.next; n != &l.head; {
		next := n.next
		n.prev, n.next, n.linked = nil, nil, false
		n = next
	}
	l.head.next = &l.head
	l.head.prev = &l.head
}

func insertBetween[T any](n, prev, next *Node[T]) {
	n.next = next
	next.prev = n
	prev.next = n
	n.prev = prev
	n.linked = true
}

// PushBack links n as the new tail of the list (list_add_tail).
func (l *List[T]) PushBack(n *Node[T]) {
	l.lazyInit()
	insertBetween(n, l.head.prev, &l.head)
}

// PushFront links n as the new head of the list (list_add).
func (l *List[T]) PushFront(n *Node[T]) {
	l.lazyInit()
	insertBetween(n, &l.head, l.head.next)
}

// Remove unlinks n from whatever list it is part of (list_del). It is a
// no-op if n is not currently linked.
func (l *List[T]) Remove(n *Node[T]) {
	if !n.linked {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next, n.linked = nil, nil, false
}

// Empty reports whether the list has no linked nodes (list_empty).
func (l *List[T]) Empty() bool {
	l.lazyInit()
	return l.head.next == &l.head
}

// Each walks the list front-to-back, calling fn for every node. fn may call
// Remove on the node it was just given (list_for_each_safe's contract); it
// must not remove any other node mid-traversal. Iteration stops early if fn
// returns false.
func (l *List[T]) Each(fn func(*Node[T]) bool) {
	l.lazyInit()
	for n, next := l.head.next, (*Node[T])(nil); n != &l.head; n = next {
		next = n.next
		if !fn(n) {
			return
		}
	}
}
