package tree

import (
	"github.com/benz9527/xomap/lib/infra"
)

type direction uint8

const (
	left direction = iota
	right
)

func (d direction) opposite() direction {
	return d ^ 1
}

func (d direction) String() string {
	if d == left {
		return "left"
	}
	return "right"
}

// entry is the payload shared by both node layouts.
// links are the owning child links indexed by direction.
type entry[K infra.OrderedKey, V any] struct {
	key   K
	val   V
	links [2]uint32
}

type entryAccessor[K infra.OrderedKey, V any] func(idx uint32) *entry[K, V]

func search[K infra.OrderedKey, V any](
	root uint32,
	key K,
	kcmp infra.OrderedKeyComparator[K],
	at entryAccessor[K, V],
) uint32 {
	for aux := root; aux != nilIdx; {
		e := at(aux)
		res := kcmp(key, e.key)
		if /* equal */ res == 0 {
			return aux
		} else /* less */ if res < 0 {
			aux = e.links[left]
		} else /* greater */ {
			aux = e.links[right]
		}
	}
	return nilIdx
}

// edge descends all the way to one side, left for the minimum and
// right for the maximum.
func edge[K infra.OrderedKey, V any](root uint32, d direction, at entryAccessor[K, V]) uint32 {
	if root == nilIdx {
		return nilIdx
	}
	aux := root
	for next := at(aux).links[d]; next != nilIdx; next = at(aux).links[d] {
		aux = next
	}
	return aux
}

// Inorder traversal to implement the DFS.
// first is left for the ascending order and right for the descending order.
func walkInorder[K infra.OrderedKey, V any](
	root uint32,
	first direction,
	at entryAccessor[K, V],
	yield func(K, V) bool,
) {
	stack := make([]uint32, 0, 32)
	defer func() {
		clear(stack)
	}()

	for aux := root; aux != nilIdx; aux = at(aux).links[first] {
		stack = append(stack, aux)
	}
	for size := len(stack); size > 0; size = len(stack) {
		e := at(stack[size-1])
		stack = stack[:size-1]
		key, val, next := e.key, e.val, e.links[first.opposite()]
		if !yield(key, val) {
			return
		}
		for aux := next; aux != nilIdx; aux = at(aux).links[first] {
			stack = append(stack, aux)
		}
	}
}

func walkPreorder[K infra.OrderedKey, V any](
	root uint32,
	at entryAccessor[K, V],
	yield func(K, V) bool,
) {
	if root == nilIdx {
		return
	}
	stack := make([]uint32, 0, 32)
	defer func() {
		clear(stack)
	}()

	stack = append(stack, root)
	for size := len(stack); size > 0; size = len(stack) {
		e := at(stack[size-1])
		stack = stack[:size-1]
		key, val, l, r := e.key, e.val, e.links[left], e.links[right]
		if !yield(key, val) {
			return
		}
		if r != nilIdx {
			stack = append(stack, r)
		}
		if l != nilIdx {
			stack = append(stack, l)
		}
	}
}

func walkPostorder[K infra.OrderedKey, V any](
	root uint32,
	at entryAccessor[K, V],
	yield func(K, V) bool,
) {
	stack := make([]uint32, 0, 32)
	defer func() {
		clear(stack)
	}()

	var lastVisited uint32
	for aux := root; aux != nilIdx || len(stack) > 0; {
		if aux != nilIdx {
			stack = append(stack, aux)
			aux = at(aux).links[left]
			continue
		}
		top := at(stack[len(stack)-1])
		if r := top.links[right]; r != nilIdx && r != lastVisited {
			aux = r
			continue
		}
		lastVisited = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !yield(top.key, top.val) {
			return
		}
	}
}
