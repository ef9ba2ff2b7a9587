package tree

import (
	"iter"

	"github.com/benz9527/xomap/lib/infra"
)

var _ OrderedMap[uint8, struct{}] = (*avlTree[uint8, struct{}])(nil)

// AVL properties:
// a1. Binary search tree ordering.
// a2. |height(left) - height(right)| <= 1 at every node.
// a3. height = 1 + max(height(left), height(right)), NIL height is 0.

type avlNode[K infra.OrderedKey, V any] struct {
	entry[K, V]
	height int32
}

type avlTree[K infra.OrderedKey, V any] struct {
	omapCore[K, V]
	nodes *arena[avlNode[K, V]]
	root  uint32
	count int64
	// The ancestors of the mutated position and the directions taken
	// from each of them. Reused by every mutation.
	path []uint32
	dirs []direction
}

func (tree *avlTree[K, V]) node(idx uint32) *avlNode[K, V] {
	return tree.nodes.at(idx)
}

func (tree *avlTree[K, V]) entryAt(idx uint32) *entry[K, V] {
	return &tree.nodes.at(idx).entry
}

func (tree *avlTree[K, V]) height(idx uint32) int32 {
	if idx == nilIdx {
		return 0
	}
	return tree.node(idx).height
}

func (tree *avlTree[K, V]) updateHeight(idx uint32) {
	n := tree.node(idx)
	n.height = 1 + max(tree.height(n.links[left]), tree.height(n.links[right]))
}

// Balance factor, height(left) - height(right).
func (tree *avlTree[K, V]) balanceFactor(idx uint32) int32 {
	n := tree.node(idx)
	return tree.height(n.links[left]) - tree.height(n.links[right])
}

func (tree *avlTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *avlTree[K, V]) IsEmpty() bool {
	return tree.count == 0
}

func (tree *avlTree[K, V]) Policy() RebalancePolicy {
	return AVL
}

func (tree *avlTree[K, V]) liveNodes() int {
	return tree.nodes.live()
}

/*
rotate(X, left) returns the new subtree root S, the caller relinks it.

		 |                         |
		 X                         S
		/ \     rotate(X, left)   / \
	   L   S    ==============>  X   Sd
		  / \                   / \
		Sc   Sd                L   Sc

X is lowered, so its height is updated before S's.
*/
func (tree *avlTree[K, V]) rotate(x uint32, dir direction) uint32 {
	xn := tree.node(x)
	y := xn.links[dir.opposite()]
	if y == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[omap] rotate pivot without child")
	}
	yn := tree.node(y)
	xn.links[dir.opposite()] = yn.links[dir]
	yn.links[dir] = x
	tree.updateHeight(x)
	tree.updateHeight(y)
	tree.stats.RecordRotation(dir)
	return y
}

/*
rebalance restores a2 at X and returns the new subtree root.
The heavy child C decides the pattern:

LL: C leans to the same side as X (or is even), rotate(X, right).
LR: C leans to the opposite side, rotate(C, left) then rotate(X, right).
RR and RL are the mirror images.

	      X                  X                 Gc
	     /                  /                 /  \
	    C     rotate(C)    Gc    rotate(X)   C    X
	     \    ========>   /      ========>
	      Gc             C
*/
func (tree *avlTree[K, V]) rebalance(x uint32) uint32 {
	tree.updateHeight(x)
	bf := tree.balanceFactor(x)
	if bf >= -1 && bf <= 1 {
		return x
	}

	heavy := left
	if bf < 0 {
		heavy = right
	}
	xn := tree.node(x)
	c := xn.links[heavy]
	cn := tree.node(c)
	if /* LR, RL */ tree.height(cn.links[heavy.opposite()]) > tree.height(cn.links[heavy]) {
		xn.links[heavy] = tree.rotate(c, heavy)
	}
	/* LL, RR */
	return tree.rotate(x, heavy.opposite())
}

// retrace walks the recorded path back to the root, rebalancing every
// ancestor. It stops early once a subtree keeps its former height
// because nothing above it can change.
func (tree *avlTree[K, V]) retrace(op string) {
	steps := int64(0)
	for i := len(tree.path) - 1; i >= 0; i-- {
		steps++
		x := tree.path[i]
		former := tree.node(x).height
		y := tree.rebalance(x)
		if i == 0 {
			tree.root = y
		} else {
			tree.node(tree.path[i-1]).links[tree.dirs[i-1]] = y
		}
		if tree.node(y).height == former {
			break
		}
	}
	tree.stats.RecordFixups(op, steps)
}

func (tree *avlTree[K, V]) resetPath() {
	tree.path = tree.path[:0]
	tree.dirs = tree.dirs[:0]
}

func (tree *avlTree[K, V]) pushPath(idx uint32, dir direction) {
	tree.path = append(tree.path, idx)
	tree.dirs = append(tree.dirs, dir)
}

// link points the last recorded ancestor (or the root) at idx.
func (tree *avlTree[K, V]) link(idx uint32) {
	if l := len(tree.path); l == 0 {
		tree.root = idx
	} else {
		tree.node(tree.path[l-1]).links[tree.dirs[l-1]] = idx
	}
}

func (tree *avlTree[K, V]) Put(key K, val V) {
	tree.resetPath()
	for x := tree.root; x != nilIdx; {
		n := tree.node(x)
		res := tree.kcmp(key, n.key)
		if /* equal */ res == 0 {
			n.val = val
			return
		}
		dir := right
		if /* less */ res < 0 {
			dir = left
		}
		tree.pushPath(x, dir)
		x = n.links[dir]
	}

	z := tree.nodes.alloc(avlNode[K, V]{
		entry:  entry[K, V]{key: key, val: val},
		height: 1,
	})
	tree.link(z)
	tree.count++
	tree.stats.RecordLen(1)

	tree.retrace(fixupOpPut)
	tree.debugAssert(tree, fixupOpPut)
}

func (tree *avlTree[K, V]) Get(key K) (V, error) {
	x := search[K, V](tree.root, key, tree.kcmp, tree.entryAt)
	if x == nilIdx {
		var zero V
		return zero, ErrOMapKeyNotFound
	}
	return tree.node(x).val, nil
}

func (tree *avlTree[K, V]) Contains(key K) bool {
	return search[K, V](tree.root, key, tree.kcmp, tree.entryAt) != nilIdx
}

func (tree *avlTree[K, V]) Min() (K, error) {
	if tree.count <= 0 {
		var zero K
		return zero, ErrOMapEmpty
	}
	return tree.node(edge[K, V](tree.root, left, tree.entryAt)).key, nil
}

func (tree *avlTree[K, V]) Max() (K, error) {
	if tree.count <= 0 {
		var zero K
		return zero, ErrOMapEmpty
	}
	return tree.node(edge[K, V](tree.root, right, tree.entryAt)).key, nil
}

func (tree *avlTree[K, V]) Delete(key K) (Element[K, V], error) {
	tree.resetPath()
	z := tree.root
	for z != nilIdx {
		n := tree.node(z)
		res := tree.kcmp(key, n.key)
		if /* equal */ res == 0 {
			break
		}
		dir := right
		if /* less */ res < 0 {
			dir = left
		}
		tree.pushPath(z, dir)
		z = n.links[dir]
	}
	if z == nilIdx {
		return nil, ErrOMapKeyNotFound
	}
	return tree.removeNode(z), nil
}

// DeleteMin and DeleteMax record the path along the edge while descending.
func (tree *avlTree[K, V]) deleteEdge(dir direction) (Element[K, V], error) {
	if tree.count <= 0 {
		return nil, ErrOMapEmpty
	}
	tree.resetPath()
	z := tree.root
	for next := tree.node(z).links[dir]; next != nilIdx; next = tree.node(z).links[dir] {
		tree.pushPath(z, dir)
		z = next
	}
	return tree.removeNode(z), nil
}

func (tree *avlTree[K, V]) DeleteMin() (Element[K, V], error) {
	return tree.deleteEdge(left)
}

func (tree *avlTree[K, V]) DeleteMax() (Element[K, V], error) {
	return tree.deleteEdge(right)
}

/*
removeNode expects the path to hold every ancestor of Z.

r1: Z has two children. Keep descending to Z's succ Y (the minimum of
Z's right subtree), copy Y's key and value into Z and splice Y instead.
r2: The spliced node has at most one child C, C takes its position.
Then retrace from the spliced node's parent.
*/
func (tree *avlTree[K, V]) removeNode(z uint32) Element[K, V] {
	zn := tree.node(z)
	res := &element[K, V]{
		key: zn.key,
		val: zn.val,
	}

	y := z
	if /* r1 */ zn.links[left] != nilIdx && zn.links[right] != nilIdx {
		tree.pushPath(z, right)
		y = zn.links[right]
		for next := tree.node(y).links[left]; next != nilIdx; next = tree.node(y).links[left] {
			tree.pushPath(y, left)
			y = next
		}
		yn := tree.node(y)
		zn.key, zn.val = yn.key, yn.val
	}

	/* r2 */
	yn := tree.node(y)
	child := yn.links[left]
	if child == nilIdx {
		child = yn.links[right]
	}
	tree.link(child)
	tree.nodes.release(y)
	tree.count--
	tree.stats.RecordLen(-1)

	tree.retrace(fixupOpDelete)
	tree.debugAssert(tree, fixupOpDelete)
	return res
}

func (tree *avlTree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkInorder[K, V](tree.root, left, tree.entryAt, yield)
	}
}

func (tree *avlTree[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkInorder[K, V](tree.root, right, tree.entryAt, yield)
	}
}

func (tree *avlTree[K, V]) PreOrder() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkPreorder[K, V](tree.root, tree.entryAt, yield)
	}
}

func (tree *avlTree[K, V]) PostOrder() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkPostorder[K, V](tree.root, tree.entryAt, yield)
	}
}

func (tree *avlTree[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	idx := int64(0)
	walkInorder[K, V](tree.root, left, tree.entryAt, func(key K, val V) bool {
		res := action(idx, key, val)
		idx++
		return res
	})
}

func (tree *avlTree[K, V]) Release() {
	tree.stats.RecordLen(-tree.count)
	tree.nodes.reset()
	tree.resetPath()
	tree.root = nilIdx
	tree.count = 0
}
