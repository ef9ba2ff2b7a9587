package tree

import (
	"iter"

	"github.com/benz9527/xomap/lib/infra"
)

var _ OrderedMap[uint8, struct{}] = (*rbTree[uint8, struct{}])(nil)

type rbNode[K infra.OrderedKey, V any] struct {
	entry[K, V]
	parent uint32 // back-reference for the upward walks only
	color  RBColor
}

type rbTree[K infra.OrderedKey, V any] struct {
	omapCore[K, V]
	nodes *arena[rbNode[K, V]]
	root  uint32
	count int64
}

func (tree *rbTree[K, V]) node(idx uint32) *rbNode[K, V] {
	return tree.nodes.at(idx)
}

func (tree *rbTree[K, V]) entryAt(idx uint32) *entry[K, V] {
	return &tree.nodes.at(idx).entry
}

func (tree *rbTree[K, V]) isRed(idx uint32) bool {
	return idx != nilIdx && tree.node(idx).color == Red
}

// All NIL nodes are considered black.
func (tree *rbTree[K, V]) isBlack(idx uint32) bool {
	return !tree.isRed(idx)
}

// dirOf reports which link of its parent points at idx.
func (tree *rbTree[K, V]) dirOf(idx uint32) direction {
	p := tree.node(idx).parent
	if p == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[omap] root node without direction")
	}
	if tree.node(p).links[left] == idx {
		return left
	}
	return right
}

// transplant replaces the subtree rooted at u by the subtree rooted at v
// in u's parent. u's own links are left untouched.
func (tree *rbTree[K, V]) transplant(u, v uint32) {
	p := tree.node(u).parent
	if p == nilIdx {
		tree.root = v
	} else {
		tree.node(p).links[tree.dirOf(u)] = v
	}
	if v != nilIdx {
		tree.node(v).parent = p
	}
}

func (tree *rbTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K, V]) IsEmpty() bool {
	return tree.count == 0
}

func (tree *rbTree[K, V]) Policy() RebalancePolicy {
	return RedBlack
}

func (tree *rbTree[K, V]) liveNodes() int {
	return tree.nodes.live()
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.

/*
rotate(X, left):

		 |                         |
		 X                         S
		/ \     rotate(X, left)   / \
	   L   S    ==============>  X   Sd
		  / \                   / \
		Sc   Sd                L   Sc

rotate(S, right) is the mirror image and turns the right tree back
into the left one.
*/
func (tree *rbTree[K, V]) rotate(x uint32, dir direction) {
	xn := tree.node(x)
	y := xn.links[dir.opposite()]
	if y == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[omap] rotate pivot without child")
	}
	yn := tree.node(y)

	inner := yn.links[dir]
	xn.links[dir.opposite()] = inner
	if inner != nilIdx {
		tree.node(inner).parent = x
	}
	tree.transplant(x, y)
	yn.links[dir] = x
	xn.parent = y
	tree.stats.RecordRotation(dir)
}

func (tree *rbTree[K, V]) Put(key K, val V) {
	var y uint32 = nilIdx
	dir := left
	for x := tree.root; x != nilIdx; {
		n := tree.node(x)
		res := tree.kcmp(key, n.key)
		if /* equal */ res == 0 {
			n.val = val
			return
		} else /* less */ if res < 0 {
			dir = left
		} else /* greater */ {
			dir = right
		}
		y, x = x, n.links[dir]
	}

	z := tree.nodes.alloc(rbNode[K, V]{
		entry:  entry[K, V]{key: key, val: val},
		parent: y,
		color:  Red,
	})
	if /* empty */ y == nilIdx {
		tree.root = z
	} else {
		tree.node(y).links[dir] = z
	}
	tree.count++
	tree.stats.RecordLen(1)

	tree.putRebalance(z)
	tree.debugAssert(tree, fixupOpPut)
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

The loop stops as soon as X is the root or X's parent P is black.
P is red, so P is not the root and the grandpa G exists.

im1: Both the parent P and the uncle U are red, G is black.
Repaint P and U into black, G into red, then continue from G.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im2: The uncle U is black and X is the inner grandchild (zig-zag).
Rotate P to the opposite direction of X, then fall into im3 with P as X.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im3: The uncle U is black and X is the outer grandchild (zig-zig).
Rotate G, the former parent P takes G's color (black) and G turns red.
The red-violation is resolved.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K, V]) putRebalance(x uint32) {
	steps := int64(0)
	for x != tree.root && tree.isRed(tree.node(x).parent) {
		steps++
		p := tree.node(x).parent
		g := tree.node(p).parent
		dir := tree.dirOf(p)
		u := tree.node(g).links[dir.opposite()]

		if /* im1 */ tree.isRed(u) {
			tree.node(p).color = Black
			tree.node(u).color = Black
			tree.node(g).color = Red
			x = g
			continue
		}

		if /* im2 */ x == tree.node(p).links[dir.opposite()] {
			tree.rotate(p, dir)
			x, p = p, x
		}

		/* im3 */
		tree.node(p).color = Black
		tree.node(g).color = Red
		tree.rotate(g, dir.opposite())
		break
	}
	tree.node(tree.root).color = Black
	tree.stats.RecordFixups(fixupOpPut, steps)
}

func (tree *rbTree[K, V]) Get(key K) (V, error) {
	x := search[K, V](tree.root, key, tree.kcmp, tree.entryAt)
	if x == nilIdx {
		var zero V
		return zero, ErrOMapKeyNotFound
	}
	return tree.node(x).val, nil
}

func (tree *rbTree[K, V]) Contains(key K) bool {
	return search[K, V](tree.root, key, tree.kcmp, tree.entryAt) != nilIdx
}

func (tree *rbTree[K, V]) Min() (K, error) {
	if tree.count <= 0 {
		var zero K
		return zero, ErrOMapEmpty
	}
	return tree.node(edge[K, V](tree.root, left, tree.entryAt)).key, nil
}

func (tree *rbTree[K, V]) Max() (K, error) {
	if tree.count <= 0 {
		var zero K
		return zero, ErrOMapEmpty
	}
	return tree.node(edge[K, V](tree.root, right, tree.entryAt)).key, nil
}

func (tree *rbTree[K, V]) Delete(key K) (Element[K, V], error) {
	z := search[K, V](tree.root, key, tree.kcmp, tree.entryAt)
	if z == nilIdx {
		return nil, ErrOMapKeyNotFound
	}
	return tree.removeNode(z), nil
}

func (tree *rbTree[K, V]) DeleteMin() (Element[K, V], error) {
	if tree.count <= 0 {
		return nil, ErrOMapEmpty
	}
	return tree.removeNode(edge[K, V](tree.root, left, tree.entryAt)), nil
}

func (tree *rbTree[K, V]) DeleteMax() (Element[K, V], error) {
	if tree.count <= 0 {
		return nil, ErrOMapEmpty
	}
	return tree.removeNode(edge[K, V](tree.root, right, tree.entryAt)), nil
}

/*
r1: Z has left and right children.
Find Z's succ Y (the minimum of Z's right subtree), copy Y's key and
value into Z, Z keeps its color. Y has no left child, so Y is the node
to be spliced out (enter r2 or r3).

	  |                    |
	  Z                    Y
	 / \                  / \
	L  ..   copy(Y, Z)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  Y  ..                Y  ..

r2: Y has exactly one child C. The child must be red and Y black
(see p4), so C replaces Y and is repainted into black.

r3: Y is a leaf.
(1) Y is red, unlink it directly.
(2) Y is black, unlinking it causes black-violation. Y stays in the tree
as the doubly black node during the rebalance and is unlinked after it.
*/
func (tree *rbTree[K, V]) removeNode(z uint32) Element[K, V] {
	zn := tree.node(z)
	res := &element[K, V]{
		key: zn.key,
		val: zn.val,
	}

	y := z
	if /* r1 */ zn.links[left] != nilIdx && zn.links[right] != nilIdx {
		y = edge[K, V](zn.links[right], left, tree.entryAt)
		yn := tree.node(y)
		zn.key, zn.val = yn.key, yn.val
	}

	yn := tree.node(y)
	child := yn.links[left]
	if child == nilIdx {
		child = yn.links[right]
	}

	if /* r2 */ child != nilIdx {
		tree.transplant(y, child)
		if yn.color == Black {
			if tree.isRed(child) {
				tree.node(child).color = Black
			} else {
				tree.removeRebalance(child)
			}
		}
	} else /* r3 */ {
		if /* r3 (2) */ yn.color == Black && y != tree.root {
			tree.removeRebalance(y)
		}
		tree.transplant(y, nilIdx)
	}

	tree.nodes.release(y)
	tree.count--
	tree.stats.RecordLen(-1)

	tree.debugAssert(tree, fixupOpDelete)
	return res
}

/*
X is the doubly black node, P is X's parent and S is X's sibling.
Sc is the nephew in the same direction as X, Sd is the nephew in the
opposite direction.
Every case below is written for X as the left child of P, the right
child case is the mirror image and shares the same code by direction.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

rm1: The sibling S is red, so P, Sc and Sd must be black.
Repaint S into black, P into red and rotate P towards X.
X's new sibling is the black Sc, enter rm2, rm3 or rm4.

	  [P]                   <S>               [S]
	  / \    rotate(P)      / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: The sibling S and both nephews are black.
Repaint S into red, the deficiency moves up to P. If P is red, the
loop exits and P is repainted into black, otherwise continue from P.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: The sibling S is black, Sc is red and Sd is black.
Repaint Sc into black, S into red and rotate S away from X,
enter rm4 with Sc as the new sibling.

	  {P}                   {P}
	  / \    rotate(S)      / \
	[X] [S]  ==========>  [X] [Sc]
	    / \                     \
	  <Sc> [Sd]                 <S>
	                              \
	                              [Sd]

rm4: The sibling S is black and Sd is red.
S takes P's color, P and Sd are repainted into black and P is rotated
towards X. The black-violation is resolved.

	  {P}                   {S}
	  / \    rotate(P)      / \
	[X] [S]  ==========>  [P] [Sd]
	    / \               / \
	 {Sc} <Sd>          [X] {Sc}
*/
func (tree *rbTree[K, V]) removeRebalance(x uint32) {
	steps := int64(0)
	for x != tree.root && tree.isBlack(x) {
		steps++
		p := tree.node(x).parent
		dir := tree.dirOf(x)
		s := tree.node(p).links[dir.opposite()]

		if /* rm1 */ tree.isRed(s) {
			tree.node(s).color = Black
			tree.node(p).color = Red
			tree.rotate(p, dir)
			s = tree.node(p).links[dir.opposite()]
		}

		sn := tree.node(s)
		if /* rm2 */ tree.isBlack(sn.links[left]) && tree.isBlack(sn.links[right]) {
			sn.color = Red
			x = p
			continue
		}

		if /* rm3 */ tree.isBlack(sn.links[dir.opposite()]) {
			tree.node(sn.links[dir]).color = Black
			sn.color = Red
			tree.rotate(s, dir.opposite())
			s = tree.node(p).links[dir.opposite()]
			sn = tree.node(s)
		}

		/* rm4 */
		pn := tree.node(p)
		sn.color = pn.color
		pn.color = Black
		tree.node(sn.links[dir.opposite()]).color = Black
		tree.rotate(p, dir)
		x = tree.root
	}
	tree.node(x).color = Black
	tree.stats.RecordFixups(fixupOpDelete, steps)
}

func (tree *rbTree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkInorder[K, V](tree.root, left, tree.entryAt, yield)
	}
}

func (tree *rbTree[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkInorder[K, V](tree.root, right, tree.entryAt, yield)
	}
}

func (tree *rbTree[K, V]) PreOrder() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkPreorder[K, V](tree.root, tree.entryAt, yield)
	}
}

func (tree *rbTree[K, V]) PostOrder() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walkPostorder[K, V](tree.root, tree.entryAt, yield)
	}
}

func (tree *rbTree[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	idx := int64(0)
	walkInorder[K, V](tree.root, left, tree.entryAt, func(key K, val V) bool {
		res := action(idx, key, val)
		idx++
		return res
	})
}

func (tree *rbTree[K, V]) Release() {
	tree.stats.RecordLen(-tree.count)
	tree.nodes.reset()
	tree.root = nilIdx
	tree.count = 0
}
