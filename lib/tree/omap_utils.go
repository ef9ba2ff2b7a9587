package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xomap/lib/infra"
)

var (
	errOMapPolicyMismatch = errors.New("[omap] validator does not match the rebalance policy")
	errOMapUnknownImpl    = errors.New("[omap] validator does not know the ordered map implementation")
)

// Tree rule validation utilities.
// All of them are O(n), they serve tests and the debug check only.

type omapUnwrapper[K infra.OrderedKey, V any] interface {
	unwrap() (impl OrderedMap[K, V], done func())
}

// resolve peels the locked delegator off. The delegator's read lock is
// held until done is called.
func resolve[K infra.OrderedKey, V any](m OrderedMap[K, V]) (OrderedMap[K, V], func()) {
	if u, ok := m.(omapUnwrapper[K, V]); ok {
		return u.unwrap()
	}
	return m, func() {}
}

// Validate checks every invariant applicable to the map's rebalance
// policy and aggregates all violations.
// Each violation wraps ErrOMapInvariantViolation.
func Validate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	impl, done := resolve[K, V](m)
	defer done()

	var err error
	err = multierr.Append(err, orderViolationValidate[K, V](impl))
	err = multierr.Append(err, sizeViolationValidate[K, V](impl))
	switch impl.Policy() {
	case RedBlack:
		err = multierr.Append(err, parentLinkViolationValidate[K, V](impl))
		err = multierr.Append(err, redViolationValidate[K, V](impl))
		err = multierr.Append(err, blackViolationValidate[K, V](impl))
	case AVL:
		err = multierr.Append(err, heightViolationValidate[K, V](impl))
	default:
	}
	return err
}

func comparatorOf[K infra.OrderedKey, V any](m OrderedMap[K, V]) (infra.OrderedKeyComparator[K], error) {
	switch tree := m.(type) {
	case *rbTree[K, V]:
		return tree.kcmp, nil
	case *avlTree[K, V]:
		return tree.kcmp, nil
	default:
	}
	return nil, fmt.Errorf("%w: %T", errOMapUnknownImpl, m)
}

// OrderViolationValidate checks that the inorder traversal is strictly
// increasing by the map's comparator.
func OrderViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	impl, done := resolve[K, V](m)
	defer done()
	return orderViolationValidate[K, V](impl)
}

func orderViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	kcmp, err := comparatorOf[K, V](m)
	if err != nil {
		return err
	}
	var (
		prev    K
		hasPrev bool
	)
	m.Foreach(func(idx int64, key K, val V) bool {
		if hasPrev && kcmp(prev, key) >= 0 {
			err = fmt.Errorf("%w: order violation at index %d, key %v after %v",
				ErrOMapInvariantViolation, idx, key, prev)
			return false
		}
		prev, hasPrev = key, true
		return true
	})
	return err
}

func sizeViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	visited := int64(0)
	m.Foreach(func(int64, K, V) bool {
		visited++
		return true
	})
	var err error
	if visited != m.Len() {
		err = multierr.Append(err, fmt.Errorf("%w: size violation, len %d, reachable %d",
			ErrOMapInvariantViolation, m.Len(), visited))
	}
	if counter, ok := m.(interface{ liveNodes() int }); ok && int64(counter.liveNodes()) != m.Len() {
		err = multierr.Append(err, fmt.Errorf("%w: size violation, len %d, live nodes %d",
			ErrOMapInvariantViolation, m.Len(), counter.liveNodes()))
	}
	return err
}

func asRBTree[K infra.OrderedKey, V any](m OrderedMap[K, V]) (*rbTree[K, V], error) {
	tree, ok := m.(*rbTree[K, V])
	if !ok {
		return nil, fmt.Errorf("%w: %s", errOMapPolicyMismatch, m.Policy())
	}
	return tree, nil
}

// ParentLinkViolationValidate checks that every parent back-reference
// agrees with the owning child link.
func ParentLinkViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	impl, done := resolve[K, V](m)
	defer done()
	return parentLinkViolationValidate[K, V](impl)
}

func parentLinkViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	tree, err := asRBTree[K, V](m)
	if err != nil || tree.root == nilIdx {
		return err
	}
	if p := tree.node(tree.root).parent; p != nilIdx {
		return fmt.Errorf("%w: root has parent %d", ErrOMapInvariantViolation, p)
	}

	stack := make([]uint32, 0, 32)
	stack = append(stack, tree.root)
	for size := len(stack); size > 0; size = len(stack) {
		x := stack[size-1]
		stack = stack[:size-1]
		for _, c := range tree.node(x).links {
			if c == nilIdx {
				continue
			}
			if cn := tree.node(c); cn.parent != x {
				return fmt.Errorf("%w: parent link violation, key %v",
					ErrOMapInvariantViolation, cn.key)
			}
			stack = append(stack, c)
		}
	}
	return nil
}

// RedViolationValidate checks p3 and p5, no red node has a red child
// and the root is black.
func RedViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	impl, done := resolve[K, V](m)
	defer done()
	return redViolationValidate[K, V](impl)
}

func redViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	tree, err := asRBTree[K, V](m)
	if err != nil || tree.root == nilIdx {
		return err
	}
	if tree.isRed(tree.root) {
		return fmt.Errorf("%w: red root", ErrOMapInvariantViolation)
	}

	stack := make([]uint32, 0, 32)
	stack = append(stack, tree.root)
	for size := len(stack); size > 0; size = len(stack) {
		x := stack[size-1]
		stack = stack[:size-1]
		xn := tree.node(x)
		for _, c := range xn.links {
			if c == nilIdx {
				continue
			}
			if xn.color == Red && tree.isRed(c) {
				return fmt.Errorf("%w: red violation, key %v",
					ErrOMapInvariantViolation, xn.key)
			}
			stack = append(stack, c)
		}
	}
	return nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Every path from the root to a NIL leaf walks through the same number
of black nodes (p4). Each path is walked exhaustively.
*/
func BlackViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	impl, done := resolve[K, V](m)
	defer done()
	return blackViolationValidate[K, V](impl)
}

func blackViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	tree, err := asRBTree[K, V](m)
	if err != nil || tree.root == nilIdx {
		return err
	}

	type frame struct {
		idx    uint32
		blacks int
	}
	blackHeight := -1
	stack := make([]frame, 0, 32)
	stack = append(stack, frame{idx: tree.root})
	for size := len(stack); size > 0; size = len(stack) {
		f := stack[size-1]
		stack = stack[:size-1]
		xn := tree.node(f.idx)
		if xn.color == Black {
			f.blacks++
		}
		for _, c := range xn.links {
			if c != nilIdx {
				stack = append(stack, frame{idx: c, blacks: f.blacks})
				continue
			}
			if /* NIL leaf */ blackHeight < 0 {
				blackHeight = f.blacks
			} else if blackHeight != f.blacks {
				return fmt.Errorf("%w: black violation, key %v has %d black nodes, expected %d",
					ErrOMapInvariantViolation, xn.key, f.blacks, blackHeight)
			}
		}
	}
	return nil
}

// HeightViolationValidate checks a2 and a3 of the AVL tree.
func HeightViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	impl, done := resolve[K, V](m)
	defer done()
	return heightViolationValidate[K, V](impl)
}

func heightViolationValidate[K infra.OrderedKey, V any](m OrderedMap[K, V]) error {
	tree, ok := m.(*avlTree[K, V])
	if !ok {
		return fmt.Errorf("%w: %s", errOMapPolicyMismatch, m.Policy())
	}

	var err error
	var walk func(idx uint32) int32
	walk = func(idx uint32) int32 {
		if idx == nilIdx {
			return 0
		}
		xn := tree.node(idx)
		lh, rh := walk(xn.links[left]), walk(xn.links[right])
		h := 1 + max(lh, rh)
		if xn.height != h {
			err = multierr.Append(err, fmt.Errorf("%w: height violation, key %v stores %d, expected %d",
				ErrOMapInvariantViolation, xn.key, xn.height, h))
		}
		if bf := lh - rh; bf > 1 || bf < -1 {
			err = multierr.Append(err, fmt.Errorf("%w: balance violation, key %v has balance factor %d",
				ErrOMapInvariantViolation, xn.key, bf))
		}
		return h
	}
	walk(tree.root)
	return err
}
