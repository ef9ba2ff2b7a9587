package tree

import (
	randv2 "math/rand/v2"
	"sort"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type rbCheckData struct {
	color RBColor
	key   uint64
}

func newTestRBTree() *rbTree[uint64, uint64] {
	return NewRBTree[uint64, uint64]().(*rbTree[uint64, uint64])
}

func rbInorderColors(tree *rbTree[uint64, uint64]) []rbCheckData {
	res := make([]rbCheckData, 0, tree.Len())
	var walk func(idx uint32)
	walk = func(idx uint32) {
		if idx == nilIdx {
			return
		}
		n := tree.node(idx)
		walk(n.links[left])
		res = append(res, rbCheckData{color: n.color, key: n.key})
		walk(n.links[right])
	}
	walk(tree.root)
	return res
}

func requireRBTree(t *testing.T, tree *rbTree[uint64, uint64], expected []rbCheckData) {
	require.Equal(t, expected, rbInorderColors(tree))
	require.NoError(t, RedViolationValidate[uint64, uint64](tree))
	require.NoError(t, BlackViolationValidate[uint64, uint64](tree))
	require.NoError(t, ParentLinkViolationValidate[uint64, uint64](tree))
}

func TestRbtreeLeftAndRightRotate_Succ(t *testing.T) {
	tree := newTestRBTree()

	tree.Put(52, 1)
	requireRBTree(t, tree, []rbCheckData{
		{Black, 52},
	})

	tree.Put(47, 1)
	requireRBTree(t, tree, []rbCheckData{
		{Red, 47}, {Black, 52},
	})

	tree.Put(3, 1)
	requireRBTree(t, tree, []rbCheckData{
		{Red, 3}, {Black, 47}, {Red, 52},
	})

	tree.Put(35, 1)
	requireRBTree(t, tree, []rbCheckData{
		{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	tree.Put(24, 1)
	requireRBTree(t, tree, []rbCheckData{
		{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	// remove

	x, err := tree.Delete(24)
	require.NoError(t, err)
	require.Equal(t, uint64(24), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52},
	})

	x, err = tree.Delete(47)
	require.NoError(t, err)
	require.Equal(t, uint64(47), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 3}, {Black, 35}, {Black, 52},
	})

	x, err = tree.Delete(52)
	require.NoError(t, err)
	require.Equal(t, uint64(52), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Red, 3}, {Black, 35},
	})

	x, err = tree.Delete(3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 35},
	})

	x, err = tree.Delete(35)
	require.NoError(t, err)
	require.Equal(t, uint64(35), x.Key())
	require.Equal(t, int64(0), tree.Len())
	require.Equal(t, nilIdx, tree.root)
	require.Equal(t, 0, tree.liveNodes())
}

func TestRbtree_RemoveRebalanceCases(t *testing.T) {
	testcases := []struct {
		name     string
		keys     []uint64
		before   []rbCheckData
		remove   uint64
		after    []rbCheckData
		preorder []uint64
	}{
		{
			// The sibling 20 is red, rm1 then rm2 stops at the red 10.
			name: "rm1 left",
			keys: []uint64{10, 5, 20, 15, 25, 30},
			before: []rbCheckData{
				{Black, 5}, {Black, 10}, {Black, 15}, {Red, 20}, {Black, 25}, {Red, 30},
			},
			remove: 5,
			after: []rbCheckData{
				{Black, 10}, {Red, 15}, {Black, 20}, {Black, 25}, {Red, 30},
			},
			preorder: []uint64{20, 10, 15, 25, 30},
		},
		{
			name: "rm1 right",
			keys: []uint64{25, 30, 15, 20, 10, 5},
			before: []rbCheckData{
				{Red, 5}, {Black, 10}, {Red, 15}, {Black, 20}, {Black, 25}, {Black, 30},
			},
			remove: 30,
			after: []rbCheckData{
				{Red, 5}, {Black, 10}, {Black, 15}, {Red, 20}, {Black, 25},
			},
			preorder: []uint64{15, 10, 5, 25, 20},
		},
		{
			// Only the near nephew 15 is red, rm3 then rm4.
			name: "rm3 left",
			keys: []uint64{10, 5, 20, 15},
			before: []rbCheckData{
				{Black, 5}, {Black, 10}, {Red, 15}, {Black, 20},
			},
			remove: 5,
			after: []rbCheckData{
				{Black, 10}, {Black, 15}, {Black, 20},
			},
			preorder: []uint64{15, 10, 20},
		},
		{
			name: "rm3 right",
			keys: []uint64{25, 30, 15, 20},
			before: []rbCheckData{
				{Black, 15}, {Red, 20}, {Black, 25}, {Black, 30},
			},
			remove: 30,
			after: []rbCheckData{
				{Black, 15}, {Black, 20}, {Black, 25},
			},
			preorder: []uint64{20, 15, 25},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := newTestRBTree()
			for _, key := range tc.keys {
				tree.Put(key, key)
			}
			requireRBTree(tt, tree, tc.before)

			x, err := tree.Delete(tc.remove)
			require.NoError(tt, err)
			require.Equal(tt, tc.remove, x.Key())
			requireRBTree(tt, tree, tc.after)
			require.Equal(tt, tc.preorder, collect2(tree.PreOrder()))
			require.Equal(tt, len(tc.after), tree.liveNodes())
		})
	}
}

func TestRbtree_DeleteMin(t *testing.T) {
	tree := newTestRBTree()
	for _, key := range []uint64{52, 47, 3, 35, 24} {
		tree.Put(key, 1)
	}
	requireRBTree(t, tree, []rbCheckData{
		{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	x, err := tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(3), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(24), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 35}, {Black, 47}, {Black, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(35), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 47}, {Red, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(47), x.Key())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(52), x.Key())
	require.Equal(t, int64(0), tree.Len())

	_, err = tree.DeleteMin()
	require.ErrorIs(t, err, ErrOMapEmpty)
}

// Keys [1,0,5,3,2,7]:
//
//	      [1]
//	      / \
//	   [0]   <3>
//	         / \
//	       [2] [5]
//	              \
//	              <7>
func TestRbtree_ScenarioExhaustivePathWalk(t *testing.T) {
	tree := newTestRBTree()
	keys := []uint64{1, 0, 5, 3, 2, 7}
	vals := []uint64{2, 1, 2, 1, 1, 1}
	for i := range keys {
		tree.Put(keys[i], vals[i])
	}

	require.Equal(t, Black, tree.node(tree.root).color)
	requireRBTree(t, tree, []rbCheckData{
		{Black, 0}, {Black, 1}, {Black, 2}, {Red, 3}, {Black, 5}, {Red, 7},
	})

	// Every root to NIL path, collected one by one.
	type path struct {
		blacks   int
		redAfter bool
	}
	paths := make([]path, 0, 8)
	var walk func(idx uint32, p path, parentRed bool)
	walk = func(idx uint32, p path, parentRed bool) {
		if idx == nilIdx {
			paths = append(paths, p)
			return
		}
		n := tree.node(idx)
		if n.color == Black {
			p.blacks++
		} else if parentRed {
			p.redAfter = true
		}
		walk(n.links[left], p, n.color == Red)
		walk(n.links[right], p, n.color == Red)
	}
	walk(tree.root, path{}, false)
	require.Len(t, paths, 7)
	for _, p := range paths {
		require.False(t, p.redAfter)
		require.Equal(t, paths[0].blacks, p.blacks)
	}

	preorder := make([]uint64, 0, 6)
	for key := range tree.PreOrder() {
		preorder = append(preorder, key)
	}
	require.Equal(t, []uint64{1, 0, 3, 2, 5, 7}, preorder)

	x, err := tree.DeleteMax()
	require.NoError(t, err)
	require.Equal(t, uint64(7), x.Key())
	x, err = tree.Delete(3)
	require.NoError(t, err)
	require.Equal(t, uint64(1), x.Val())
	requireRBTree(t, tree, []rbCheckData{
		{Black, 0}, {Black, 1}, {Red, 2}, {Black, 5},
	})
}

func rbtreeRandomInsertAndRemoveSequentialNumberRunCore(t *testing.T, total uint64) {
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	tree := newTestRBTree()
	for i := uint64(0); i < insertTotal+removeTotal; i++ {
		tree.Put(i, 1)
		require.NoError(t, RedViolationValidate[uint64, uint64](tree))
		require.NoError(t, BlackViolationValidate[uint64, uint64](tree))
	}
	tree.Foreach(func(idx int64, key uint64, val uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		x, err := tree.Delete(i)
		require.NoError(t, err)
		require.Equal(t, i, x.Key())
		require.NoError(t, RedViolationValidate[uint64, uint64](tree))
		require.NoError(t, BlackViolationValidate[uint64, uint64](tree))
	}
	require.Equal(t, int64(insertTotal), tree.Len())
	tree.Foreach(func(idx int64, key uint64, val uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})
}

func TestRbtreeRandomInsertAndRemove_SequentialNumber(t *testing.T) {
	testcases := []struct {
		name  string
		total uint64
	}{
		{name: "1000", total: 1000},
		{name: "4096", total: 4096},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveSequentialNumberRunCore(tt, tc.total)
		})
	}
}

func TestRbtreeRandomInsertAndRemove_ReverseSequentialNumber(t *testing.T) {
	total := int64(10000)
	insertTotal := int64(float64(total) * 0.8)
	removeTotal := int64(float64(total) * 0.2)

	tree := NewRBTree[int64, uint64](WithOMapDesc[int64, uint64]()).(*rbTree[int64, uint64])

	rand := int64(randv2.Uint32() % 1_000)
	for i := insertTotal - 1; i >= 0; i-- {
		tree.Put(i, 1)
		if i%1000 == rand {
			require.NoError(t, RedViolationValidate[int64, uint64](tree))
			require.NoError(t, BlackViolationValidate[int64, uint64](tree))
		}
	}
	tree.Foreach(func(idx int64, key int64, val uint64) bool {
		require.Equal(t, insertTotal-1-idx, key)
		return true
	})

	for i := removeTotal + insertTotal - 1; i >= insertTotal; i-- {
		tree.Put(i, 1)
	}
	tree.Foreach(func(idx int64, key int64, val uint64) bool {
		require.Equal(t, removeTotal+insertTotal-1-idx, key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		x, err := tree.Delete(i)
		require.NoError(t, err)
		require.Equal(t, i, x.Key())
	}
	tree.Foreach(func(idx int64, key int64, val uint64) bool {
		require.Equal(t, insertTotal-1-idx, key)
		return true
	})
	require.NoError(t, Validate[int64, uint64](tree))
}

func TestRbtreeRandomInsertAndRemove_RandomNumber(t *testing.T) {
	type testcase struct {
		name           string
		total          int
		violationCheck bool
	}
	testcases := []testcase{
		{name: "100000", total: 100000},
		{name: "violation check 2000", total: 2000, violationCheck: true},
		{name: "violation check 5000", total: 5000, violationCheck: true},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			elements := lo.Uniq(lo.Times(tc.total, func(int) uint64 {
				return randv2.Uint64()
			}))
			elements = lo.Shuffle(elements)
			removeElements := elements[:len(elements)/5]

			tree := newTestRBTree()
			for i, e := range elements {
				tree.Put(e, uint64(i))
				if tc.violationCheck {
					require.NoError(tt, RedViolationValidate[uint64, uint64](tree))
					require.NoError(tt, BlackViolationValidate[uint64, uint64](tree))
				}
			}
			require.NoError(tt, Validate[uint64, uint64](tree))

			for _, e := range removeElements {
				x, err := tree.Delete(e)
				require.NoError(tt, err)
				require.Equal(tt, e, x.Key())
				if tc.violationCheck {
					require.NoError(tt, RedViolationValidate[uint64, uint64](tree))
					require.NoError(tt, BlackViolationValidate[uint64, uint64](tree))
				}
			}
			require.NoError(tt, Validate[uint64, uint64](tree))

			rest := append([]uint64(nil), elements[len(elements)/5:]...)
			sort.Slice(rest, func(i, j int) bool {
				return rest[i] < rest[j]
			})
			tree.Foreach(func(idx int64, key uint64, val uint64) bool {
				require.Equal(tt, rest[idx], key)
				return true
			})
		})
	}
}

func TestRBTree_Release(t *testing.T) {
	tree := newTestRBTree()
	for i := uint64(0); i < 100_000; i++ {
		tree.Put(i, 1)
	}
	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Equal(t, nilIdx, tree.root)
	require.Equal(t, 0, tree.liveNodes())

	tree.Put(1, 1)
	require.Equal(t, int64(1), tree.Len())
	require.NoError(t, Validate[uint64, uint64](tree))
}

func BenchmarkRBTree_Random(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	tree := NewRBTree[int, []byte]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Put(rngArr[i], testByBytes)
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	tree := NewRBTree[int, []byte]()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Put(i, testByBytes)
	}
}
