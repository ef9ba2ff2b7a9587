package tree

import (
	"errors"
	"iter"

	"github.com/benz9527/xomap/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

type RebalancePolicy uint8

const (
	RedBlack RebalancePolicy = iota
	AVL
)

func (p RebalancePolicy) String() string {
	switch p {
	case RedBlack:
		return "red-black"
	case AVL:
		return "avl"
	default:
	}
	return "unknown"
}

var (
	ErrOMapKeyNotFound        = errors.New("[omap] key not found")
	ErrOMapEmpty              = errors.New("[omap] there is no element")
	ErrOMapInvariantViolation = errors.New("[omap] invariant violation")
)

type Element[K infra.OrderedKey, V any] interface {
	Key() K
	Val() V
}

// OrderedMap is a self-balancing binary search tree keyed by K.
// An instance is not safe for concurrent use, see NewSyncOrderedMap.
type OrderedMap[K infra.OrderedKey, V any] interface {
	Len() int64
	IsEmpty() bool
	Policy() RebalancePolicy
	// Put overwrites the value in place if the key exists.
	Put(key K, val V)
	Get(key K) (V, error)
	Contains(key K) bool
	// Delete fails with ErrOMapKeyNotFound and leaves the map untouched
	// if the key is absent.
	Delete(key K) (Element[K, V], error)
	DeleteMin() (Element[K, V], error)
	DeleteMax() (Element[K, V], error)
	Min() (K, error)
	Max() (K, error)
	// All yields the pairs in comparator order. The sequence is restartable.
	All() iter.Seq2[K, V]
	Backward() iter.Seq2[K, V]
	PreOrder() iter.Seq2[K, V]
	PostOrder() iter.Seq2[K, V]
	Foreach(action func(idx int64, key K, val V) bool)
	Release()
}

type element[K infra.OrderedKey, V any] struct {
	key K
	val V
}

func (e *element[K, V]) Key() K {
	return e.key
}

func (e *element[K, V]) Val() V {
	return e.val
}
