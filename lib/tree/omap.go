package tree

import (
	"slices"

	"go.uber.org/zap"

	"github.com/benz9527/xomap/lib/infra"
)

type omapOptions[K infra.OrderedKey, V any] struct {
	policy       RebalancePolicy
	kcmp         infra.OrderedKeyComparator[K]
	logger       *zap.Logger
	isDebugCheck bool
	statsName    string
	capacity     int
}

// omapCore carries the parts shared by both rebalancing policies.
type omapCore[K infra.OrderedKey, V any] struct {
	kcmp         infra.OrderedKeyComparator[K]
	logger       *zap.Logger
	stats        *omapStats
	isDebugCheck bool
}

// debugAssert validates the whole tree after a mutation. It is only
// enabled by WithOMapDebugCheck.
func (core *omapCore[K, V]) debugAssert(m OrderedMap[K, V], op string) {
	if !core.isDebugCheck {
		return
	}
	if err := Validate[K, V](m); err != nil {
		core.logger.Error("[omap] invariant violation after mutation",
			zap.String("op", op),
			zap.Stringer("policy", m.Policy()),
			zap.Int64("len", m.Len()),
			zap.Error(err),
		)
		panic( /* debug assertion */ err)
	}
}

type OMapOption[K infra.OrderedKey, V any] func(*omapOptions[K, V])

func WithOMapRebalancePolicy[K infra.OrderedKey, V any](policy RebalancePolicy) OMapOption[K, V] {
	return func(opts *omapOptions[K, V]) {
		opts.policy = policy
	}
}

func WithOMapDesc[K infra.OrderedKey, V any]() OMapOption[K, V] {
	return func(opts *omapOptions[K, V]) {
		opts.kcmp = infra.DescOrderedKeyComparator[K]()
	}
}

func WithOMapComparator[K infra.OrderedKey, V any](cmp infra.OrderedKeyComparator[K]) OMapOption[K, V] {
	return func(opts *omapOptions[K, V]) {
		if cmp != nil {
			opts.kcmp = cmp
		}
	}
}

// WithOMapDebugCheck validates every invariant after each mutation.
// A violation is logged by the logger and then panics.
// It costs O(n) per mutation, do not enable it in production.
func WithOMapDebugCheck[K infra.OrderedKey, V any](logger *zap.Logger) OMapOption[K, V] {
	return func(opts *omapOptions[K, V]) {
		opts.isDebugCheck = true
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithOMapStats records rotations, fix-up steps and the length by the
// global otel meter provider.
func WithOMapStats[K infra.OrderedKey, V any](name string) OMapOption[K, V] {
	return func(opts *omapOptions[K, V]) {
		opts.statsName = name
		if opts.statsName == "" {
			opts.statsName = "default"
		}
	}
}

func WithOMapCapacity[K infra.OrderedKey, V any](capacity int) OMapOption[K, V] {
	return func(opts *omapOptions[K, V]) {
		if capacity > 0 {
			opts.capacity = capacity
		}
	}
}

func NewOrderedMap[K infra.OrderedKey, V any](opts ...OMapOption[K, V]) OrderedMap[K, V] {
	o := &omapOptions[K, V]{
		policy:   RedBlack,
		kcmp:     infra.AscOrderedKeyComparator[K](),
		logger:   zap.NewNop(),
		capacity: 64,
	}
	for _, opt := range opts {
		opt(o)
	}

	core := omapCore[K, V]{
		kcmp:         o.kcmp,
		logger:       o.logger,
		isDebugCheck: o.isDebugCheck,
	}
	if o.statsName != "" {
		core.stats = newOMapStats(o.statsName)
	}

	switch o.policy {
	case AVL:
		return &avlTree[K, V]{
			omapCore: core,
			nodes:    newArena[avlNode[K, V]](o.capacity),
		}
	default:
	}
	return &rbTree[K, V]{
		omapCore: core,
		nodes:    newArena[rbNode[K, V]](o.capacity),
	}
}

func NewRBTree[K infra.OrderedKey, V any](opts ...OMapOption[K, V]) OrderedMap[K, V] {
	return NewOrderedMap[K, V](append(slices.Clone(opts), WithOMapRebalancePolicy[K, V](RedBlack))...)
}

func NewAVLTree[K infra.OrderedKey, V any](opts ...OMapOption[K, V]) OrderedMap[K, V] {
	return NewOrderedMap[K, V](append(slices.Clone(opts), WithOMapRebalancePolicy[K, V](AVL))...)
}
