package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	OMapStatsName = "xomap/omap"
)

const (
	fixupOpPut    = "put"
	fixupOpDelete = "delete"
)

var (
	rotationLeftAttrs  = metric.WithAttributeSet(attribute.NewSet(attribute.String("omap.rotation.dir", left.String())))
	rotationRightAttrs = metric.WithAttributeSet(attribute.NewSet(attribute.String("omap.rotation.dir", right.String())))
	fixupPutAttrs      = metric.WithAttributeSet(attribute.NewSet(attribute.String("omap.fixup.op", fixupOpPut)))
	fixupDeleteAttrs   = metric.WithAttributeSet(attribute.NewSet(attribute.String("omap.fixup.op", fixupOpDelete)))
)

type omapStats struct {
	rotations metric.Int64Counter
	fixups    metric.Int64Counter
	length    metric.Int64UpDownCounter
}

func (stats *omapStats) RecordRotation(dir direction) {
	if stats == nil {
		return
	}
	if dir == left {
		stats.rotations.Add(context.Background(), 1, rotationLeftAttrs)
		return
	}
	stats.rotations.Add(context.Background(), 1, rotationRightAttrs)
}

// RecordFixups counts the steps one fix-up walk took before the
// rebalancing invariant held again.
func (stats *omapStats) RecordFixups(op string, steps int64) {
	if stats == nil || steps <= 0 {
		return
	}
	switch op {
	case fixupOpPut:
		stats.fixups.Add(context.Background(), steps, fixupPutAttrs)
	case fixupOpDelete:
		stats.fixups.Add(context.Background(), steps, fixupDeleteAttrs)
	default:
	}
}

func (stats *omapStats) RecordLen(delta int64) {
	if stats == nil {
		return
	}
	stats.length.Add(context.Background(), delta)
}

func newOMapStats(name string) *omapStats {
	meterName := fmt.Sprintf("%s/%s", OMapStatsName, name)
	return &omapStats{
		rotations: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"omap.rotations",
				metric.WithDescription("The number of rotations applied to restore the balance."),
			),
		),
		fixups: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"omap.fixups",
				metric.WithDescription("The number of fix-up steps walked after mutations."),
			),
		),
		length: lo.Must[metric.Int64UpDownCounter](otel.Meter(meterName).
			Int64UpDownCounter(
				"omap.len",
				metric.WithDescription("The number of key-value pairs in the ordered map."),
			),
		),
	}
}
