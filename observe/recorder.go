package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/pocketmq/timing"
)

// LatencyRecorder builds a timing.Recorder exporting elapsed durations as a
// histogram on the given meter:
//
//	prov, _ := observe.New(ctx, cfg)
//	rec, _ := observe.LatencyRecorder(prov.Meter("pocketmq"))
//	timing.SetRecorder(rec)
func LatencyRecorder(meter metric.Meter) (timing.Recorder, error) {
	hist, err := meter.Float64Histogram("function.duration",
		metric.WithDescription("Elapsed time of tracked function calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return func(name string, elapsed time.Duration) {
		hist.Record(context.Background(), elapsed.Seconds(),
			metric.WithAttributes(attribute.String("function", name)))
	}, nil
}
