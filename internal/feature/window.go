package feature

import (
	"math"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
)

// trailingBuffer holds the most recent records for one region, bounded by the
// largest rolling window. push keeps insertion order; mean/std read the tail.
type trailingBuffer struct {
	cap     int
	records []domain.TelemetryRecord
}

func newTrailingBuffer(capacity int) *trailingBuffer {
	return &trailingBuffer{cap: capacity, records: make([]domain.TelemetryRecord, 0, capacity)}
}

func (b *trailingBuffer) push(rec domain.TelemetryRecord) {
	if len(b.records) == b.cap {
		copy(b.records, b.records[1:])
		b.records = b.records[:b.cap-1]
	}
	b.records = append(b.records, rec)
}

// tail collects the reported values of a channel over the last n records
// (including the current one).
func (b *trailingBuffer) tail(get func(domain.TelemetryRecord) *float64, n int) []float64 {
	start := len(b.records) - n
	if start < 0 {
		start = 0
	}
	vals := make([]float64, 0, n)
	for _, rec := range b.records[start:] {
		if v := get(rec); v != nil {
			vals = append(vals, *v)
		}
	}
	return vals
}

// mean returns the trailing mean over the last n records, using however many
// reported samples are available. ok is false when no sample was reported.
func (b *trailingBuffer) mean(get func(domain.TelemetryRecord) *float64, n int) (float64, bool) {
	vals := b.tail(get, n)
	if len(vals) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// std returns the trailing sample standard deviation over the last n records.
// With fewer than 2 samples the deviation is 0; ok is false only when no
// sample was reported at all.
func (b *trailingBuffer) std(get func(domain.TelemetryRecord) *float64, n int) (float64, bool) {
	vals := b.tail(get, n)
	if len(vals) == 0 {
		return 0, false
	}
	if len(vals) < 2 {
		return 0, true
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1)), true
}

// channelStats holds the whole-batch mean and sample standard deviation for
// one channel.
type channelStats struct {
	mean float64
	std  float64
}

// batchStats are the batch-wide aggregates behind the anomaly z-scores and
// the rainfall intensity index.
type batchStats struct {
	channels    map[string]channelStats
	maxRainfall float64
}

func computeBatchStats(records []domain.TelemetryRecord) batchStats {
	stats := batchStats{channels: make(map[string]channelStats, len(anomalyChannels))}

	for _, ch := range anomalyChannels {
		var vals []float64
		for _, rec := range records {
			if v := ch.get(rec); v != nil {
				vals = append(vals, *v)
			}
		}
		stats.channels[ch.name] = summarize(vals)
	}

	for _, rec := range records {
		if v, ok := domain.Reading(rec.RainfallMM); ok && v > stats.maxRainfall {
			stats.maxRainfall = v
		}
	}
	return stats
}

func summarize(vals []float64) channelStats {
	if len(vals) == 0 {
		return channelStats{}
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	if len(vals) < 2 {
		return channelStats{mean: mean}
	}
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return channelStats{mean: mean, std: math.Sqrt(ss / float64(len(vals)-1))}
}
