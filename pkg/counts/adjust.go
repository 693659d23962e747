// Package counts derives the adjusted (type/continuation) counts and
// modified Kneser-Ney discount parameters for every n-gram order from a
// single pass over a suffix-sorted top-order record stream.
package counts

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-ngram/pkg/logging"
	"github.com/dd0wney/cluso-ngram/pkg/metrics"
	"github.com/dd0wney/cluso-ngram/pkg/ngram"
	"github.com/dd0wney/cluso-ngram/pkg/stream"
)

// Options configures one engine run.
type Options struct {
	// Logger receives run-level progress; nil uses the default logger.
	Logger logging.Logger
	// Metrics receives run counters; nil uses the default registry.
	Metrics *metrics.Registry
	// RunID tags log lines for this run; empty generates one.
	RunID string
}

// Result is what one engine run returns to the caller.
type Result struct {
	// Counts holds the total number of distinct entries per order,
	// index 0 = unigrams.
	Counts []uint64
	// Discounts holds the Kneser-Ney discount vector per order.
	Discounts []Discount
	// RecordsRead is how many top-order records survived the boundary
	// filter and were processed.
	RecordsRead uint64
	// RecordsCollapsed is how many records the boundary filter removed.
	RecordsCollapsed uint64
}

// frame is the in-progress aggregation state for one lower-order suffix:
// the word sequence plus the running adjusted count. frames[j] always
// holds a suffix of length j+1.
type frame struct {
	words []ngram.WordID
	count uint64
}

// AdjustCounts walks the top-order chain once, writing every completed
// lower-order record to its output chain, and returns the per-order
// totals and discount coefficients.
//
// The input must be sorted for suffix adjacency: records sharing a
// suffix must be contiguous. The engine assumes this and does not
// verify it; an unsorted input silently produces wrong counts.
//
// outs must hold exactly order-1 chains, outs[j] carrying records of
// order j+1. Every output chain is terminated exactly once, even when
// the input is empty.
func AdjustCounts(in *stream.Chain, outs []*stream.Chain, opts Options) (Result, error) {
	order := in.Order()
	if len(outs) != order-1 {
		return Result{}, stageErr("adjust", order, ErrOutputCount)
	}
	for j, out := range outs {
		if out.Order() != j+1 {
			return Result{}, stageErr("adjust", out.Order(), ErrOrderMismatch)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With(logging.Stage("adjust"), logging.RunID(runID))

	start := time.Now()
	stats := NewStatCollector(order)

	if order == 1 {
		// Only unigrams. Just collect raw-count statistics.
		res := runUnigram(in, stats)
		reg.RecordAdjustRun(res.RecordsRead, 0, time.Since(start))
		logger.Info("adjusted counts complete",
			logging.Order(order),
			logging.Records(res.RecordsRead),
			logging.Latency(time.Since(start)))
		return res, nil
	}

	writers := make([]*stream.Writer, order-1)
	for j, out := range outs {
		writers[j] = out.NewWriter()
	}
	flushed := make([]uint64, order-1)

	var res Result
	full := newCollapseCursor(in)

	if full.Next() {
		frames := make([]frame, order-1)
		for j := range frames {
			frames[j].words = make([]ngram.WordID, j+1)
		}

		emit := func(j int) {
			writers[j].Append(frames[j].words, frames[j].count)
			stats.Add(j, frames[j].count)
			flushed[j]++
		}

		// Seed the unigram frame from the first record's last word; its
		// count starts at zero and the first iteration increments it.
		frames[0].words[0] = full.Words()[order-1]
		frames[0].count = 0
		deepest := 0

		for ok := true; ok; ok = full.Next() {
			words := full.Words()
			res.RecordsRead++

			// Trailing words shared with the deepest open frame.
			same := ngram.CommonSuffix(words, frames[deepest].words)

			// The frame of length same gains one distinct extension.
			if same > 0 {
				frames[same-1].count++
			}

			// Flush every deeper frame; its suffix group just ended.
			for ; deepest >= same; deepest-- {
				emit(deepest)
			}

			// Open fresh frames from the mismatch point toward the
			// front, stopping at a sentence-start marker.
			pos := order - 1 - same
			for ; pos > 0 && words[pos] != ngram.BOS; pos-- {
				deepest++
				copy(frames[deepest].words, words[pos:])
				frames[deepest].count = 1
			}

			if pos > 0 {
				// Sentence-start marker strictly inside the record: the
				// suffix from the marker on gets the raw count verbatim,
				// because no further left context exists to type-count.
				deepest++
				copy(frames[deepest].words, words[pos:])
				frames[deepest].count = full.Count()
			} else {
				stats.AddFull(full.Count())
			}
		}

		// Input exhausted: flush everything still open.
		for j := 0; j <= deepest; j++ {
			emit(j)
		}
	}

	for j := range writers {
		writers[j].Poison()
	}
	for j, n := range flushed {
		reg.RecordFramesFlushed(j+1, n)
	}

	res.RecordsCollapsed = full.Removed()
	res.Counts, res.Discounts = stats.Complete()

	elapsed := time.Since(start)
	reg.RecordAdjustRun(res.RecordsRead, res.RecordsCollapsed, elapsed)
	logger.Info("adjusted counts complete",
		logging.Order(order),
		logging.Records(res.RecordsRead),
		logging.Uint64("collapsed", res.RecordsCollapsed),
		logging.Latency(elapsed))
	return res, nil
}

// runUnigram is the order-1 shortcut: no frames, no boundary filter,
// raw counts go straight to the collector.
func runUnigram(in *stream.Chain, stats *StatCollector) Result {
	var res Result
	r := in.NewReader()
	for r.Next() {
		stats.AddFull(r.Count())
		res.RecordsRead++
	}
	res.Counts, res.Discounts = stats.Complete()
	return res
}
