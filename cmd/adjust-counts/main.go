package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dd0wney/cluso-ngram/pkg/config"
	"github.com/dd0wney/cluso-ngram/pkg/counts"
	"github.com/dd0wney/cluso-ngram/pkg/logging"
	"github.com/dd0wney/cluso-ngram/pkg/metrics"
	"github.com/dd0wney/cluso-ngram/pkg/ngram"
	"github.com/dd0wney/cluso-ngram/pkg/stream"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	order := flag.Int("order", 0, "override the model order")
	nDraws := flag.Int("records", 50000, "synthetic corpus draws to generate")
	vocab := flag.Int("vocab", 64, "synthetic vocabulary size")
	seed := flag.Int64("seed", 42, "corpus generator seed")
	useSpill := flag.Bool("spill", false, "route the input through a compressed spill file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *order > 0 {
		cfg.Order = *order
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	fmt.Printf("Generating %d draws of order-%d records over %d words...\n",
		*nDraws, cfg.Order, *vocab)
	records := synthCorpus(cfg.Order, *nDraws, *vocab, *seed)
	fmt.Printf("  %d distinct sorted records\n", len(records))

	in, err := stream.NewChain(cfg.Order, cfg.BlockRecords, cfg.BufferBlocks)
	if err != nil {
		log.Fatalf("Failed to create input chain: %v", err)
	}

	if *useSpill {
		spillPath := filepath.Join(cfg.SpillDir, "adjust-input.spill")
		fmt.Printf("Spilling input through %s...\n", spillPath)
		staging, err := stream.NewChain(cfg.Order, cfg.BlockRecords, cfg.BufferBlocks)
		if err != nil {
			log.Fatalf("Failed to create staging chain: %v", err)
		}
		go feed(staging, records)
		stats, err := stream.DrainToSpill(staging, spillPath)
		if err != nil {
			log.Fatalf("Failed to spill: %v", err)
		}
		fmt.Printf("  %d blocks, %d records, %.1f%% of raw size\n",
			stats.Blocks, stats.Records, 100*stats.CompressionRatio())
		metrics.DefaultRegistry().RecordSpill(stats.BytesRaw, stats.BytesCompressed)
		go func() {
			if err := stream.FillFromSpill(in, spillPath); err != nil {
				log.Fatalf("Failed to read spill: %v", err)
			}
		}()
		defer os.Remove(spillPath)
	} else {
		go feed(in, records)
	}

	outs := make([]*stream.Chain, cfg.Order-1)
	for j := range outs {
		outs[j], err = stream.NewChain(j+1, cfg.BlockRecords, cfg.BufferBlocks)
		if err != nil {
			log.Fatalf("Failed to create output chain: %v", err)
		}
	}

	// Drain each lower order concurrently, keeping only tallies; a real
	// pipeline would hand these chains to the next build stage.
	tallies := make([]uint64, cfg.Order-1)
	var wg sync.WaitGroup
	for j, out := range outs {
		wg.Add(1)
		go func(j int, out *stream.Chain) {
			defer wg.Done()
			r := out.NewReader()
			for r.Next() {
				tallies[j] += r.Count()
			}
		}(j, out)
	}

	fmt.Println("\nAdjusting counts...")
	start := time.Now()
	res, err := counts.AdjustCounts(in, outs, counts.Options{
		Logger:  logger,
		Metrics: metrics.DefaultRegistry(),
	})
	if err != nil {
		log.Fatalf("Adjust failed: %v", err)
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("  %d records in %v (%d filtered at the boundary)\n\n",
		res.RecordsRead, elapsed.Round(time.Millisecond), res.RecordsCollapsed)

	fmt.Println("Adjusted totals:")
	for i, total := range res.Counts {
		if i < cfg.Order-1 {
			fmt.Printf("  order %d: %8d distinct (%d mass)\n", i+1, total, tallies[i])
		} else {
			fmt.Printf("  order %d: %8d distinct\n", i+1, total)
		}
	}

	fmt.Println("\nKneser-Ney discounts:")
	for i, d := range res.Discounts {
		fmt.Printf("  order %d: D1=%.4f D2=%.4f D3+=%.4f\n",
			i+1, d.Amount[1], d.Amount[2], d.Amount[3])
	}
}

func feed(c *stream.Chain, records []ngram.Record) {
	w := c.NewWriter()
	for _, r := range records {
		w.Append(r.Words, r.Count)
	}
	w.Poison()
}

// synthCorpus draws Zipf-shaped n-grams, aggregates duplicates, and
// sorts them for suffix adjacency. Word IDs start above the reserved
// vocabulary entries; a fifth of the records are sentence-initial.
func synthCorpus(order, draws, vocab int, seed int64) []ngram.Record {
	rng := rand.New(rand.NewSource(seed))
	zipf := rand.NewZipf(rng, 1.3, 1.0, uint64(vocab-1))

	type key struct {
		words [8]ngram.WordID
		n     int
	}
	byKey := make(map[key]uint64)
	for i := 0; i < draws; i++ {
		var k key
		k.n = order
		for pos := 0; pos < order; pos++ {
			k.words[pos] = ngram.WordID(3 + zipf.Uint64())
		}
		if order > 1 && rng.Intn(5) == 0 {
			k.words[0] = ngram.BOS
		}
		byKey[k]++
	}

	records := make([]ngram.Record, 0, len(byKey))
	for k, count := range byKey {
		words := make([]ngram.WordID, k.n)
		copy(words, k.words[:k.n])
		records = append(records, ngram.Record{Words: words, Count: count})
	}
	sort.Slice(records, func(i, j int) bool {
		return ngram.SuffixLess(records[i].Words, records[j].Words)
	})
	return records
}
