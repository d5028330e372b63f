//go:build ignore

// Package main generates a synthetic NDJSON record corpus for benchmarking.
// Usage: go run scripts/generate-records.go -records 10000 -output testdata/records.ndjson
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	numRecords = flag.Int("records", 10000, "Number of records to generate")
	outputPath = flag.String("output", "testdata/records.ndjson", "Output file, - for stdout")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
	corrupt    = flag.Float64("corrupt", 0, "Fraction of lines written as malformed JSON")
)

var (
	subjects   = []string{"invoice", "report", "contract", "proposal", "receipt", "memo", "budget", "forecast"}
	adjectives = []string{"quarterly", "annual", "draft", "final", "revised", "internal", "urgent", "archived"}
	statuses   = []string{"active", "active", "active", "draft", "archived"}
	words      = []string{"revenue", "costs", "margin", "customer", "supplier", "payment", "review", "approval",
		"shipment", "delivery", "schedule", "summary", "analysis", "growth", "risk", "audit"}
)

type record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	out := os.Stdout
	if *outputPath != "-" {
		if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
			os.Exit(1)
		}
		f, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	enc := json.NewEncoder(w)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < *numRecords; i++ {
		if rng.Float64() < *corrupt {
			fmt.Fprintf(w, "{\"id\":\"bad-%d\"\n", i)
			continue
		}
		rec := record{
			ID:        fmt.Sprintf("rec-%06d", i),
			Title:     title(rng, i),
			Status:    statuses[rng.Intn(len(statuses))],
			Body:      body(rng),
			UpdatedAt: base.Add(time.Duration(rng.Intn(365*24)) * time.Hour),
		}
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write record: %v\n", err)
			os.Exit(1)
		}
	}

	if *outputPath != "-" {
		fmt.Fprintf(os.Stderr, "Generated %d records in %s\n", *numRecords, *outputPath)
	}
}

func title(rng *rand.Rand, i int) string {
	adj := adjectives[rng.Intn(len(adjectives))]
	subj := subjects[rng.Intn(len(subjects))]
	return fmt.Sprintf("%s%s %s #%d", strings.ToUpper(adj[:1]), adj[1:], subj, i)
}

func body(rng *rand.Rand) string {
	n := 8 + rng.Intn(24)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[rng.Intn(len(words))]
	}
	return strings.Join(parts, " ")
}
