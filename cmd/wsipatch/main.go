package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"wsipatch/pkg/config"
	"wsipatch/pkg/extract"
	"wsipatch/pkg/masking"
	"wsipatch/pkg/tiling"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "WSI file, or directory of WSIs, to extract from")
	output := flag.String("output", "patches", "Directory to save the extracted patches in")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	patchSize := flag.Int("patch-size", 0, "Side length of the square patches (overrides config)")
	stride := flag.Int("stride", 0, "Sliding-window stride (overrides config)")
	method := flag.String("mask-method", "", "Tissue-masking method (overrides config)")
	coverage := flag.Float64("coverage", -1, "Minimum tissue fraction per patch (overrides config)")
	overviewSize := flag.Int("overview-size", 0, "Longest side of the masking overview (overrides config)")
	edgePolicy := flag.String("edge-policy", "", "Boundary-tile policy: clip or drop (overrides config)")
	elementSize := flag.Int("element-size", 0, "Structuring-element side in overview pixels (overrides config)")
	minObjectSize := flag.Int("min-object-size", 0, "Smallest mask object kept, in overview pixels (overrides config)")
	workers := flag.Int("workers", 0, "Number of parallel patch writers (overrides config)")
	invert := flag.Bool("invert-foreground", false, "Treat the lighter cluster as tissue (kmeans)")
	zipPatches := flag.Bool("zip-patches", false, "Archive each slide's patch directory into a zip")
	noPatches := flag.Bool("no-patches", false, "Only write the overview and tissue-mask images")
	fileTypes := flag.String("file-types", "", "Comma-separated slide extensions accepted in directories")
	flag.Parse()

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration, then let explicit flags override it
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *patchSize > 0 {
		cfg.Extraction.PatchSize = *patchSize
	}
	if *stride > 0 {
		cfg.Extraction.Stride = *stride
	}
	if *method != "" {
		cfg.Masking.Method = *method
	}
	if *coverage >= 0 {
		cfg.Extraction.CoverageThreshold = *coverage
	}
	if *overviewSize > 0 {
		cfg.Overview.TargetSize = *overviewSize
	}
	if *edgePolicy != "" {
		cfg.Extraction.EdgePolicy = *edgePolicy
	}
	if *elementSize > 0 {
		cfg.Masking.ElementSize = *elementSize
	}
	if *minObjectSize > 0 {
		cfg.Masking.MinObjectSize = *minObjectSize
	}
	if *workers > 0 {
		cfg.Extraction.Workers = *workers
	}
	if *invert {
		cfg.Masking.InvertForeground = true
	}
	if *zipPatches {
		cfg.Output.ZipPatches = true
	}
	if *fileTypes != "" {
		cfg.Output.FileTypes = splitExtensions(*fileTypes)
	}

	policy, err := tiling.ParseEdgePolicy(cfg.Extraction.EdgePolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if _, err := masking.Lookup(cfg.Masking.Method); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	slides, err := extract.ListSlides(*input, cfg.Output.FileTypes)
	if err != nil {
		log.Fatalf("Failed to list slides: %v", err)
	}

	params := extract.Params{
		OutputDir:          *output,
		Method:             cfg.Masking.Method,
		PatchWidth:         cfg.Extraction.PatchSize,
		PatchHeight:        cfg.Extraction.PatchSize,
		StrideX:            cfg.Extraction.Stride,
		StrideY:            cfg.Extraction.Stride,
		CoverageThreshold:  cfg.Extraction.CoverageThreshold,
		OverviewTargetSize: cfg.Overview.TargetSize,
		EdgePolicy:         policy,
		MinEdgeFraction:    cfg.Extraction.MinEdgeFraction,
		Masking: masking.Options{
			ElementSize:      cfg.Masking.ElementSize,
			MinObjectSize:    cfg.Masking.MinObjectSize,
			Clusters:         cfg.Masking.Clusters,
			InvertForeground: cfg.Masking.InvertForeground,
		},
		Workers:       cfg.Extraction.Workers,
		SaveOverviews: cfg.Overview.SaveImages,
		NoPatches:     *noPatches,
		ZipPatches:    cfg.Output.ZipPatches,
	}

	fmt.Printf("Extracting patches from %d slide(s) with method %q...\n",
		len(slides), cfg.Masking.Method)

	startTime := time.Now()
	results, aggregate := extract.ExtractBatch(slides, params)
	elapsed := time.Since(startTime)

	// Per-slide summary
	failures := 0
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "FAILED"
			failures++
		}
		fmt.Printf("  %-50s %s (considered=%d accepted=%d written=%d failed=%d)\n",
			res.Path, status,
			res.Stats.Considered, res.Stats.Accepted, res.Stats.Written, res.Stats.Failed)
	}

	fmt.Printf("\nProcessed %d slide(s) in %.2f seconds\n", len(results), elapsed.Seconds())
	fmt.Printf("Totals: considered=%d accepted=%d written=%d failed=%d\n",
		aggregate.Considered, aggregate.Accepted, aggregate.Written, aggregate.Failed)

	if failures > 0 {
		fmt.Printf("%d slide(s) failed\n", failures)
		os.Exit(1)
	}
}

// splitExtensions parses a comma-separated extension list, normalizing
// entries to a leading dot.
func splitExtensions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
