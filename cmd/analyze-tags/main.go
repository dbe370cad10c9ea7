package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/nutrition"
	"github.com/rewired-gh/nutriframe/internal/source"
	"github.com/samber/lo"
)

var (
	sourcePath = flag.String("source", "./testdata/swiss-food.csv", "CSV path or URL to profile")
	timeout    = flag.Duration("timeout", 30*time.Second, "HTTP timeout for remote sources")
)

func main() {
	flag.Parse()

	fmt.Println("=" + strings.Repeat("=", 79))
	fmt.Println("NUTRIFRAME TAG ANALYSIS - Category and regime coverage")
	fmt.Println("=" + strings.Repeat("=", 79))
	fmt.Println()

	// Step 1: Load the dataset
	fmt.Printf("STEP 1: Loading %s...\n", *sourcePath)
	fmt.Println(strings.Repeat("-", 80))
	f := load(*sourcePath)
	tagged, err := nutrition.DeriveTags(f)
	if err != nil {
		log.Fatalf("Failed to derive tags: %v", err)
	}

	// Step 2: Top-level category distribution
	fmt.Println("\nSTEP 2: Analyzing category distribution...")
	fmt.Println(strings.Repeat("-", 80))
	analyzeCategoryDistribution(tagged)

	// Step 3: Tag coverage
	fmt.Println("\nSTEP 3: Analyzing tag coverage...")
	fmt.Println(strings.Repeat("-", 80))
	analyzeTagCoverage(tagged)

	// Step 4: Regime coverage
	fmt.Println("\nSTEP 4: Analyzing regime coverage...")
	fmt.Println(strings.Repeat("-", 80))
	analyzeRegimeCoverage(tagged)

	// Step 5: Untagged categories
	fmt.Println("\nSTEP 5: Listing categories without tags...")
	fmt.Println(strings.Repeat("-", 80))
	listUntagged(tagged)

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("ANALYSIS COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
}

func load(location string) *frame.Frame {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rc, err := source.NewClient(*timeout, 3).Open(ctx, location)
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}
	defer rc.Close()

	f, err := frame.NewGota().ReadCSV(rc)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	rows, cols := f.Shape()
	fmt.Printf("Loaded %d rows × %d columns\n", rows, cols)
	return f
}

func analyzeCategoryDistribution(f *frame.Frame) {
	var tops []string
	if err := f.Rows(func(r frame.Row) {
		tops = append(tops, nutrition.TopLevelCategory(r.Str(nutrition.ColCategory)))
	}); err != nil {
		log.Fatalf("Failed to read categories: %v", err)
	}
	counts := lo.CountValues(tops)

	names := lo.Keys(counts)
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Printf("\nFound %d top-level categories\n\n", len(names))
	fmt.Printf("%-40s %8s %8s\n", "Category", "Rows", "Share")
	fmt.Println(strings.Repeat("-", 58))
	for _, name := range names {
		fmt.Printf("%-40s %8d %7.1f%%\n", name, counts[name], 100*float64(counts[name])/float64(len(tops)))
	}
}

func analyzeTagCoverage(f *frame.Frame) {
	counts := make(map[string]int, len(nutrition.Vocabulary))
	if err := f.Rows(func(r frame.Row) {
		for _, tag := range nutrition.DecodeTags(r.Str(nutrition.ColTags)) {
			counts[tag]++
		}
	}); err != nil {
		log.Fatalf("Failed to read tags: %v", err)
	}

	fmt.Printf("\n%-15s %8s\n", "Tag", "Rows")
	fmt.Println(strings.Repeat("-", 24))
	for _, tag := range nutrition.Vocabulary {
		marker := ""
		if counts[tag] == 0 {
			marker = "  (unused)"
		}
		fmt.Printf("%-15s %8d%s\n", tag, counts[tag], marker)
	}
}

func analyzeRegimeCoverage(f *frame.Frame) {
	fmt.Printf("\n%-15s %8s %8s\n", "Regime", "Rows", "Share")
	fmt.Println(strings.Repeat("-", 33))
	for _, r := range nutrition.Regimes() {
		mask, err := r.Mask(f)
		if err != nil {
			log.Fatalf("Failed to evaluate regime %s: %v", r.Name, err)
		}
		n := lo.CountBy(mask, func(b bool) bool { return b })
		share := 0.0
		if len(mask) > 0 {
			share = 100 * float64(n) / float64(len(mask))
		}
		fmt.Printf("%-15s %8d %7.1f%%\n", r.Name, n, share)
	}
}

func listUntagged(f *frame.Frame) {
	untagged, err := f.Filter(func(r frame.Row) bool { return r.Str(nutrition.ColTags) == "" })
	if err != nil {
		log.Fatalf("Failed to filter untagged rows: %v", err)
	}
	cats, err := untagged.Unique(nutrition.ColCategory)
	if err != nil {
		log.Fatalf("Failed to list categories: %v", err)
	}
	c, err := cats.Column(nutrition.ColCategory)
	if err != nil {
		log.Fatalf("Failed to list categories: %v", err)
	}
	if c.Len() == 0 {
		fmt.Println("Every category carries at least one tag")
		return
	}
	fmt.Printf("%d rows in %d categories carry no tag:\n", untagged.Height(), c.Len())
	for _, name := range c.Strings() {
		fmt.Printf("  • %s\n", name)
	}
}
