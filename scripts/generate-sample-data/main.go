package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
)

func main() {
	var (
		outPath   = flag.String("out", "sample.csv", "Output CSV path")
		records   = flag.Int("records", 10000, "Total number of records to generate")
		fraudRate = flag.Float64("fraud-rate", 0.02, "Fraction of records labeled fraud")
		features  = flag.Int("features", 28, "Number of feature columns")
		seed      = flag.Int64("seed", 0, "Random seed (0 = nondeterministic)")
	)
	flag.Parse()

	if *records <= 0 || *features <= 0 {
		log.Fatalf("records and features must be positive")
	}
	if *fraudRate <= 0 || *fraudRate >= 1 {
		log.Fatalf("fraud-rate must be in (0, 1), got %f", *fraudRate)
	}

	fmt.Printf("Generating sample fraud dataset...\n")
	fmt.Printf("  Records: %d\n", *records)
	fmt.Printf("  Fraud rate: %.2f%%\n", *fraudRate*100)
	fmt.Printf("  Features: %d\n", *features)
	fmt.Printf("  Output: %s\n", *outPath)

	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	file, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := make([]string, 0, *features+2)
	header = append(header, "id")
	for i := 1; i <= *features; i++ {
		header = append(header, fmt.Sprintf("v%d", i))
	}
	header = append(header, "class")
	if err := w.Write(header); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}

	// Legitimate traffic clusters around zero; fraud sits on a shifted,
	// noisier distribution so a linear model can find it.
	fraudShift := make([]float64, *features)
	for i := range fraudShift {
		fraudShift[i] = rng.NormFloat64() * 2
	}

	fraudCount := 0
	for i := 0; i < *records; i++ {
		isFraud := rng.Float64() < *fraudRate
		row := make([]string, 0, *features+2)
		row = append(row, strconv.Itoa(i+1))
		for j := 0; j < *features; j++ {
			v := rng.NormFloat64()
			if isFraud {
				v = fraudShift[j] + rng.NormFloat64()*1.5
			}
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		label := "0"
		if isFraud {
			label = "1"
			fraudCount++
		}
		row = append(row, label)

		if err := w.Write(row); err != nil {
			log.Fatalf("Failed to write record %d: %v", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}

	fmt.Printf("✓ Wrote %d records (%d fraud, %d legitimate) to %s\n",
		*records, fraudCount, *records-fraudCount, *outPath)
}
