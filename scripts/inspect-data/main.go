package main

import (
	"flag"
	"fmt"
	"log"

	"fraudpipe/internal/dataset"
	"fraudpipe/internal/storage"
)

func main() {
	var (
		dataPath  = flag.String("data", "", "Path to a labeled CSV dataset to inspect")
		storePath = flag.String("store", "", "Path to a run-store directory to inspect")
		rounds    = flag.Int("rounds", 10, "Number of recent rounds to print")
	)
	flag.Parse()

	if *dataPath == "" && *storePath == "" {
		log.Fatalf("nothing to inspect: pass -data and/or -store")
	}

	if *dataPath != "" {
		inspectDataset(*dataPath)
	}
	if *storePath != "" {
		inspectStore(*storePath, *rounds)
	}
}

func inspectDataset(path string) {
	fmt.Printf("Inspecting dataset: %s\n", path)

	ds, err := dataset.ReadCSV(path)
	if err != nil {
		log.Fatalf("Failed to read dataset: %v", err)
	}

	fraud, legit := ds.Partition()
	fmt.Printf("  Records: %d\n", len(ds))
	fmt.Printf("  Features per record: %d\n", ds.FeatureDim())
	fmt.Printf("  Fraud: %d (%.3f%%)\n", len(fraud), 100*float64(len(fraud))/float64(len(ds)))
	fmt.Printf("  Legitimate: %d\n", len(legit))

	minority, majority := ds.MinorityMajority()
	if len(minority) > 0 {
		fmt.Printf("  Imbalance ratio: %.1f:1\n", float64(len(majority))/float64(len(minority)))
	}
}

func inspectStore(path string, limit int) {
	fmt.Printf("\nInspecting run store: %s\n", path)

	store, err := storage.New(path)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer store.Close()

	cp, err := store.LatestCheckpoint()
	if err != nil {
		log.Fatalf("Failed to read checkpoints: %v", err)
	}
	if cp == nil {
		fmt.Println("  No checkpoints saved")
	} else {
		fmt.Printf("  Latest checkpoint: epoch %d, f_beta %.4f, saved %v\n",
			cp.Epoch, cp.FBeta, cp.SavedAt)
	}

	history, err := store.Rounds(1, 1<<30)
	if err != nil {
		log.Fatalf("Failed to read round history: %v", err)
	}
	fmt.Printf("  Rounds recorded: %d\n", len(history))

	start := len(history) - limit
	if start < 0 {
		start = 0
	}
	for _, r := range history[start:] {
		best := ""
		if r.IsBest {
			best = "  <- best"
		}
		fmt.Printf("    epoch %d: precision %.4f recall %.4f f_beta %.4f%s\n",
			r.Epoch, r.Precision, r.Recall, r.FBeta, best)
	}
}
