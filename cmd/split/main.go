package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"retrain-orchestrator/config"
	"retrain-orchestrator/core/splitter"
	"retrain-orchestrator/storage"
)

func main() {
	input := flag.String("input", filepath.Join("data", "raw", "iris.csv"), "path to the raw labeled dataset")
	outDir := flag.String("output-dir", "split_data", "directory for the partition files")
	seed := flag.Int64("seed", 42, "random seed for the stratified split")
	upload := flag.Bool("upload", true, "upload the partitions to the pipeline bucket")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	s := splitter.New()
	s.Seed = *seed

	var uploader storage.Uploader
	if *upload {
		u, err := storage.NewS3Uploader(ctx, cfg.AWSRegion)
		if err != nil {
			log.Fatalf("Failed to create uploader: %v", err)
		}
		uploader = u
	}

	res, err := s.Run(ctx, *input, *outDir, uploader, cfg.S3Bucket)
	if err != nil {
		log.Fatalf("Split failed: %v", err)
	}

	log.Printf("Done: train=%d validation=%d test=%d samples written to %s",
		res.Train.Len(), res.Validation.Len(), res.Test.Len(), *outDir)
}
