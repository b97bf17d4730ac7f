package main

import (
	"flag"
	"log"
	"os"

	"retrain-orchestrator/config"
	"retrain-orchestrator/core/pipeline"
	"retrain-orchestrator/core/spec"
)

func main() {
	specPath := flag.String("spec", "", "optional YAML pipeline spec overriding the defaults")
	output := flag.String("output", "pipeline_definition.json", "where to write the definition document")
	flag.Parse()

	cfg := config.Load()
	if cfg.RoleARN == "" {
		log.Fatalf("SAGEMAKER_ROLE_ARN environment variable not set")
	}

	ps := spec.Default()
	if *specPath != "" {
		data, err := os.ReadFile(*specPath)
		if err != nil {
			log.Fatalf("Failed to read spec file: %v", err)
		}
		ps, err = spec.Parse(string(data))
		if err != nil {
			log.Fatalf("Invalid pipeline spec: %v", err)
		}
	}

	log.Printf("Generating pipeline definition: name=%s region=%s bucket=%s group=%s",
		ps.Pipeline.Name, cfg.AWSRegion, cfg.S3Bucket, cfg.ModelPackageGroup)

	builder := pipeline.NewBuilder(ps, cfg.S3Bucket, cfg.RoleARN, cfg.AWSRegion, cfg.ModelPackageGroup)
	data, err := builder.JSON()
	if err != nil {
		log.Fatalf("Failed to build pipeline definition: %v", err)
	}

	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("Pipeline definition written to %s", *output)
}
