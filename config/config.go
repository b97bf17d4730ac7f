package config

import (
	"os"
)

// Config holds the application configuration
type Config struct {
	// Pipeline
	PipelineName      string
	ModelPackageGroup string
	RoleARN           string

	// Storage
	S3Bucket string

	// Server
	ServerPort string

	// AWS
	AWSRegion string

	// Optional execution lock store; empty disables the lock
	DatabaseURL string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		PipelineName:      os.Getenv("PIPELINE_NAME"),
		ModelPackageGroup: getEnv("MODEL_PACKAGE_GROUP", "iris-classification-models"),
		RoleARN:           os.Getenv("SAGEMAKER_ROLE_ARN"),
		S3Bucket:          getEnv("S3_BUCKET", "terraform-sagemaker-firstbucket"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
