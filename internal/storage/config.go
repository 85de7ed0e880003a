package storage

import "os"

// StorageMode selects the persistence backend
type StorageMode string

const (
	ModeMemory StorageMode = "memory"
	ModeSQLite StorageMode = "sqlite"
	ModeLocal  StorageMode = "local" // DynamoDB local
	ModeAWS    StorageMode = "aws"
)

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Mode               StorageMode
	SQLitePath         string
	Endpoint           string // for local DynamoDB
	Region             string
	AgentsTable        string
	DistributionsTable string
}

// LoadStorageConfig loads persistence config from environment
func LoadStorageConfig() StorageConfig {
	mode := StorageMode(getEnv("STORAGE_MODE", "memory"))
	switch mode {
	case ModeSQLite, ModeLocal, ModeAWS:
	default:
		mode = ModeMemory
	}

	return StorageConfig{
		Mode:               mode,
		SQLitePath:         getEnv("SQLITE_PATH", "distributer.db"),
		Endpoint:           getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:             getEnv("DYNAMO_REGION", "eu-central-1"),
		AgentsTable:        getEnv("DYNAMO_AGENTS_TABLE", "distributer-agents"),
		DistributionsTable: getEnv("DYNAMO_DISTRIBUTIONS_TABLE", "distributer-distributions"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
