package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	FSPath      string // Physical directory for uploaded migration files

	// Target datastore (where imported entities land)
	TargetDBType     string // "postgresql" or "mysql"
	TargetDBHost     string
	TargetDBPort     int
	TargetDBName     string
	TargetDBUser     string
	TargetDBPassword string

	PreviewSampleSize int // rows shown in upload previews
	DefaultBatchSize  int // records per progress batch during execution
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "firelater-migrate"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		FSPath:      getEnv("FS_PATH", "./uploads"),

		TargetDBType:     getEnv("TARGET_DB_TYPE", "postgresql"),
		TargetDBHost:     getEnv("TARGET_DB_HOST", "localhost"),
		TargetDBPort:     getEnvInt("TARGET_DB_PORT", 5432),
		TargetDBName:     getEnv("TARGET_DB_NAME", "firelater"),
		TargetDBUser:     getEnv("TARGET_DB_USER", "firelater"),
		TargetDBPassword: getEnv("TARGET_DB_PASSWORD", ""),

		PreviewSampleSize: getEnvInt("PREVIEW_SAMPLE_SIZE", 5),
		DefaultBatchSize:  getEnvInt("DEFAULT_BATCH_SIZE", 100),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
