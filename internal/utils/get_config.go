package utils

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Application
	AppPort  string `yaml:"APP_PORT"`
	Timezone string `yaml:"TIMEZONE"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`
	SupervisorEmail  string `yaml:"SUPERVISOR_EMAIL"`

	// Photo storage
	StorageDriver string `yaml:"STORAGE_DRIVER"`
	StorageRoot   string `yaml:"STORAGE_ROOT"`
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`

	// Picking policies
	LedgerSheetName         string `yaml:"LEDGER_SHEET_NAME"`
	RiderSheetName          string `yaml:"RIDER_SHEET_NAME"`
	LocationMatchPolicy     string `yaml:"LOCATION_MATCH_POLICY"`
	QuantityDefaultSource   string `yaml:"QUANTITY_DEFAULT_SOURCE"`
	QuantityEnforceMaster   bool   `yaml:"QUANTITY_ENFORCE_MASTER"`
	RequireOperatorPassword bool   `yaml:"REQUIRE_OPERATOR_PASSWORD"`
	PickingMode             string `yaml:"PICKING_MODE"`
}

var config = defaultConfig()

func defaultConfig() Config {
	return Config{
		AppPort:               "8080",
		Timezone:              "Asia/Bangkok",
		StorageDriver:         "s3",
		StorageRoot:           "picking",
		LedgerSheetName:       "Logs",
		RiderSheetName:        "Rider_Logs",
		LocationMatchPolicy:   "substring",
		QuantityDefaultSource: "fixed",
		PickingMode:           "single",
	}
}

func LoadConfig() {
	// .env is optional; it may only carry CONFIG_PATH and secrets
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	file, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Error reading YAML file: %s\n", err)
		return
	}

	loaded := defaultConfig()
	err = yaml.Unmarshal(file, &loaded)
	if err != nil {
		log.Printf("Error parsing YAML file: %s\n", err)
		return
	}
	config = loaded

	// Set environment variables for keys that should be accessible via os.Getenv
	os.Setenv("JWT_SECRET", config.JWTSecret)
	os.Setenv("AWS_S3_BUCKET", config.AWSS3Bucket)
	os.Setenv("AWS_S3_REGION", config.AWSS3Region)
	os.Setenv("AWS_ACCESS_KEY", config.AWSAccessKey)
	os.Setenv("AWS_SECRET_KEY", config.AWSSecretKey)
}

// SetConfig replaces the loaded configuration. Used by tests and the CLI flags.
func SetConfig(c Config) {
	config = c
}

func getBoolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func GetConfig(key string) string {
	switch key {
	case "APP_PORT":
		return config.AppPort
	case "TIMEZONE":
		return config.Timezone
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "SUPERVISOR_EMAIL":
		return config.SupervisorEmail
	case "STORAGE_DRIVER":
		return config.StorageDriver
	case "STORAGE_ROOT":
		return config.StorageRoot
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "LEDGER_SHEET_NAME":
		return config.LedgerSheetName
	case "RIDER_SHEET_NAME":
		return config.RiderSheetName
	case "LOCATION_MATCH_POLICY":
		return config.LocationMatchPolicy
	case "QUANTITY_DEFAULT_SOURCE":
		return config.QuantityDefaultSource
	case "QUANTITY_ENFORCE_MASTER":
		return getBoolString(config.QuantityEnforceMaster)
	case "REQUIRE_OPERATOR_PASSWORD":
		return getBoolString(config.RequireOperatorPassword)
	case "PICKING_MODE":
		return config.PickingMode
	default:
		return ""
	}
}

// GetBoolConfig parses a boolean key, false when unset or malformed.
func GetBoolConfig(key string) bool {
	b, err := strconv.ParseBool(GetConfig(key))
	if err != nil {
		return false
	}
	return b
}
