package s3export

import (
	"fmt"
	"os"
	"time"
)

// Config holds the S3 connection settings for account exports.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// LoadConfig reads the export bucket configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    os.Getenv("S3_REGION"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Bucket:    os.Getenv("S3_BUCKET_NAME"),
	}
}

// IsEnabled reports whether the export storage is fully configured.
func (c *Config) IsEnabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// ObjectKey builds the object key for a user's account export, grouped by
// year and month so old snapshots stay browsable.
func (c *Config) ObjectKey(userID uint, now time.Time) string {
	return fmt.Sprintf("exports/%d/%02d/user_%d_%s.json", now.Year(), now.Month(), userID, now.Format("20060102-150405"))
}

// GetAppEnv returns the current application environment.
func GetAppEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return env
}
