package config

import (
	"encoding/json"
	"os"

	"github.com/sasset/core/internal/flagx"
	"github.com/sasset/core/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both strings such as "15m" and integer nanoseconds. Empty fields leave the
// corresponding Config value untouched.
type JsonConfig struct {
	Environment                 string            `json:"environment"`
	DatabaseDSN                 string            `json:"database_dsn"`
	DatabaseHost                string            `json:"database_host"`
	DatabaseHosts               map[string]string `json:"database_hosts"`
	SecretKey                   string            `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration   `json:"access_token_validity_duration"`
	LogLevel                    string            `json:"log_level"`
	LogFormat                   string            `json:"log_format"`
	ErrorLogPath                string            `json:"error_log_path"`
	S3RootUser                  string            `json:"s3_root_user"`
	S3RootPassword              string            `json:"s3_root_password"`
	S3Bucket                    string            `json:"s3_bucket"`
	S3Region                    string            `json:"s3_region"`
	S3BaseEndpoint              string            `json:"s3_base_endpoint"`
	ArchiveURLValidity          *timex.Duration   `json:"archive_url_validity"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Without the flag nothing is loaded. An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Environment, c.Environment)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatabaseHost, c.DatabaseHost)
	if len(c.DatabaseHosts) > 0 {
		config.DatabaseHosts = c.DatabaseHosts
	}
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.ErrorLogPath, c.ErrorLogPath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.ArchiveURLValidity != nil {
		config.ArchiveURLValidity = c.ArchiveURLValidity.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
