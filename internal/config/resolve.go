package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Environment variable names.
const (
	EnvUser           = "POSTGRES_USER"
	EnvPassword       = "POSTGRES_PASSWORD"
	EnvHost           = "POSTGRES_HOST"
	EnvDatabase       = "POSTGRES_DB"
	EnvPort           = "POSTGRES_PORT"
	EnvSSLMode        = "POSTGRES_SSLMODE"
	EnvAuthMethod     = "POSTGRES_AUTH_METHOD"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvAWSRegion      = "AWS_REGION"
	EnvAzureTenantID  = "AZURE_TENANT_ID"
	EnvAzureClientID  = "AZURE_CLIENT_ID"
	EnvAzureSecret    = "AZURE_CLIENT_SECRET"
	EnvGoogleInstance = "GOOGLE_CLOUDSQL_INSTANCE"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
)

// Settings is the resolved, flag-independent configuration of a run.
// The CLI overlays its flags on top.
type Settings struct {
	Connection     *pgload.ConnectionConfig
	Table          string
	LogFile        string
	ConflictKey    string
	Separator      string
	Timeout        time.Duration
	PushgatewayURL string
}

// Resolve merges defaults, the config file (may be nil) and the environment,
// in increasing precedence. DATABASE_URL sits below the individual
// POSTGRES_* variables.
//
// A malformed POSTGRES_PORT or DATABASE_URL does not fail here; it is kept in
// Connection.SourceError and surfaces when connecting.
func Resolve(file *FileConfig, getenv func(string) string) (*Settings, error) {
	s := &Settings{
		Table:     pgload.DefaultTable,
		LogFile:   pgload.DefaultLogFilePath,
		Separator: pgload.DefaultSeparator,
		Timeout:   pgload.DefaultTimeout,
		Connection: &pgload.ConnectionConfig{
			Port:             pgload.DefaultPort,
			AppName:          "pgload",
			AdditionalParams: make(map[string]string),
		},
	}
	conn := s.Connection
	authMethod := ""

	if file != nil {
		setString(&s.Table, file.Table)
		setString(&s.LogFile, file.LogFile)
		setString(&s.ConflictKey, file.ConflictKey)
		setString(&s.Separator, file.Separator)
		setString(&s.PushgatewayURL, file.PushgatewayURL)
		if file.Timeout != "" {
			d, err := time.ParseDuration(file.Timeout)
			if err != nil {
				return nil, fmt.Errorf("timeout %q in config file: %w", file.Timeout, pgload.ErrInvalidConfig)
			}
			s.Timeout = d
		}

		fc := file.Connection
		setString(&conn.Host, fc.Host)
		setString(&conn.Username, fc.Username)
		setString(&conn.Database, fc.Database)
		setString(&conn.SSLMode, fc.SSLMode)
		setString(&conn.AWSRegion, fc.AWSRegion)
		setString(&conn.AzureTenantID, fc.AzureTenantID)
		setString(&conn.AzureClientID, fc.AzureClientID)
		setString(&conn.GoogleInstance, fc.GoogleInstance)
		setString(&authMethod, fc.AuthMethod)
		if fc.Port != 0 {
			conn.Port = fc.Port
		}
	}

	if raw := getenv(EnvDatabaseURL); raw != "" {
		parsed, err := db.ParseConnectionString(raw)
		if err != nil {
			conn.SourceError = fmt.Errorf("%s: %w", EnvDatabaseURL, err)
		} else {
			mergeURL(conn, parsed)
		}
	}

	setString(&conn.Host, getenv(EnvHost))
	setString(&conn.Username, getenv(EnvUser))
	setString(&conn.Password, getenv(EnvPassword))
	setString(&conn.Database, getenv(EnvDatabase))
	setString(&conn.SSLMode, getenv(EnvSSLMode))
	setString(&conn.AWSRegion, getenv(EnvAWSRegion))
	setString(&conn.AzureTenantID, getenv(EnvAzureTenantID))
	setString(&conn.AzureClientID, getenv(EnvAzureClientID))
	setString(&conn.AzureClientSecret, getenv(EnvAzureSecret))
	setString(&conn.GoogleInstance, getenv(EnvGoogleInstance))
	setString(&authMethod, getenv(EnvAuthMethod))
	setString(&s.PushgatewayURL, getenv(EnvPushgatewayURL))

	if raw := strings.TrimSpace(getenv(EnvPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			conn.SourceError = fmt.Errorf("%s %q is not a number", EnvPort, raw)
		case port < 1 || port > 65535:
			conn.SourceError = fmt.Errorf("%s %d is out of range", EnvPort, port)
		default:
			conn.Port = port
		}
	}

	method, err := pgload.ParseAuthMethod(authMethod)
	if err != nil {
		return nil, err
	}
	conn.AuthMethod = method

	return s, nil
}

func mergeURL(dst, src *pgload.ConnectionConfig) {
	setString(&dst.Host, src.Host)
	setString(&dst.Username, src.Username)
	setString(&dst.Password, src.Password)
	setString(&dst.Database, src.Database)
	setString(&dst.SSLMode, src.SSLMode)
	setString(&dst.AppName, src.AppName)
	dst.Port = src.Port
	if src.ConnectTimeout > 0 {
		dst.ConnectTimeout = src.ConnectTimeout
	}
	for k, v := range src.AdditionalParams {
		dst.AdditionalParams[k] = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
