package pgload

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoadConfig contains all parameters needed for a load run.
type LoadConfig struct {
	// InputPath is the JSON document holding an array of person records
	InputPath string

	// Table is the target table name (unqualified)
	Table string

	// ConflictKey selects the upsert conflict target. Empty means the
	// surrogate primary key pk_<table>_id; a column name means a natural key
	// backed by a unique constraint uq_<table>_<column>.
	ConflictKey string

	// Separator joins nested key paths during flattening
	Separator string

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Connection holds the resolved store connection parameters.
	// Validation of its contents is deferred to connect time.
	Connection *ConnectionConfig
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
// Connection credentials are deliberately not checked here: a missing
// credential is a connection failure at write time.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.InputPath == "" {
		errs = append(errs, fmt.Errorf("InputPath is required: %w", ErrInvalidConfig))
	}

	if err := ValidateIdentifier(c.Table); err != nil {
		errs = append(errs, fmt.Errorf("table: %w", err))
	}

	if c.ConflictKey != "" {
		if err := ValidateIdentifier(c.ConflictKey); err != nil {
			errs = append(errs, fmt.Errorf("conflict key: %w", err))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier reports whether name can be used as a table or column
// name. Constraint names are derived from it, so the derived pk_<name>_id
// must also fit in PostgreSQL's identifier limit.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty: %w", ErrInvalidConfig)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("identifier %q must match %s: %w", name, identifierPattern, ErrInvalidConfig)
	}
	if len(name)+len("pk__id") > MaxIdentifierLength {
		return fmt.Errorf("identifier %q is too long: %w", name, ErrInvalidConfig)
	}
	return nil
}

// ConnectionConfig represents resolved connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Cloud provider parameters, used only by the matching AuthMethod.
	AWSRegion         string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	GoogleInstance    string

	// SourceError records a malformed value from the environment, such as a
	// non-numeric POSTGRES_PORT or an unparsable DATABASE_URL. It is reported
	// as a connection failure when connecting, not at startup.
	SourceError error
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the POSTGRES_AUTH_METHOD / auth_method values to an AuthMethod.
// Empty selects standard authentication.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// LoadResult is the outcome of a run. A write-phase failure does not abort
// the process; it is carried in Err so the caller can pick an exit status.
type LoadResult struct {
	RunID uuid.UUID

	// Read is the number of records in the input document
	Read int

	// Removed is the number of exact duplicates dropped by normalization
	Removed int

	// Written is the number of records upserted before the run finished or failed
	Written int

	// Err is nil on success. It wraps ErrConnectionFailed, ErrSchema or ErrWrite.
	Err error

	Duration time.Duration
}

// Succeeded reports whether the write phase completed without error.
func (r *LoadResult) Succeeded() bool {
	return r != nil && r.Err == nil
}

// FailureKind names the write-phase stage that failed, or "" on success.
func (r *LoadResult) FailureKind() string {
	if r == nil || r.Err == nil {
		return ""
	}
	switch {
	case errors.Is(r.Err, ErrConnectionFailed):
		return "connection"
	case errors.Is(r.Err, ErrSchema):
		return "schema"
	case errors.Is(r.Err, ErrWrite):
		return "write"
	default:
		return "unknown"
	}
}
