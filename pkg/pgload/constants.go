package pgload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Load completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration
	ExitConnectionError  = 11 // Failed to connect to database
	ExitWriteFailed      = 13 // A record upsert failed
	ExitExtractionFailed = 15 // Input file missing or malformed
	ExitSchemaFailed     = 16 // Table or constraint creation failed
)

const (
	// DefaultTable is the target table when none is supplied.
	DefaultTable = "people"

	// DefaultInputPath is the JSON document loaded when no path argument is given.
	DefaultInputPath = "data/json_for_case.json"

	// DefaultLogFilePath is the append-only status log.
	DefaultLogFilePath = "logs/data_insertion.log"

	// DefaultSeparator joins nested key paths during flattening.
	DefaultSeparator = "_"

	// LogTimestampLayout is the timestamp written at the start of each log line.
	LogTimestampLayout = "2006-01-02 15:04:05.000000"

	// DefaultTimeout bounds a whole run. It protects against hangs, it is not a query timeout.
	DefaultTimeout = 3 * time.Minute

	// DefaultPort is used when POSTGRES_PORT is not set.
	DefaultPort = 5432

	// ConfigFileName is the optional project configuration file.
	ConfigFileName = "pgload.yaml"

	// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1.
	MaxIdentifierLength = 63
)
