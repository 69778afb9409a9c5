package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgload [input.json]",
	Short: "Load a JSON array of person records into PostgreSQL",
	Long: asciiLogo + `

pgload reads a JSON array of person records, flattens nested objects into
underscore-joined columns, drops exact duplicates, makes sure the target
table exists and upserts every record, one statement per record.

The outcome of every run is appended as a single line to the status log
(logs/data_insertion.log by default).

Arguments:
  input.json      JSON document to load (default: data/json_for_case.json)

Connection:
  Settings come from pgload.yaml, then .env, then the environment
  (DATABASE_URL, POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
  POSTGRES_PASSWORD). Missing credentials are reported as a connection
  failure when the records are written.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  13 - Record write failed
  15 - Input file missing or malformed
  16 - Table or constraint creation failed`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runLoad,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors already written to the log are not
// printed a second time.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	err := rootCmd.Execute()
	if err != nil && !isReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// reportedError marks an error the loader has already logged.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func isReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
