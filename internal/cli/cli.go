// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/promptgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// the query to process, a boolean indicating if the program should exit
// cleanly, or an ExitError.
func Parse(args []string, env func(string) string, output io.Writer) (*app.Config, string, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("promptgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
PromptGridGo - a declarative, layered prompt pipeline engine.

Usage:
  promptgridgo [options] QUERY

Arguments:
  QUERY
    The query text to drive through the pipeline.

Options:
`)
		flagSet.PrintDefaults()
	}

	layersFlag := flagSet.String("layers", "", "Path to the layer-structure file (.json or .hcl).")
	templatesFlag := flagSet.String("templates", "", "Path to the template file (.json or .hcl).")
	mergeFlag := flagSet.Bool("merge-templates", false, "Merge loaded templates into the store instead of replacing it.")
	strictFlag := flagSet.Bool("strict-dataflow", false, "Validate placeholder reachability across layers at load time.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	baseURLFlag := flagSet.String("base-url", "", "Base URL of the OpenAI-compatible generation API.")
	timeoutFlag := flagSet.Duration("timeout", 2*time.Minute, "Per-request timeout for the generation client.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, "", true, nil
		}
		return nil, "", false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No query provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, "", true, nil
	}
	query := strings.Join(flagSet.Args(), " ")

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, "", false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, "", false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		LayerPath:      *layersFlag,
		TemplatePath:   *templatesFlag,
		MergeTemplates: *mergeFlag,
		StrictDataflow: *strictFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		BaseURL:        *baseURLFlag,
		APIKey:         env("GROQ_API_KEY"),
		Timeout:        *timeoutFlag,
	})
	if err != nil {
		return nil, "", false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, query, false, nil
}
