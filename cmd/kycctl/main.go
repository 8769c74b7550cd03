// Command kycctl runs the verification form rules and the response normalizer
// offline, against saved provider responses.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/congo-pay/admin_console/internal/document"
	"github.com/congo-pay/admin_console/internal/logging"
	"github.com/congo-pay/admin_console/internal/provider"
	"github.com/congo-pay/admin_console/internal/verification"
)

const usage = `usage: kycctl <command> [flags]

commands:
  format     canonicalise a document number
  validate   check a document number and personal details
  normalize  print the sections of a saved provider response
  export     write the raw data of a saved provider response to a file
`

// errInvalid signals a validation failure that was already reported.
var errInvalid = errors.New("input is invalid")

func main() {
	logger := logging.Component(logging.NewText(os.Stderr, os.Getenv("LOG_LEVEL")), "kycctl")
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if !errors.Is(err, errInvalid) {
			logger.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "format":
		return runFormat(args[1:], stdout)
	case "validate":
		return runValidate(args[1:], stdout)
	case "normalize":
		return runNormalize(args[1:], stdout)
	case "export":
		return runExport(args[1:], stdout, logger)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runFormat(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	docType := fs.String("type", "", "document type (nin, bvn, voters, passport, driver)")
	number := fs.String("number", "", "document number as typed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := document.ParseType(*docType)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, document.Canonicalize(t, *number))
	return nil
}

func runValidate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	docType := fs.String("type", "", "document type")
	number := fs.String("number", "", "document number")
	firstName := fs.String("first-name", "", "first name (passport and driver)")
	lastName := fs.String("last-name", "", "last name (passport and driver)")
	dob := fs.String("dob", "", "date of birth, YYYY-MM-DD (passport and driver)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := document.Input{DocumentType: *docType, Number: *number}
	if *firstName != "" || *lastName != "" || *dob != "" {
		in.PersonalInfo = &document.PersonalInfo{FirstName: *firstName, LastName: *lastName, DateOfBirth: *dob}
	}
	err := document.NewValidator().Validate(in)
	var verr *document.ValidationError
	if errors.As(err, &verr) {
		return writeJSON(stdout, map[string]any{"valid": false, "fields": verr.Fields}, errInvalid)
	}
	if err != nil {
		return err
	}
	return writeJSON(stdout, map[string]any{"valid": true}, nil)
}

func runNormalize(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	docType := fs.String("type", "", "document type the response belongs to")
	in := fs.String("in", "", "saved provider response (envelope or data object), - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := loadResult(*docType, *in)
	if err != nil {
		return err
	}
	return writeJSON(stdout, result, nil)
}

func runExport(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	docType := fs.String("type", "", "document type the response belongs to")
	in := fs.String("in", "", "saved provider response (envelope or data object), - for stdin")
	dir := fs.String("dir", envOr("EXPORT_DIR", "exports"), "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := loadResult(*docType, *in)
	if err != nil {
		return err
	}
	artifact, err := verification.Export(result)
	if err != nil {
		return err
	}
	path, err := artifact.Save(*dir)
	if err != nil {
		return err
	}
	logger.Info("export written", "path", path, "document_type", result.DocumentType.String())
	fmt.Fprintln(stdout, path)
	return nil
}

// loadResult reads a saved response. A provider envelope is unwrapped; its
// message is kept and a status of false is reported as a failure.
func loadResult(docType, path string) (verification.Result, error) {
	t, err := document.ParseType(docType)
	if err != nil {
		return verification.Result{}, err
	}
	body, err := readInput(path)
	if err != nil {
		return verification.Result{}, err
	}

	data, message := json.RawMessage(body), ""
	var envelope struct {
		Status  *bool           `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Status != nil {
		if !*envelope.Status {
			return verification.Result{}, &provider.Error{Category: provider.CategoryProviderFailure, Message: envelope.Message}
		}
		data, message = envelope.Data, envelope.Message
	}

	raw, err := verification.ParseRawData(data)
	if err != nil {
		return verification.Result{}, fmt.Errorf("parse provider data: %w", err)
	}
	return verification.NewResult(t, message, raw), nil
}

func readInput(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, errors.New("-in is required")
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(path)
	}
}

func writeJSON(w io.Writer, v any, result error) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return result
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
