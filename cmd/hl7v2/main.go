// Package main implements the hl7v2 CLI tool for inspecting, converting
// and acknowledging HL7 v2.x ER7 messages.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/ack"
	"github.com/DNAi-inc/DNHealth-sub002/batch"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
	"github.com/DNAi-inc/DNHealth-sub002/jsoncodec"
)

const (
	version = "0.1.0"
	usage   = `hl7v2 - HL7 v2.x ER7 message tool

Usage:
  hl7v2 [options] <file>...
  hl7v2 [options] -           (read from stdin)
  cat oru.hl7 | hl7v2 -       (pipe input)

Examples:
  hl7v2 adt.hl7
  hl7v2 -mode json adt.hl7
  hl7v2 -mode ack -code AE adt.hl7
  hl7v2 -mode batch nightly_batch.hl7
  hl7v2 -tolerant -output json *.hl7
  cat adt.hl7 | hl7v2 -

Modes:
  check  parse and report structure (default)
  json   convert the message to JSON
  er7    convert a JSON message back to ER7
  ack    generate an acknowledgment for each message
  batch  validate a BHS/BTS batch envelope
  file   validate an FHS/FTS file envelope

Options:
`
)

// OutputFormat specifies the report output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration.
type Config struct {
	Mode        string
	Output      OutputFormat
	Tolerant    bool
	Normalize   bool
	AckCode     string
	AckText     string
	Quiet       bool
	ShowVersion bool
	Help        bool
	Files       []string
}

// Report is the JSON output structure for one input.
type Report struct {
	Resource string   `json:"resource"`
	Valid    bool     `json:"valid"`
	Segments int      `json:"segments,omitempty"`
	Messages int      `json:"messages,omitempty"`
	Version  string   `json:"version,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Duration string   `json:"duration"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("hl7v2 v%s\n", version)
		os.Exit(0)
	}

	if config.Help || len(config.Files) == 0 {
		flag.Usage()
		os.Exit(0)
	}

	os.Exit(run(config))
}

func parseFlags() *Config {
	config := &Config{}
	var output string

	flag.StringVar(&config.Mode, "mode", "check", "Mode: check, json, er7, ack, batch, file")
	flag.StringVar(&output, "output", "text", "Report format: text, json")
	flag.BoolVar(&config.Tolerant, "tolerant", false, "Skip malformed segments instead of failing")
	flag.BoolVar(&config.Normalize, "normalize", false, "Trim trailing empty fields when emitting ER7")
	flag.StringVar(&config.AckCode, "code", "AA", "Acknowledgment code for ack mode: AA, AE, AR")
	flag.StringVar(&config.AckText, "text", "", "MSA-3 text message for ack mode")
	flag.BoolVar(&config.Quiet, "quiet", false, "Only show problems")
	flag.BoolVar(&config.ShowVersion, "v", false, "Show version")
	flag.BoolVar(&config.Help, "help", false, "Show help")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	default:
		config.Output = OutputText
	}

	config.Files = flag.Args()
	return config
}

func run(config *Config) int {
	hasErrors := false
	reports := make([]Report, 0, len(config.Files))

	for _, file := range config.Files {
		if file == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				hasErrors = true
				continue
			}
			report, failed := processData(data, "stdin", config)
			reports = append(reports, report)
			hasErrors = hasErrors || failed
			continue
		}

		matches, globErr := filepath.Glob(file)
		if globErr != nil {
			fmt.Fprintf(os.Stderr, "Error with pattern '%s': %v\n", file, globErr)
			hasErrors = true
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintf(os.Stderr, "No files match pattern: %s\n", file)
			hasErrors = true
			continue
		}

		for _, match := range matches {
			report, failed := processFile(match, config)
			reports = append(reports, report)
			hasErrors = hasErrors || failed
		}
	}

	if config.Output == OutputJSON {
		jsonOutput, _ := json.MarshalIndent(reports, "", "  ")
		fmt.Println(string(jsonOutput))
	}

	if hasErrors {
		return 1
	}
	return 0
}

func processFile(path string, config *Config) (Report, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if config.Output == OutputText {
			fmt.Printf("Error reading %s: %v\n", path, err)
		}
		return Report{
			Resource: path,
			Errors:   []string{fmt.Sprintf("failed to read file: %v", err)},
		}, true
	}
	return processData(data, path, config)
}

func processData(data []byte, name string, config *Config) (Report, bool) {
	start := time.Now()

	report, err := dispatch(data, config)
	report.Resource = name
	report.Duration = time.Since(start).Round(time.Microsecond).String()

	if err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, err.Error())
	}
	failed := !report.Valid

	if config.Output == OutputText {
		printTextReport(report, config)
	}
	return report, failed
}

// dispatch runs the selected mode against one input. Mode payload (JSON,
// ER7, the ACK message) goes to stdout; the returned Report carries the
// structural findings.
func dispatch(data []byte, config *Config) (Report, error) {
	if config.Mode == "er7" {
		return convertToER7(data, config)
	}

	var opts []hl7v2.Option
	if config.Tolerant {
		opts = append(opts, hl7v2.WithTolerant(true))
	}

	msg, warnings, err := codec.NewParser(opts...).Parse(string(data))
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Valid:    true,
		Segments: len(msg.Segments),
		Version:  msg.Version,
	}
	for _, w := range warnings {
		report.Warnings = append(report.Warnings, w.String())
	}

	switch config.Mode {
	case "check":

	case "json":
		out, err := jsoncodec.ToJSONIndent(msg)
		if err != nil {
			return report, err
		}
		fmt.Println(string(out))

	case "ack":
		answer, err := ack.Generate(msg, ack.Options{
			Code:        ack.Code(config.AckCode),
			TextMessage: config.AckText,
		})
		if err != nil {
			return report, err
		}
		text, err := serialize(answer, config)
		if err != nil {
			return report, err
		}
		fmt.Print(text)

	case "batch":
		result := batch.ValidateBatch(msg)
		report.Valid = result.Valid
		report.Errors = append(report.Errors, result.Errors...)
		report.Messages = len(batch.MessagesFromBatch(msg))

	case "file":
		result := batch.ValidateFile(msg)
		report.Valid = result.Valid
		report.Errors = append(report.Errors, result.Errors...)
		report.Messages = len(batch.BatchesFromFile(msg))

	default:
		return report, fmt.Errorf("unknown mode %q", config.Mode)
	}

	return report, nil
}

func convertToER7(data []byte, config *Config) (Report, error) {
	msg, err := jsoncodec.FromJSON(data)
	if err != nil {
		return Report{}, err
	}
	text, err := serialize(msg, config)
	if err != nil {
		return Report{}, err
	}
	fmt.Print(text)
	return Report{Valid: true, Segments: len(msg.Segments), Version: msg.Version}, nil
}

func serialize(msg *hl7v2.Message, config *Config) (string, error) {
	var opts []hl7v2.Option
	if config.Normalize {
		opts = append(opts, hl7v2.WithNormalize(true))
	}
	return codec.NewSerializer(opts...).Serialize(msg)
}

func printTextReport(report Report, config *Config) {
	if config.Quiet && report.Valid && len(report.Warnings) == 0 {
		return
	}

	status := "VALID"
	if !report.Valid {
		status = "INVALID"
	}

	fmt.Fprintf(os.Stderr, "== %s ==\n", report.Resource)
	fmt.Fprintf(os.Stderr, "Status: %s\n", status)
	if report.Segments > 0 {
		fmt.Fprintf(os.Stderr, "Segments: %d\n", report.Segments)
	}
	if report.Messages > 0 {
		fmt.Fprintf(os.Stderr, "Messages: %d\n", report.Messages)
	}
	if report.Version != "" {
		fmt.Fprintf(os.Stderr, "Version: %s\n", report.Version)
	}
	fmt.Fprintf(os.Stderr, "Duration: %s\n", report.Duration)

	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "  WARN  %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  ERROR %s\n", e)
	}
	fmt.Fprintln(os.Stderr)
}
