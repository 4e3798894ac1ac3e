package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contract-backend/internal/entities"
	"contract-backend/internal/extract"
	"contract-backend/internal/pipeline"
	"contract-backend/internal/shared/telemetry"
)

// newRecognizer is replaced in tests.
var newRecognizer = func() entities.Recognizer { return entities.NewProseRecognizer() }

var (
	includeRaw bool
	minText    int
	timeout    time.Duration
	logLevel   string
)

// NewRootCmd builds the contractctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contractctl",
		Short:         "Run the contract extraction pipeline locally",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.Init("contractctl", "production", logLevel)
			telemetry.SetOutput(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostics on stderr")
	root.AddCommand(newParseCmd())
	return root
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.pdf|file.docx>",
		Short: "Extract, recognize and score one contract file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runParse(ctx, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&includeRaw, "raw", false, "include the extracted raw text")
	cmd.Flags().IntVar(&minText, "min-text", pipeline.DefaultMinTextLength, "minimum extracted characters")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall time limit")
	return cmd
}

type parseOutput struct {
	File        string         `json:"file"`
	Status      string         `json:"status"`
	Score       int            `json:"score"`
	Breakdown   map[string]int `json:"score_breakdown,omitempty"`
	Fields      any            `json:"fields"`
	Pages       int            `json:"pages,omitempty"`
	FailedPages []int          `json:"failed_pages,omitempty"`
	Error       string         `json:"error,omitempty"`
	RawText     string         `json:"raw_text,omitempty"`
}

func runParse(ctx context.Context, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	p := &pipeline.Processor{
		Recognizer:    newRecognizer(),
		MinTextLength: minText,
	}

	var res pipeline.Result
	switch extract.MimeFromName(path) {
	case extract.MimeDOCX:
		text, err := extract.ExtractTextFromBytes(ctx, data, extract.MimeDOCX, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
		res = p.ProcessText(ctx, text, pipeline.Result{})
	default:
		res = p.ProcessBytes(ctx, data)
	}

	o := parseOutput{
		File:        filepath.Base(path),
		Status:      "completed",
		Score:       res.Score,
		Breakdown:   res.Breakdown,
		Fields:      res.Fields,
		Pages:       res.Pages,
		FailedPages: res.FailedPages,
	}
	if res.Failure != nil {
		o.Status = "failed"
		o.Error = res.Failure.Error()
	}
	if includeRaw {
		o.RawText = strings.TrimSpace(res.RawText)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return err
	}
	if res.Failure != nil {
		return fmt.Errorf("processing failed: %s", res.Failure.Kind)
	}
	return nil
}
