// Package pipeline turns a stored contract file into scored field categories
// and drives the contract status state machine around that work.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"contract-backend/internal/entities"
	"contract-backend/internal/extract"
	"contract-backend/internal/fields"
	"contract-backend/internal/scoring"
)

// DefaultMinTextLength is the fewest characters of extracted text a run accepts.
const DefaultMinTextLength = 50

// FileProvider supplies stored contract files.
type FileProvider interface {
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Processor is the pure form of a run: it reads, extracts, recognizes, merges
// and scores, and leaves persistence to the caller. It keeps no per-run state.
type Processor struct {
	Files         FileProvider
	Recognizer    entities.Recognizer
	MinTextLength int
	// ExtractText defaults to extract.PDFText.
	ExtractText func(ctx context.Context, data []byte) extract.Result
}

// Result is everything one run produced. On failure Score is 0 and the
// artifacts obtained before the failing stage are kept.
type Result struct {
	Fields      fields.Fields
	Score       int
	Breakdown   map[string]int
	RawText     string
	Pages       int
	FailedPages []int
	Failure     *Failure
}

// Process runs the pipeline on the stored file at storageKey.
func (p *Processor) Process(ctx context.Context, storageKey string) Result {
	if p.Files == nil {
		return Result{Failure: fail(KindProcessing, fmt.Errorf("no file provider configured"))}
	}
	body, err := p.Files.Open(ctx, storageKey)
	if err != nil {
		return Result{Failure: fail(KindExtraction, fmt.Errorf("open %s: %w", storageKey, err))}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return Result{Failure: fail(KindExtraction, fmt.Errorf("read %s: %w", storageKey, err))}
	}
	return p.ProcessBytes(ctx, data)
}

// ProcessBytes runs the pipeline on an in-memory PDF.
func (p *Processor) ProcessBytes(ctx context.Context, data []byte) (res Result) {
	extractText := p.ExtractText
	if extractText == nil {
		extractText = extract.PDFText
	}

	text := extractText(ctx, data)
	res.RawText = text.Text
	res.Pages = text.Pages
	res.FailedPages = text.FailedPages
	if text.Err != nil {
		res.Failure = fail(KindExtraction, text.Err)
		return res
	}
	return p.ProcessText(ctx, text.Text, res)
}

// ProcessText runs everything after text extraction. base carries extraction
// metadata into the result.
func (p *Processor) ProcessText(ctx context.Context, text string, base Result) (res Result) {
	res = base
	res.RawText = text

	minLen := p.MinTextLength
	if minLen <= 0 {
		minLen = DefaultMinTextLength
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < minLen {
		res.Failure = fail(KindInsufficientText, fmt.Errorf("extracted text has %d characters, minimum is %d", n, minLen))
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Score = 0
			res.Breakdown = nil
			res.Failure = fail(KindProcessing, fmt.Errorf("panic: %v", r))
		}
	}()

	res.Fields = fields.Extract(text)

	if p.Recognizer == nil {
		res.Failure = fail(KindRecognizer, fmt.Errorf("no entity recognizer configured"))
		return res
	}
	bundle, err := p.Recognizer.Recognize(ctx, text)
	if err != nil {
		res.Failure = fail(KindRecognizer, err)
		return res
	}

	fields.Merge(&res.Fields, bundle)
	res.Score = scoring.Score(res.Fields)
	res.Breakdown = scoring.Breakdown(res.Fields)
	return res
}
