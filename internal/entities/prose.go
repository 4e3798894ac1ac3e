package entities

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// The embedded prose model tags people well but rarely emits DATE or MONEY,
// so those two labels are backfilled from patterns.
var (
	dateRule  = regexp.MustCompile(`\b(?:\d{1,2}[/-])?\d{1,2}[/-]\d{2,4}\b`)
	moneyRule = regexp.MustCompile(`\$\s?\d+[\d,]*(?:\.\d{2})?`)
)

// ProseRecognizer is the production Recognizer backed by prose's statistical NER model.
// It holds no per-call state and is safe for concurrent use.
type ProseRecognizer struct{}

// NewProseRecognizer constructs a ProseRecognizer.
func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

// Recognize runs NER over text.
func (r *ProseRecognizer) Recognize(ctx context.Context, text string) (b Bundle, err error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("prose ner panic: %v", rec)
		}
	}()

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return Bundle{}, fmt.Errorf("prose ner: %w", err)
	}

	c := newCollector()
	for _, ent := range doc.Entities() {
		c.add(strings.ToUpper(ent.Label), strings.TrimSpace(ent.Text))
	}
	for _, m := range dateRule.FindAllString(text, -1) {
		c.add(LabelDate, m)
	}
	for _, m := range moneyRule.FindAllString(text, -1) {
		c.add(LabelMoney, m)
	}
	return c.bundle(), nil
}

var _ Recognizer = (*ProseRecognizer)(nil)
