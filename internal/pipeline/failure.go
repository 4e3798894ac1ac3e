package pipeline

import "fmt"

// Kind classifies why a run failed.
type Kind string

const (
	KindExtraction       Kind = "extraction_failure"
	KindInsufficientText Kind = "insufficient_text"
	KindRecognizer       Kind = "recognizer_failure"
	KindProcessing       Kind = "processing_failure"
)

// Failure is the terminal outcome of a failed stage.
type Failure struct {
	Kind Kind
	Err  error
}

func fail(kind Kind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
