package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/jobscout/internal/export"
	"github.com/amishk599/jobscout/internal/model"
)

var (
	// ErrEmptyResponse means the completion text was empty or only whitespace.
	ErrEmptyResponse = errors.New("completion returned an empty response")
	// ErrMalformedResponse means the completion text was not valid JSON.
	// The parser diagnostic is wrapped alongside it.
	ErrMalformedResponse = errors.New("malformed response: failed to parse completion as JSON")
	// ErrSchemaMismatch means the completion was valid JSON of the wrong shape.
	ErrSchemaMismatch = errors.New("completion does not match the relevant_jobs schema")
)

// Result is a successfully refined batch.
type Result struct {
	Raw      string // completion text exactly as persisted
	Document any    // parsed form of Raw
	Message  string
}

// Refiner turns a normalized batch into a refined document via the completion provider.
type Refiner struct {
	provider   CompletionProvider
	resultPath string
	strict     bool
	logger     *slog.Logger
}

// NewRefiner creates a refiner that persists successful results to resultPath.
// When strict is set the parsed document must also match model.RefinedResult.
func NewRefiner(provider CompletionProvider, resultPath string, strict bool, logger *slog.Logger) *Refiner {
	return &Refiner{
		provider:   provider,
		resultPath: resultPath,
		strict:     strict,
		logger:     logger,
	}
}

// Refine prompts the provider with batch, validates the reply and writes it to
// the result file. Nothing is written unless validation passes.
func (r *Refiner) Refine(ctx context.Context, batch []model.Posting) (Result, error) {
	prompt, err := BuildPrompt(batch)
	if err != nil {
		return Result{}, err
	}

	raw, err := r.provider.Complete(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	r.logger.Debug("completion received", "bytes", len(raw), "response", raw)

	doc, err := r.validate(raw)
	if err != nil {
		return Result{}, err
	}

	if err := export.WriteResult(r.resultPath, raw); err != nil {
		return Result{}, err
	}

	return Result{
		Raw:      raw,
		Document: doc,
		Message:  fmt.Sprintf("Formatted job listings saved to '%s'.", r.resultPath),
	}, nil
}

func (r *Refiner) validate(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if r.strict {
		if err := checkShape(doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
		}
	}
	return doc, nil
}

// checkShape requires a top-level relevant_jobs array of posting objects whose
// fields are all strings and whose jobNature is onsite, remote or hybrid.
func checkShape(doc any) error {
	top, ok := doc.(map[string]any)
	if !ok {
		return errors.New("top level is not an object")
	}
	jobs, ok := top["relevant_jobs"].([]any)
	if !ok {
		return errors.New("relevant_jobs is missing or not an array")
	}

	columns := model.Posting{}.Columns()
	for i, item := range jobs {
		obj, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("relevant_jobs[%d] is not an object", i)
		}
		for _, col := range columns {
			if _, ok := obj[col].(string); !ok {
				return fmt.Errorf("relevant_jobs[%d].%s is missing or not a string", i, col)
			}
		}
		switch nature := obj["jobNature"].(string); nature {
		case model.NatureOnsite, model.NatureRemote, model.NatureHybrid:
		default:
			return fmt.Errorf("relevant_jobs[%d].jobNature %q is not onsite, remote or hybrid", i, nature)
		}
	}
	return nil
}

// Postings decodes Raw as a RefinedResult. It fails when the document does not
// have that shape, which is possible unless strict mode was on.
func (r Result) Postings() ([]model.Posting, error) {
	var doc model.RefinedResult
	if err := json.Unmarshal([]byte(r.Raw), &doc); err != nil {
		return nil, fmt.Errorf("decode refined postings: %w", err)
	}
	return doc.RelevantJobs, nil
}
