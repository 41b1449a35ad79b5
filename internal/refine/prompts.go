package refine

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/amishk599/jobscout/internal/model"
)

//go:embed prompts/refine.tmpl
var refinePromptRaw string

// RefineTemplate is the parsed prompt template. Parsed once at package init.
var RefineTemplate = template.Must(template.New("refine").Parse(refinePromptRaw))

// WorkedExample is the single record shown to the model as the target format.
var WorkedExample = model.Posting{
	JobTitle:   "Full Stack Engineer",
	Company:    "XYZ Pvt Ltd",
	Experience: "2+ years",
	JobNature:  model.NatureOnsite,
	Location:   "Islamabad, Pakistan",
	Salary:     "100,000 PKR",
	ApplyLink:  "https://linkedin.com/job123",
}

type promptData struct {
	Example  string
	Postings string
}

// BuildPrompt renders the refinement instruction for batch.
func BuildPrompt(batch []model.Posting) (string, error) {
	example, err := marshalResult([]model.Posting{WorkedExample})
	if err != nil {
		return "", fmt.Errorf("render example: %w", err)
	}
	postings, err := marshalResult(batch)
	if err != nil {
		return "", fmt.Errorf("render postings: %w", err)
	}

	var buf bytes.Buffer
	if err := RefineTemplate.Execute(&buf, promptData{Example: example, Postings: postings}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// marshalResult serializes postings as {"relevant_jobs": [...]} with 4-space indent.
func marshalResult(postings []model.Posting) (string, error) {
	if postings == nil {
		postings = []model.Posting{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(model.RefinedResult{RelevantJobs: postings}); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
