// Package normalize maps raw scraper records onto the fixed posting schema.
package normalize

import (
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// Posting converts a single raw record. Missing fields become model.NotAvailable.
// Experience is never known before refinement.
func Posting(raw model.RawPosting) model.Posting {
	location, hasLocation := raw.Field("location")

	nature := model.NatureRemote
	if hasLocation && strings.Contains(strings.ToLower(location), "onsite") {
		nature = model.NatureOnsite
	}

	return model.Posting{
		JobTitle:   fieldOrNA(raw, "title"),
		Company:    fieldOrNA(raw, "company"),
		Experience: model.NotAvailable,
		JobNature:  nature,
		Location:   fieldOrNA(raw, "location"),
		Salary:     fieldOrNA(raw, "salary"),
		ApplyLink:  fieldOrNA(raw, "job_url"),
	}
}

// Batch normalizes every record, preserving order.
func Batch(raws []model.RawPosting) []model.Posting {
	out := make([]model.Posting, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Posting(raw))
	}
	return out
}

func fieldOrNA(raw model.RawPosting, key string) string {
	if v, ok := raw.Field(key); ok {
		return v
	}
	return model.NotAvailable
}
