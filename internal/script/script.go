// Package script turns a product record into an ordered narration script.
// The same fragment list later drives both speech synthesis and subtitle
// segmentation.
package script

import (
	"strings"

	"reelforge/internal/errs"
	"reelforge/internal/models"
)

// ParagraphSep joins fragments into the narration text handed to speech
// synthesis. The blank line makes the synthesizer pause between fragments.
const ParagraphSep = " \n\n "

// Build produces the ordered narration fragments for one product. Fragment
// order is fixed: title introduction, brand, a single joined price sentence,
// description sentences, then the optional outro. A record yielding zero
// fragments is a build failure for that record only.
func Build(rec models.ProductRecord, outro string) ([]string, error) {
	var parts []string

	if rec.Title != "" {
		parts = append(parts, "Check out this amazing product: "+rec.Title)
	}
	if rec.Brand != "" {
		parts = append(parts, "Brand: "+rec.Brand)
	}
	if price := priceSentence(rec); price != "" {
		parts = append(parts, price)
	}
	parts = append(parts, descriptionSentences(rec.Description)...)
	if outro != "" {
		parts = append(parts, outro)
	}

	if len(parts) == 0 {
		return nil, errs.Validation("no narration content generated")
	}
	return parts, nil
}

// Join combines fragments into the full narration text.
func Join(fragments []string) string {
	return strings.Join(fragments, ParagraphSep)
}

// priceSentence combines whichever of current price, original price, and
// discount are present and not the "Not Available" sentinel.
func priceSentence(rec models.ProductRecord) string {
	var info []string
	if present(rec.Price) {
		info = append(info, strings.TrimSpace("Current price: "+rec.Price+" "+rec.Currency))
	}
	if present(rec.OrigPrice) {
		info = append(info, strings.TrimSpace("Original price: "+rec.OrigPrice+" "+rec.Currency))
	}
	if present(rec.Discount) {
		info = append(info, "Discount: "+rec.Discount+"% off")
	}
	return strings.Join(info, ". ")
}

// descriptionSentences splits a description on sentence boundaries, keeping
// each non-empty sentence that is not the sentinel as its own fragment.
func descriptionSentences(desc string) []string {
	if !present(desc) {
		return nil
	}
	var out []string
	for _, sentence := range strings.Split(desc, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || strings.HasPrefix(strings.ToLower(sentence), "not available") {
			continue
		}
		out = append(out, sentence)
	}
	return out
}

func present(v string) bool {
	return v != "" && v != models.NotAvailable
}
