package script

import (
	"reflect"
	"strings"
	"testing"

	"reelforge/internal/errs"
	"reelforge/internal/models"
)

func TestBuildFullRecord(t *testing.T) {
	rec := models.ProductRecord{
		Title:       "COM505 TARA Pants",
		Brand:       "TARA.CLOSET",
		Price:       "330.00",
		OrigPrice:   models.NotAvailable,
		Currency:    "THB",
		Discount:    "65",
		Description: "Comfortable wide-leg pants. Digital print silk. Not available in stores.",
	}

	got, err := Build(rec, "Don't forget to like and subscribe!")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{
		"Check out this amazing product: COM505 TARA Pants",
		"Brand: TARA.CLOSET",
		"Current price: 330.00 THB. Discount: 65% off",
		"Comfortable wide-leg pants",
		"Digital print silk",
		"Don't forget to like and subscribe!",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fragments mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestBuildPriceSentenceCombinations(t *testing.T) {
	rec := models.ProductRecord{
		Price:     "100",
		OrigPrice: "200",
		Currency:  "USD",
		Discount:  "50",
	}
	got, err := Build(rec, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one joined price fragment, got %q", got)
	}
	want := "Current price: 100 USD. Original price: 200 USD. Discount: 50% off"
	if got[0] != want {
		t.Fatalf("price sentence = %q, want %q", got[0], want)
	}
}

func TestBuildSkipsSentinels(t *testing.T) {
	rec := models.ProductRecord{
		Title:     "Widget",
		Price:     models.NotAvailable,
		OrigPrice: models.NotAvailable,
		Discount:  models.NotAvailable,
	}
	got, err := Build(rec, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 1 || got[0] != "Check out this amazing product: Widget" {
		t.Fatalf("expected only title fragment, got %q", got)
	}
}

func TestBuildEmptyRecordFails(t *testing.T) {
	_, err := Build(models.ProductRecord{}, "")
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJoinUsesParagraphSeparator(t *testing.T) {
	text := Join([]string{"one", "two"})
	if text != "one \n\n two" {
		t.Fatalf("unexpected join: %q", text)
	}
	if !strings.Contains(text, "\n\n") {
		t.Fatal("paragraph separator missing")
	}
}
