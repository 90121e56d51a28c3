// Package csvx extracts product records from uploaded CSV files. The schema
// is flexible: column roles are resolved from header names when a header row
// is present, with a fixed positional mapping as the fallback.
package csvx

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"reelforge/internal/errs"
	"reelforge/internal/models"
)

// columnRoles maps resolved column indexes to record fields. Image columns
// accumulate in column order.
type columnRoles struct {
	title       int
	brand       int
	price       int
	origPrice   int
	currency    int
	discount    int
	description int
	images      []int
}

func newColumnRoles() columnRoles {
	return columnRoles{title: -1, brand: -1, price: -1, origPrice: -1, currency: -1, discount: -1, description: -1}
}

// positionalRoles is the documented fixed mapping used when no header row is
// detected: title, brand, prices and currency in the leading columns, the
// description and image URL block further right.
func positionalRoles() columnRoles {
	r := newColumnRoles()
	r.title = 2
	r.brand = 3
	r.price = 4
	r.origPrice = 5
	r.currency = 6
	r.discount = 7
	r.description = 20
	for col := 21; col <= 26; col++ {
		r.images = append(r.images, col)
	}
	return r
}

// ExtractFile reads a CSV file and yields one ProductRecord per usable row.
func ExtractFile(path string) ([]models.ProductRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Extract(f)
}

// Extract parses CSV content. Rows whose image columns hold no usable URL
// are skipped silently; only an empty overall result is an error.
func Extract(r io.Reader) ([]models.ProductRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	delim := sniffDelimiter(string(data))
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errs.Validation("malformed CSV file: %v", err)
	}
	if len(rows) == 0 {
		return nil, errs.Validation("no valid products found in CSV file")
	}

	roles := positionalRoles()
	start := 0
	if hasHeader(rows[0]) {
		roles = headerRoles(rows[0])
		start = 1
	}

	var records []models.ProductRecord
	for _, row := range rows[start:] {
		rec := buildRecord(row, roles)
		if len(rec.ImageURLs) == 0 {
			// Documented behavior: zero-image rows are skipped without a
			// per-row error.
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, errs.Validation("no valid products found in CSV file")
	}
	return records, nil
}

// sniffDelimiter inspects a content sample and picks the rune that splits
// the first line most often.
func sniffDelimiter(content string) rune {
	sample := content
	if idx := strings.IndexByte(sample, '\n'); idx >= 0 {
		sample = sample[:idx]
	}
	best, bestCount := ',', strings.Count(sample, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(sample, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// hasHeader reports whether the first row looks like column names: no cell
// parses as a number and at least one known role keyword appears.
func hasHeader(row []string) bool {
	keyword := false
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			return false
		}
		lower := strings.ToLower(cell)
		for _, kw := range []string{"image", "url", "title", "brand", "price", "description", "currency", "discount"} {
			if strings.Contains(lower, kw) {
				keyword = true
			}
		}
	}
	return keyword
}

// headerRoles resolves column roles by case-insensitive substring match on
// header names.
func headerRoles(header []string) columnRoles {
	roles := newColumnRoles()
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		switch {
		case strings.Contains(lower, "image") || strings.Contains(lower, "url"):
			roles.images = append(roles.images, i)
		case strings.Contains(lower, "product title"):
			roles.title = i
		case strings.Contains(lower, "product description"):
			roles.description = i
		case strings.Contains(lower, "brand"):
			roles.brand = i
		case strings.Contains(lower, "currency"):
			roles.currency = i
		case strings.Contains(lower, "discount"):
			roles.discount = i
		case strings.Contains(lower, "original") && strings.Contains(lower, "price"):
			roles.origPrice = i
		case strings.Contains(lower, "price"):
			roles.price = i
		}
	}
	return roles
}

func buildRecord(row []string, roles columnRoles) models.ProductRecord {
	rec := models.ProductRecord{
		Title:       cell(row, roles.title),
		Brand:       cell(row, roles.brand),
		Price:       cell(row, roles.price),
		OrigPrice:   cell(row, roles.origPrice),
		Currency:    cell(row, roles.currency),
		Discount:    cell(row, roles.discount),
		Description: cell(row, roles.description),
	}
	for _, col := range roles.images {
		v := cell(row, col)
		if usableImageURL(v) {
			rec.ImageURLs = append(rec.ImageURLs, v)
		}
	}
	return rec
}

// usableImageURL keeps values that point at a fetchable still image.
func usableImageURL(v string) bool {
	return strings.HasPrefix(v, "http") && !strings.HasSuffix(v, ".mp4")
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
