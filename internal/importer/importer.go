// Package importer loads a website's catalogue from a CSV export.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter reads product rows and inserts or updates them by key.
//
// Columns: id, key, name, description, sku, price, currency, categories,
// image_url. price is in major units ("12.50"). categories is a
// semicolon-separated list of category keys. A row with only image_url set
// adds an image to the product above it.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	websiteID  string
	logger     *log.Logger

	seenCategories map[string]bool
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, websiteID string, logger *log.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CSVImporter{
		reader:         csvr,
		products:       products,
		categories:     categories,
		websiteID:      websiteID,
		logger:         logger,
		seenCategories: map[string]bool{},
	}
}

type csvRow struct {
	line       int
	ID         string
	Key        string
	Name       string
	Desc       string
	SKU        string
	Price      string
	Currency   string
	Categories []string
	ImageURLs  []string
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.line = line

		if row.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" || row.SKU == "" || row.Price == "" || row.Currency == "" {
		return fmt.Errorf("row %d: missing required fields for key %q", row.line, row.Key)
	}
	if row.ID != "" {
		if _, err := uuid.Parse(row.ID); err != nil {
			return fmt.Errorf("row %d: invalid id for key %q: %s", row.line, row.Key, row.ID)
		}
	}
	cents, err := parsePrice(row.Price)
	if err != nil {
		return fmt.Errorf("row %d: key %q: %w", row.line, row.Key, err)
	}

	attrs := map[string]interface{}{}
	if len(row.ImageURLs) > 0 {
		attrs[domain.AttrImages] = row.ImageURLs
	}
	if len(row.Categories) > 0 {
		attrs[domain.AttrCategories] = row.Categories
		if err := i.ensureCategories(ctx, row.Categories); err != nil {
			return err
		}
	}

	p := domain.Product{
		ID:          row.ID,
		WebsiteID:   i.websiteID,
		Key:         row.Key,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  cents,
		Currency:    strings.ToUpper(row.Currency),
		Attributes:  attrs,
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	return nil
}

func (i *CSVImporter) ensureCategories(ctx context.Context, keys []string) error {
	if i.categories == nil {
		return nil
	}
	for _, key := range keys {
		if i.seenCategories[key] {
			continue
		}
		_, err := i.categories.Upsert(ctx, domain.Category{
			WebsiteID: i.websiteID,
			Key:       key,
			Name:      categoryName(key),
			Slug:      key,
		})
		if err != nil {
			return fmt.Errorf("upsert category %q: %w", key, err)
		}
		i.seenCategories[key] = true
		i.logger.Printf("importer: category key=%s", key)
	}
	return nil
}

// parsePrice converts a positive major-unit amount with at most two
// decimals to cents.
func parsePrice(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("price must be positive, got %q", raw)
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("price %q has more than two decimals", raw)
	}
	return cents.IntPart(), nil
}

func categoryName(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' })
	for n, w := range words {
		words[n] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	key := pick(record, index, "key")
	imageURL := pick(record, index, "image_url")
	if key == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		ID:       pick(record, index, "id"),
		Key:      key,
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		SKU:      pick(record, index, "sku"),
		Price:    pick(record, index, "price"),
		Currency: pick(record, index, "currency"),
	}
	for _, c := range strings.Split(pick(record, index, "categories"), ";") {
		if c = strings.TrimSpace(c); c != "" {
			row.Categories = append(row.Categories, c)
		}
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
