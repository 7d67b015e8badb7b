// Package report assembles the tabular listing report delivered alongside
// the generated images: one spreadsheet row per product with its analyzed
// copy and the saved artifact URLs.
package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oselle/lookbook-api/internal/domain"
)

const sheetName = "Listing"

// viewColumns maps result views to their report column, in column order.
var viewColumns = []struct {
	view   domain.View
	header string
}{
	{domain.ViewFrontside, "Front View URL"},
	{domain.ViewBackside, "Back View URL"},
	{domain.ViewSideview, "Side View URL"},
}

// Builder renders product listing spreadsheets.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a report builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger}
}

// CreateReport renders one listing row for the product. imageURLs is keyed by
// slot name (e.g. "frontside_studio"); the first URL per view fills that
// view's column. Returns the encoded .xlsx bytes.
func (b *Builder) CreateReport(
	product domain.ProductData,
	imageURLs map[string]string,
	videoURL string,
) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			b.logger.Warn("failed to close spreadsheet file", "error", err)
		}
	}()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create report sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"SKU_ID", "Description", "Key Features", "Search Keywords"}
	values := []string{
		product.SKUID,
		product.Description,
		strings.Join(product.KeyFeatures, ", "),
		strings.Join(product.SearchKeywords, ", "),
	}

	for _, vc := range viewColumns {
		headers = append(headers, vc.header)
		values = append(values, firstURLForView(imageURLs, vc.view))
	}
	headers = append(headers, "Video URL")
	values = append(values, videoURL)

	for col := range headers {
		hCell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, hCell, headers[col]); err != nil {
			return nil, fmt.Errorf("failed to write header %q: %w", headers[col], err)
		}

		vCell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve value cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, vCell, values[col]); err != nil {
			return nil, fmt.Errorf("failed to write value for %q: %w", headers[col], err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	b.logger.Debug("report assembled", "sku_id", product.SKUID, "columns", len(headers))
	return buf.Bytes(), nil
}

// firstURLForView picks the slot URL belonging to the view, preferring the
// plain studio shot, then the lexicographically first variation.
func firstURLForView(imageURLs map[string]string, view domain.View) string {
	if url, ok := imageURLs[string(view)+"_studio"]; ok {
		return url
	}

	prefix := string(view) + "_"
	var bestName, bestURL string
	for name, url := range imageURLs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if bestName == "" || name < bestName {
			bestName, bestURL = name, url
		}
	}
	return bestURL
}
