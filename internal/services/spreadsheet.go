package services

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/mystocks/internal/models"
)

const portfolioSheet = "Portfolio"

var spreadsheetHeader = []interface{}{"Symbol", "Quantity"}

// WritePortfolio builds an xlsx workbook with the header row and one row per
// entry. The caller owns the returned file and must Close it.
func WritePortfolio(entries []models.PortfolioEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", portfolioSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(portfolioSheet, "A1", &spreadsheetHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to locate row %d: %w", i+2, err)
		}
		row := []interface{}{entry.Symbol, entry.Quantity}
		if err := f.SetSheetRow(portfolioSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// WriteTemplate builds a workbook containing only the header row.
func WriteTemplate() (*excelize.File, error) {
	return WritePortfolio(nil)
}

// ParsePortfolio reads an uploaded workbook back into id-less entries. The
// first row must name a Symbol and a Quantity column, case-insensitively and
// in any order. Rows with a blank symbol or a non-numeric quantity are
// skipped; they never fail the import.
func ParsePortfolio(r io.Reader) ([]models.PortfolioEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("could not read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet has no rows")
	}

	symbolCol, quantityCol := -1, -1
	for i, name := range rows[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(name), "Symbol"):
			symbolCol = i
		case strings.EqualFold(strings.TrimSpace(name), "Quantity"):
			quantityCol = i
		}
	}
	if symbolCol < 0 || quantityCol < 0 {
		return nil, fmt.Errorf(`header row must contain "Symbol" and "Quantity" columns`)
	}

	var entries []models.PortfolioEntry
	for i, row := range rows[1:] {
		symbol := cellAt(row, symbolCol)
		if symbol == "" {
			log.Printf("skipping spreadsheet row %d: blank symbol", i+2)
			continue
		}
		quantity, err := strconv.ParseFloat(cellAt(row, quantityCol), 64)
		if err != nil {
			log.Printf("skipping spreadsheet row %d: bad quantity for %s", i+2, symbol)
			continue
		}
		entries = append(entries, models.PortfolioEntry{Symbol: symbol, Quantity: quantity})
	}
	return entries, nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
