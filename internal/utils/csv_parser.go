package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"tax-credit-engine/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns defines the columns that must be present in the CSV.
var RequiredColumns = []string{
	"taxpayer_id",
	"gross_income",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	// taxpayer_id aliases
	"taxpayerid":  "taxpayer_id",
	"taxpayer id": "taxpayer_id",
	"pan":         "taxpayer_id",
	"user_id":     "taxpayer_id",
	"userid":      "taxpayer_id",
	"customer_id": "taxpayer_id",
	"id":          "taxpayer_id",

	// email aliases
	"emailaddress":  "email",
	"email_address": "email",
	"mail":          "email",

	// name aliases
	"full_name": "name",
	"fullname":  "name",

	// income aliases
	"income":         "gross_income",
	"grossincome":    "gross_income",
	"gross income":   "gross_income",
	"annual_income":  "gross_income",
	"annualincome":   "gross_income",
	"annual income":  "gross_income",
	"salary":         "gross_income",
	"monthly_income": "gross_income", // Multiplied by 12
	"monthlyincome":  "gross_income",
	"monthly income": "gross_income",
	"monthly_salary": "gross_income",
}

// CSVParser handles parsing of taxpayer CSV files.
type CSVParser struct {
	columnMapping   map[string]int
	originalHeaders map[string]string // Maps normalized column name to original header
	deductionCols   map[models.DeductionSection][]int // Alias columns of one section are summed
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping:   make(map[string]int),
		originalHeaders: make(map[string]string),
		deductionCols:   make(map[models.DeductionSection][]int),
	}
}

// ParseProfiles parses CSV content into taxpayer profiles. Rows that fail to
// parse or validate are reported with their line number and skipped.
func (p *CSVParser) ParseProfiles(content string, batchID string) ([]*models.TaxProfile, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var profiles []*models.TaxProfile
	var parseErrors []error
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		profile, err := p.parseRow(record, batchID)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		if err := models.ValidateTaxProfile(profile); err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		profiles = append(profiles, profile)
	}

	if len(profiles) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return profiles, parseErrors
}

// normalizeHeader lowercases a header and applies ColumnAliases.
func normalizeHeader(col string) (normalized, original string) {
	original = strings.ToLower(strings.TrimSpace(col))
	normalized = original
	if alias, ok := ColumnAliases[normalized]; ok {
		normalized = alias
	}
	return normalized, original
}

// deductionColumn recognises "80c", "deduction_80c", "deductions 80D", "hra" and so on.
func deductionColumn(header string) (models.DeductionSection, bool) {
	trimmed := strings.TrimPrefix(header, "deductions")
	trimmed = strings.TrimPrefix(trimmed, "deduction")
	section := models.NormalizeDeductionSection(strings.Trim(trimmed, " _-"))
	return section, section.IsValid()
}

func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)
	p.originalHeaders = make(map[string]string)
	p.deductionCols = make(map[models.DeductionSection][]int)

	for i, col := range header {
		normalized, original := normalizeHeader(col)

		if section, ok := deductionColumn(original); ok {
			p.deductionCols[section] = append(p.deductionCols[section], i)
			continue
		}

		p.columnMapping[normalized] = i
		p.originalHeaders[normalized] = original
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

func (p *CSVParser) parseRow(record []string, batchID string) (*models.TaxProfile, error) {
	cell := func(idx int) string {
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	getValue := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok {
			return ""
		}
		return cell(idx)
	}

	taxpayerID := getValue("taxpayer_id")

	income, err := parseAmount(getValue("gross_income"))
	if err != nil {
		return nil, fmt.Errorf("invalid gross_income: %w", err)
	}
	if strings.Contains(p.originalHeaders["gross_income"], "monthly") {
		income *= 12
	}

	deductions := make(models.DeductionBreakdown, len(p.deductionCols))
	for section, indexes := range p.deductionCols {
		for _, idx := range indexes {
			raw := cell(idx)
			if raw == "" {
				continue
			}
			amount, err := parseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid deduction %s: %w", section, err)
			}
			if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
				return nil, fmt.Errorf("deduction %s must be a non-negative amount, got %q", section, raw)
			}
			deductions[section] += amount
		}
	}

	return &models.TaxProfile{
		TaxpayerID:  taxpayerID,
		Email:       getValue("email"),
		Name:        getValue("name"),
		GrossIncome: income,
		Deductions:  deductions,
		BatchID:     batchID,
	}, nil
}

// parseAmount parses a rupee amount, tolerating grouping commas and currency symbols.
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)

	return strconv.ParseFloat(s, 64)
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) (*CSVValidationResult, error) {
	result := &CSVValidationResult{
		Columns:           []string{},
		MissingColumns:    []string{},
		DeductionSections: []string{},
		Errors:            []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result, nil
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result, nil
	}

	normalizedColumns := make(map[string]bool)
	seenSections := make(map[models.DeductionSection]bool)
	for _, col := range header {
		normalized, original := normalizeHeader(col)
		if section, ok := deductionColumn(original); ok && !seenSections[section] {
			seenSections[section] = true
			result.DeductionSections = append(result.DeductionSections, string(section))
		}
		normalizedColumns[normalized] = true
		result.Columns = append(result.Columns, col)
	}

	for _, required := range RequiredColumns {
		if !normalizedColumns[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		result.RowCount++
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result, nil
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid             bool     `json:"valid"`
	RowCount          int      `json:"row_count"`
	Columns           []string `json:"columns"`
	MissingColumns    []string `json:"missing_columns"`
	DeductionSections []string `json:"deduction_sections"`
	Errors            []string `json:"errors"`
}
