// Package validation provides user input validation for the rxprice API.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Search input: alphanumeric plus the punctuation that occurs in
	// cleaned RxNorm names (strengths, percentages, slashes, braces)
	searchRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'/%,\(\)\{\}]+$`)

	// Rxcui: digits, optionally behind the reserved unmatched prefix
	rxcuiRegex = regexp.MustCompile(`^\d{1,10}$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateSearchText validates free-text search input
func (v *DataValidatorImpl) ValidateSearchText(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil // empty search disables the predicate
	}

	if len(input) > 200 {
		return fmt.Errorf("search text too long: %d characters (max 200)", len(input))
	}

	lowered := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			logging.Warn("Dangerous pattern in search input", "pattern", pattern)
			return fmt.Errorf("search text contains invalid sequence")
		}
	}

	if !searchRegex.MatchString(input) {
		return fmt.Errorf("search text contains invalid characters")
	}

	return nil
}

// ValidateRxcui validates an rxcui path parameter. The reserved unmatched
// prefix is allowed: unmatched records are addressable like any other.
func (v *DataValidatorImpl) ValidateRxcui(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("rxcui cannot be empty")
	}

	bare := strings.TrimPrefix(input, entities.UnmatchedPrefix)
	if !rxcuiRegex.MatchString(bare) {
		return "", fmt.Errorf("invalid rxcui: %s", input)
	}

	return input, nil
}

// ValidatePageNumber parses and validates a page number parameter
func (v *DataValidatorImpl) ValidatePageNumber(input string) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("page number must be a valid number: %w", err)
	}

	if page < 1 {
		return 0, fmt.Errorf("page number must be at least 1, got: %d", page)
	}

	if page > 1000000 {
		return 0, fmt.Errorf("page number too large: %d", page)
	}

	return page, nil
}
