// Package classification separates recurring fixed expenses from variable spending.
package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern describes a family of merchants that bill on a recurring schedule.
type Pattern struct {
	Name     string
	Category string // Category reported for fixed expenses matched by this pattern
	Regex    string
	Priority int // Higher priority patterns are checked first
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// PatternDetector recognizes recurring-expense merchants by name or merchant category code.
// It is immutable after construction and safe for concurrent use.
type PatternDetector struct {
	mccs     map[string]string
	patterns []CompiledPattern
}

// Match represents a pattern match result.
type Match struct {
	PatternName string
	Category    string
	ByMCC       bool
}

// NewPatternDetector creates a detector from keyword patterns and a fixed-expense MCC table
// mapping each code to its category.
func NewPatternDetector(patterns []Pattern, mccs map[string]string) (*PatternDetector, error) {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	codes := make(map[string]string, len(mccs))
	for code, category := range mccs {
		codes[strings.TrimSpace(code)] = category
	}

	return &PatternDetector{
		patterns: compiled,
		mccs:     codes,
	}, nil
}

func compilePatterns(patterns []Pattern) ([]CompiledPattern, error) {
	compiled := make([]CompiledPattern, 0, len(patterns))

	for _, p := range patterns {
		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr // Make case-insensitive by default
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regex,
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return compiled, nil
}

// Detect checks a merchant name and MCC against the recurring-expense catalog.
// Name patterns win over the MCC table. A nil result means no match.
func (pd *PatternDetector) Detect(merchant, mcc string) *Match {
	if merchant != "" {
		for _, pattern := range pd.patterns {
			if pattern.compiledRegex.MatchString(merchant) {
				return &Match{
					PatternName: pattern.Name,
					Category:    pattern.Category,
				}
			}
		}
	}

	if category, ok := pd.mccs[strings.TrimSpace(mcc)]; ok && mcc != "" {
		return &Match{
			PatternName: "MCC " + strings.TrimSpace(mcc),
			Category:    category,
			ByMCC:       true,
		}
	}

	return nil
}

// GetPatternCount returns the number of loaded patterns.
func (pd *PatternDetector) GetPatternCount() int {
	return len(pd.patterns)
}
