package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPatternDetector(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		patterns []Pattern
		wantErr  bool
	}{
		{
			name: "valid patterns",
			patterns: []Pattern{
				{Name: "Streaming", Category: CategoryStreaming, Regex: `NETFLIX`, Priority: 90},
				{Name: "Gym", Category: CategoryFitness, Regex: `GYM`, Priority: 50},
			},
		},
		{
			name: "invalid regex",
			patterns: []Pattern{
				{Name: "Bad Pattern", Regex: `[invalid regex`, Priority: 100},
			},
			wantErr: true,
			errMsg:  "failed to compile pattern",
		},
		{
			name:     "empty patterns",
			patterns: []Pattern{},
		},
		{
			name: "patterns sorted by priority",
			patterns: []Pattern{
				{Name: "Low Priority", Regex: `LOW`, Priority: 10},
				{Name: "High Priority", Regex: `HIGH`, Priority: 100},
				{Name: "Medium Priority", Regex: `MEDIUM`, Priority: 50},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd, err := NewPatternDetector(tt.patterns, nil)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, pd)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, pd)
			assert.Equal(t, len(tt.patterns), pd.GetPatternCount())

			for i := 0; i < len(pd.patterns)-1; i++ {
				assert.GreaterOrEqual(t, pd.patterns[i].Priority, pd.patterns[i+1].Priority)
			}
		})
	}
}

func TestPatternDetector_Detect(t *testing.T) {
	pd, err := NewPatternDetector(DefaultRecurringPatterns(), DefaultFixedMCCs())
	require.NoError(t, err)

	tests := []struct {
		wantMatch *Match
		name      string
		merchant  string
		mcc       string
	}{
		{
			name:      "streaming service",
			merchant:  "NETFLIX.COM",
			wantMatch: &Match{PatternName: "Streaming", Category: CategoryStreaming},
		},
		{
			name:      "disney plus with symbol",
			merchant:  "Disney+",
			wantMatch: &Match{PatternName: "Streaming", Category: CategoryStreaming},
		},
		{
			name:      "rent payment",
			merchant:  "Oakwood Apartments Rent",
			wantMatch: &Match{PatternName: "Rent", Category: CategoryHousing},
		},
		{
			name:      "telecom",
			merchant:  "Verizon Wireless",
			wantMatch: &Match{PatternName: "Telecom", Category: CategoryTelecom},
		},
		{
			name:      "insurance",
			merchant:  "GEICO *AUTO",
			wantMatch: &Match{PatternName: "Insurance", Category: CategoryInsurance},
		},
		{
			name:      "gym membership",
			merchant:  "Planet Fitness",
			wantMatch: &Match{PatternName: "Gym", Category: CategoryFitness},
		},
		{
			name:      "brand run into region",
			merchant:  "SPOTIFYUSA",
			wantMatch: &Match{PatternName: "Streaming", Category: CategoryStreaming},
		},
		{
			name:      "brand run into domain",
			merchant:  "NETFLIXCOM",
			wantMatch: &Match{PatternName: "Streaming", Category: CategoryStreaming},
		},
		{
			name:      "insurer run into product",
			merchant:  "GEICOAUTO",
			wantMatch: &Match{PatternName: "Insurance", Category: CategoryInsurance},
		},
		{
			name:      "keyword inside a word",
			merchant:  "MYGYMPASS",
			wantMatch: &Match{PatternName: "Gym", Category: CategoryFitness},
		},
		{
			name:      "short token needs word boundaries",
			merchant:  "ATTIC STORAGE",
			wantMatch: nil,
		},
		{
			name:      "short token as a word",
			merchant:  "ATT*BILL PAYMENT",
			wantMatch: &Match{PatternName: "Telecom", Category: CategoryTelecom},
		},
		{
			name:      "word boundary prevents partial match",
			merchant:  "Parenting Magazine Store",
			wantMatch: nil,
		},
		{
			name:      "mcc fallback",
			merchant:  "ACME Holdings",
			mcc:       "4900",
			wantMatch: &Match{PatternName: "MCC 4900", Category: CategoryUtilities, ByMCC: true},
		},
		{
			name:      "name pattern wins over mcc",
			merchant:  "Spotify USA",
			mcc:       "6300",
			wantMatch: &Match{PatternName: "Streaming", Category: CategoryStreaming},
		},
		{
			name:      "unknown mcc",
			merchant:  "Corner Cafe",
			mcc:       "5812",
			wantMatch: nil,
		},
		{
			name:      "empty input",
			wantMatch: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, pd.Detect(tt.merchant, tt.mcc))
		})
	}
}
