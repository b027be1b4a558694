package classification

// Categories reported for recurring expenses.
const (
	CategoryHousing       = "Housing"
	CategoryStreaming     = "Streaming"
	CategoryUtilities     = "Utilities"
	CategoryTelecom       = "Telecom"
	CategoryInsurance     = "Insurance"
	CategoryFitness       = "Fitness"
	CategorySubscriptions = "Subscriptions"
	CategoryLoans         = "Loans"
)

// DefaultRecurringPatterns returns the merchant keyword patterns that indicate a recurring bill.
// Keywords match anywhere in the name, so run-together descriptions like
// "SPOTIFYUSA" still match. Short ambiguous tokens (RENT, HOA, ATT, CON ED)
// require word boundaries.
func DefaultRecurringPatterns() []Pattern {
	return []Pattern{
		{
			Name:     "Rent",
			Category: CategoryHousing,
			Regex:    `RENTPAY|APARTMENT|PROPERTY\s*(MGMT|MANAGEMENT)|\b(RENT|HOA)\b`,
			Priority: 100,
		},
		{
			Name:     "Mortgage",
			Category: CategoryHousing,
			Regex:    `MORTGAGE|MTG\s*PMT|HOME\s*LOAN`,
			Priority: 100,
		},
		{
			Name:     "Streaming",
			Category: CategoryStreaming,
			Regex:    `NETFLIX|SPOTIFY|HULU|DISNEY\s*(PLUS|\+)|HBO|MAX\.COM|PARAMOUNT|PEACOCK|YOUTUBE\s*(PREMIUM|TV)|APPLE\s*(MUSIC|TV)|PRIME\s*VIDEO|AUDIBLE|SIRIUSXM|STREAMING`,
			Priority: 90,
		},
		{
			Name:     "Utilities",
			Category: CategoryUtilities,
			Regex:    `UTILIT(Y|IES)|ELECTRIC|POWER\s*CO\b|WATER\s*(DEPT|UTIL|BILL)|SEWER|NATURAL\s*GAS|PG&E|ENERGY|\bCON\s*ED\b`,
			Priority: 85,
		},
		{
			Name:     "Telecom",
			Category: CategoryTelecom,
			Regex:    `VERIZON|AT&T|T-?MOBILE|SPRINT|COMCAST|XFINITY|SPECTRUM|COX\s*COMM|INTERNET|WIRELESS|BROADBAND|TELECOM|CABLE|\bATT\b`,
			Priority: 85,
		},
		{
			Name:     "Insurance",
			Category: CategoryInsurance,
			Regex:    `INSURANCE|INS\s*PREM|GEICO|STATE\s*FARM|PROGRESSIVE|ALLSTATE|LIBERTY\s*MUTUAL|USAA|LEMONADE`,
			Priority: 80,
		},
		{
			Name:     "Gym",
			Category: CategoryFitness,
			Regex:    `GYM|FITNESS|EQUINOX|PELOTON|CROSSFIT|YMCA`,
			Priority: 75,
		},
		{
			Name:     "Loan",
			Category: CategoryLoans,
			Regex:    `STUDENT\s*LOAN|AUTO\s*LOAN|CAR\s*PAYMENT|NAVIENT|NELNET|SALLIE\s*MAE`,
			Priority: 70,
		},
		{
			Name:     "Subscription",
			Category: CategorySubscriptions,
			Regex:    `SUBSCR|MEMBERSHIP|MONTHLY\s*PLAN|PATREON|ICLOUD|GOOGLE\s*STORAGE|DROPBOX|ADOBE|MICROSOFT\s*365|GITHUB`,
			Priority: 60,
		},
	}
}

// DefaultFixedMCCs maps merchant category codes of recurring billers to a category.
func DefaultFixedMCCs() map[string]string {
	return map[string]string{
		"4812": CategoryTelecom,       // Telecommunication equipment and telephone sales
		"4814": CategoryTelecom,       // Telecommunication services
		"4899": CategoryTelecom,       // Cable, satellite and other pay television
		"4900": CategoryUtilities,     // Utilities: electric, gas, water, sanitary
		"5960": CategoryInsurance,     // Direct marketing: insurance services
		"5968": CategorySubscriptions, // Direct marketing: continuity/subscription merchants
		"6300": CategoryInsurance,     // Insurance sales, underwriting and premiums
	}
}
