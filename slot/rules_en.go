package slot

import "regexp"

const (
	enPlace = `([A-Za-z][A-Za-z ]{1,29}?)`
	enStop  = `(?:\s+(?:for|from|with|on|in|and|to|by|at|during|next|this|around)\b|\s*[,.!?;:]|\s*\d|\s*$)`

	enAmount   = `(?P<amount>\d+(?:,\d{3})*(?:\.\d+)?)`
	enMag      = `(?:\s*(?P<mag>k|thousand)\b)?`
	enCurrency = `(?:USD|CNY|RMB|HKD|JPY|SGD)\b`
)

func enPlaceRule(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + prefix + enPlace + enStop)
}

var englishRules = register(&RuleSet{
	Locale: "en",
	Departure: []*regexp.Regexp{
		enPlaceRule(`\bfrom\s+`),
		enPlaceRule(`\bdeparture[:\s]+`),
		enPlaceRule(`\bdeparting\s+from\s+`),
		enPlaceRule(`\bleaving\s+from\s+`),
		enPlaceRule(`\borigin[:\s]+`),
	},
	Destination: []*regexp.Regexp{
		enPlaceRule(`\bto\s+`),
		enPlaceRule(`\bdestination[:\s]+`),
		enPlaceRule(`\bgoing\s+to\s+`),
		enPlaceRule(`\btravell?ing\s+to\s+`),
		enPlaceRule(`\bvisiting\s+`),
		enPlaceRule(`\btrip\s+to\s+`),
	},
	Days: []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*days?\b`),
		regexp.MustCompile(`(?i)(\d+)\s*-\s*day\b`),
		regexp.MustCompile(`(?i)\bduration[:\s]+(\d+)`),
		regexp.MustCompile(`(?i)\btrip\s+of\s+(\d+)`),
	},
	People: []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*(?:people|persons?|travell?ers?|guests?|adults?|pax)\b`),
		regexp.MustCompile(`(?i)\bgroup\s+of\s+(\d+)`),
		regexp.MustCompile(`(?i)\bparty\s+of\s+(\d+)`),
	},
	Budget: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\$\s*` + enAmount + enMag),
		regexp.MustCompile(`(?i)` + enAmount + enMag + `\s*` + enCurrency),
		regexp.MustCompile(`(?i)\bbudget(?:\s+(?:of|is))?[:\s]+(?:\$\s*)?` + enAmount + enMag + `(?:\s*` + enCurrency + `)?`),
		regexp.MustCompile(`(?i)` + enAmount + `\s*(?P<mag>k|thousand)\b(?:\s*` + enCurrency + `)?`),
	},
	Currencies: []CurrencyToken{
		{Pattern: regexp.MustCompile(`(?i)\bUSD\b`), Code: "USD"},
		{Pattern: regexp.MustCompile(`(?i)\bHKD\b`), Code: "HKD"},
		{Pattern: regexp.MustCompile(`(?i)\bJPY\b`), Code: "JPY"},
		{Pattern: regexp.MustCompile(`(?i)\bSGD\b`), Code: "SGD"},
		{Pattern: regexp.MustCompile(`\$`), Code: "USD"},
		{Pattern: regexp.MustCompile(`(?i)\b(?:CNY|RMB)\b`), Code: "CNY"},
	},
	Magnitudes: map[string]float64{"k": 1000, "thousand": 1000},
	Stopwords: stopwords(
		"go", "goes", "going", "travel", "travelling", "traveling", "visit", "be", "have",
		"see", "do", "explore", "spend", "stay", "make", "get", "plan", "book", "leave",
		"fly", "take", "try", "find", "start", "return", "come", "help", "know",
		"me", "my", "us", "our", "you", "your", "it", "this", "that", "there", "here",
		"a", "an", "somewhere", "anywhere",
	),
})
