package slot

import "regexp"

const (
	zhPlace = `([\p{Han}A-Za-z][\p{Han}A-Za-z ]{0,14}?)`
	zhStop  = `\s*(?:出发|到|去|飞|前往|玩|旅游|旅行|游玩|度假|出差|看看|待|住|[,，。！!？?、；;]|\d|[一二三四五六七八九十两]|$)`

	zhAmount   = `(?P<amount>\d+(?:,\d{3})*(?:\.\d+)?)`
	zhMag      = `\s*(?P<mag>万|千)?`
	zhCurrency = `(?:元|块|人民币|港币|港元|日元|美元|美金|新币|新加坡元)`
)

var chineseRules = register(&RuleSet{
	Locale: "zh",
	Departure: []*regexp.Regexp{
		regexp.MustCompile(`从\s*` + zhPlace + zhStop),
		regexp.MustCompile(`出发地\s*[:：是为]?\s*` + zhPlace + zhStop),
		regexp.MustCompile(`始发\s*[:：]?\s*` + zhPlace + zhStop),
	},
	Destination: []*regexp.Regexp{
		regexp.MustCompile(`(?:去|到|前往|飞往)\s*` + zhPlace + zhStop),
		regexp.MustCompile(`目的地\s*[:：是为]?\s*` + zhPlace + zhStop),
	},
	Days: []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(?:天|日)(?:[^元]|$)`),
		regexp.MustCompile(`玩\s*(\d+)\s*(?:天|日)`),
	},
	People: []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(?:个|位|名)?\s*(?:大人|成人|游客|人(?:[^民]|$))`),
		regexp.MustCompile(`(\d+)\s*口人`),
	},
	Budget: []*regexp.Regexp{
		regexp.MustCompile(`预算\s*(?:是|为|大概|大约|约|有)?\s*[:：]?\s*` + zhAmount + zhMag + `\s*` + zhCurrency + `?`),
		regexp.MustCompile(zhAmount + zhMag + `\s*` + zhCurrency),
		regexp.MustCompile(zhAmount + `\s*(?P<mag>万|千)`),
		regexp.MustCompile(`(?i)` + zhAmount + `\s*(?:USD|CNY|RMB|HKD|JPY|SGD)\b`),
	},
	Currencies: []CurrencyToken{
		{Pattern: regexp.MustCompile(`美元|美金|(?i:USD)`), Code: "USD"},
		{Pattern: regexp.MustCompile(`港币|港元|(?i:HKD)`), Code: "HKD"},
		{Pattern: regexp.MustCompile(`日元|(?i:JPY)`), Code: "JPY"},
		{Pattern: regexp.MustCompile(`新币|新加坡元|(?i:SGD)`), Code: "SGD"},
		{Pattern: regexp.MustCompile(`人民币|元|块|(?i:CNY|RMB)`), Code: "CNY"},
	},
	Magnitudes: map[string]float64{"万": 10000, "千": 1000},
	Stopwords: stopwords(
		"那里", "哪里", "这里", "那儿", "哪儿", "外地", "国外", "旅游", "旅行", "玩", "看看",
	),
})
