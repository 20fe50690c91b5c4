package slot

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tbxark/travelpilot/types"
)

// CurrencyToken maps a token found inside a budget match to a currency code.
type CurrencyToken struct {
	Pattern *regexp.Regexp
	Code    string
}

// RuleSet is the ordered pattern table of one locale. Tables of different
// locales are never combined.
type RuleSet struct {
	Locale string

	// Place rules capture the value in group 1.
	Departure   []*regexp.Regexp
	Destination []*regexp.Regexp
	// Count rules capture an integer in group 1.
	Days   []*regexp.Regexp
	People []*regexp.Regexp
	// Budget rules capture the number in the "amount" group and an optional
	// multiplier word in the "mag" group.
	Budget []*regexp.Regexp

	Currencies []CurrencyToken
	Magnitudes map[string]float64
	// Stopwords reject a place capture whose first word is one of them.
	Stopwords map[string]struct{}
}

var ruleSets = map[string]*RuleSet{}

func register(rs *RuleSet) *RuleSet {
	ruleSets[rs.Locale] = rs
	return rs
}

// RulesFor returns the rule table registered for locale.
func RulesFor(locale string) (*RuleSet, error) {
	rs, ok := ruleSets[strings.ToLower(locale)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	return rs, nil
}

// Locales lists the registered locales.
func Locales() []string {
	out := make([]string, 0, len(ruleSets))
	for k := range ruleSets {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

type RuleExtractor struct {
	rules *RuleSet
}

func NewRuleExtractor(locale string) (*RuleExtractor, error) {
	rs, err := RulesFor(locale)
	if err != nil {
		return nil, err
	}
	return &RuleExtractor{rules: rs}, nil
}

func (e *RuleExtractor) Locale() string {
	return e.rules.Locale
}

func (e *RuleExtractor) Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error) {
	text = strings.TrimSpace(text)
	out := types.TravelSlots{}
	if utf8.RuneCountInString(text) < 2 {
		return out, nil
	}
	rs := e.rules
	if existing.Departure == nil {
		if v, ok := rs.matchPlace(rs.Departure, text); ok {
			out.Departure = &v
		}
	}
	if existing.Destination == nil {
		if v, ok := rs.matchPlace(rs.Destination, text); ok {
			out.Destination = &v
		}
	}
	if existing.NumDays == nil {
		if v, ok := matchCount(rs.Days, text, validDays); ok {
			out.NumDays = &v
		}
	}
	if existing.NumPeople == nil {
		if v, ok := matchCount(rs.People, text, validPeople); ok {
			out.NumPeople = &v
		}
	}
	if existing.Budget == nil {
		if amount, currency, ok := rs.matchBudget(text); ok {
			out.Budget = &amount
			out.Currency = currency
		}
	}
	slog.Debug("Rule extraction", "locale", rs.Locale, "found", types.SlotRows(out))
	return out, nil
}

// eachMatch calls fn with the submatches of every match of re in text, left
// to right, until fn returns true. The scan resumes right after group 1 so a
// rejected capture does not swallow the next candidate.
func eachMatch(re *regexp.Regexp, text string, fn func(text string, loc []int) bool) {
	offset := 0
	for offset <= len(text) {
		loc := re.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			return
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += offset
			}
		}
		if fn(text, loc) {
			return
		}
		next := loc[1]
		if len(loc) >= 4 && loc[3] > loc[0] {
			next = loc[3]
		}
		if next <= offset {
			_, size := utf8.DecodeRuneInString(text[offset:])
			next = offset + max(size, 1)
		}
		offset = next
	}
}

func group(text string, loc []int, i int) string {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return ""
	}
	return text[loc[2*i]:loc[2*i+1]]
}

func (rs *RuleSet) matchPlace(rules []*regexp.Regexp, text string) (string, bool) {
	for _, re := range rules {
		var found string
		eachMatch(re, text, func(text string, loc []int) bool {
			v := cleanPlace(group(text, loc, 1))
			if !rs.acceptPlace(v) {
				return false
			}
			found = v
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func cleanPlace(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimRight(v, ",.，。 \t")
	return strings.Join(strings.Fields(v), " ")
}

func (rs *RuleSet) acceptPlace(v string) bool {
	n := utf8.RuneCountInString(v)
	if n == 0 || n >= 30 {
		return false
	}
	fields := strings.Fields(strings.ToLower(v))
	if len(fields) == 0 {
		return false
	}
	if _, stop := rs.Stopwords[fields[0]]; stop {
		return false
	}
	if _, stop := rs.Stopwords[strings.ToLower(v)]; stop {
		return false
	}
	return true
}

func matchCount(rules []*regexp.Regexp, text string, valid func(int) bool) (int, bool) {
	for _, re := range rules {
		found, ok := 0, false
		eachMatch(re, text, func(text string, loc []int) bool {
			n, err := strconv.Atoi(group(text, loc, 1))
			if err != nil || !valid(n) {
				return false
			}
			found, ok = n, true
			return true
		})
		if ok {
			return found, true
		}
	}
	return 0, false
}

func (rs *RuleSet) matchBudget(text string) (float64, string, bool) {
	for _, re := range rs.Budget {
		amountIdx := re.SubexpIndex("amount")
		magIdx := re.SubexpIndex("mag")
		var (
			amount   float64
			currency string
			ok       bool
		)
		eachMatch(re, text, func(text string, loc []int) bool {
			raw := strings.ReplaceAll(group(text, loc, amountIdx), ",", "")
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return false
			}
			if magIdx > 0 {
				if m := group(text, loc, magIdx); m != "" {
					if mul, found := rs.Magnitudes[strings.ToLower(m)]; found {
						v *= mul
					}
				}
			}
			v = math.Floor(v)
			if !validBudget(v) {
				return false
			}
			amount, currency, ok = v, rs.detectCurrency(text[loc[0]:loc[1]]), true
			return true
		})
		if ok {
			return amount, currency, true
		}
	}
	return 0, "", false
}

func (rs *RuleSet) detectCurrency(matched string) string {
	for _, tok := range rs.Currencies {
		if tok.Pattern.MatchString(matched) {
			return tok.Code
		}
	}
	return types.DefaultCurrency
}

func stopwords(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
