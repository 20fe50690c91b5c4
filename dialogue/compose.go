package dialogue

import (
	"fmt"
	"strings"
)

// Phrases is the fixed text of one locale.
type Phrases struct {
	Locale   string
	Greeting string
	Ready    string
	// DispatchFailed and GenerationFailed take the failure description.
	DispatchFailed   string
	GenerationFailed string
	// PlanSaved takes the plan title.
	PlanSaved        string

	header   string
	tip      string
	labels   map[string]string
	examples map[string]string
}

var english = &Phrases{
	Locale:           "en",
	Greeting:         "I'm TravelPilot! Describe your trip and I'll build a fully personalised itinerary in seconds. Tell me where you're leaving from, where you want to go, for how many days and people, and your budget. The more detail the better 📤",
	Ready:            "✅ Got everything I need. Generating your detailed itinerary now, this can take a minute...",
	DispatchFailed:   "Sorry, the request failed: %s",
	GenerationFailed: "❌ Itinerary generation failed: %s",
	PlanSaved:        "📌 Saved your plan \"%s\".",
	header:           "📋 To generate your detailed travel itinerary, please provide the following information:\n\n",
	tip:              "\n💡 Tip: You can provide all information at once or in multiple messages.",
	examples: map[string]string{
		"Departure location": "e.g., from Hong Kong, from Beijing",
		"Destination":        "e.g., to Osaka, to Tokyo, destination: Seoul",
		"Number of days":     "e.g., 7 days, 5-day trip, 3 days",
		"Number of people":   "e.g., 2 people, 3 people, 4 people",
		"Total budget":       "e.g., 5000 CNY, 10000 CNY, budget 8000",
	},
}

var chinese = &Phrases{
	Locale:           "zh",
	Greeting:         "我是TravelPilot！只需描述您的旅行，我将为您创建一个完全个性化的梦想假期，您的假期就在几秒钟之遥。请告诉我您想去的地点、时间和预算？越详细越好📤",
	Ready:            "✅ 信息已齐全，正在为您生成详细行程，请稍候……",
	DispatchFailed:   "抱歉，请求失败: %s",
	GenerationFailed: "❌ 行程生成失败: %s",
	PlanSaved:        "📌 已保存行程「%s」。",
	header:           "📋 为了生成详细的旅行行程，请提供以下信息：\n\n",
	tip:              "\n💡 提示：您可以一次性提供所有信息，也可以分多条消息提供。",
	labels: map[string]string{
		"Departure location": "出发地",
		"Destination":        "目的地",
		"Number of days":     "天数",
		"Number of people":   "人数",
		"Total budget":       "总预算",
	},
	examples: map[string]string{
		"Departure location": "例如：从香港出发、从北京出发",
		"Destination":        "例如：去大阪、去东京、目的地：首尔",
		"Number of days":     "例如：7天、5天、3天",
		"Number of people":   "例如：2个人、3个人、4个人",
		"Total budget":       "例如：5000元、10000元、预算8000",
	},
}

var phraseBook = map[string]*Phrases{"en": english, "zh": chinese}

// PhrasesFor returns the phrase table of locale, falling back to English.
func PhrasesFor(locale string) *Phrases {
	if p, ok := phraseBook[strings.ToLower(locale)]; ok {
		return p
	}
	return english
}

func (p *Phrases) label(field string) string {
	if l, ok := p.labels[field]; ok {
		return l
	}
	return field
}

// Compose lists the missing fields, one numbered line each with an example.
// It returns "" when nothing is missing.
func (p *Phrases) Compose(missingFields []string) string {
	if len(missingFields) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.header)
	for i, field := range missingFields {
		sb.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, p.label(field), p.examples[field]))
	}
	sb.WriteString(p.tip)
	return sb.String()
}

// Compose is the English composer.
func Compose(missingFields []string) string {
	return english.Compose(missingFields)
}
