package command

import (
	"context"
	"slices"
	"strings"
)

// LocalCommandParser matches the whole input against keyword lists.
type LocalCommandParser struct {
	ResetKeywords []string
	SaveKeywords  []string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		ResetKeywords: []string{"reset", "restart", "start over", "start again", "重新开始", "重来", "重置"},
		SaveKeywords:  []string{"save", "save plan", "save this plan", "save the plan", "保存", "保存行程"},
	}
}

func normalize(input string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(input)), " .!。！")
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	normalized := normalize(req.Input)
	switch {
	case slices.Contains(p.ResetKeywords, normalized):
		return Reset, nil
	case slices.Contains(p.SaveKeywords, normalized):
		return Save, nil
	default:
		return None, nil
	}
}

// FailbackCommandParser returns the answer of the first parser that does
// not fail.
type FailbackCommandParser struct {
	parsers []Parser
}

func NewFailbackCommandParser(parsers ...Parser) *FailbackCommandParser {
	return &FailbackCommandParser{parsers: parsers}
}

func (p *FailbackCommandParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, req)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return None, lastErr
}

// KeywordFirstParser asks the keyword parser first and only consults next
// when no keyword matched.
type KeywordFirstParser struct {
	keywords *LocalCommandParser
	next     Parser
}

func NewKeywordFirstParser(keywords *LocalCommandParser, next Parser) *KeywordFirstParser {
	return &KeywordFirstParser{keywords: keywords, next: next}
}

func (p *KeywordFirstParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	cmd, _ := p.keywords.ParseCommand(ctx, req)
	if cmd != None || p.next == nil {
		return cmd, nil
	}
	return p.next.ParseCommand(ctx, req)
}
