// Package pong decides whether a message sent to us is a content-free ping
// and, if so, what canned reply it gets.
package pong

import (
	"regexp"
	"strings"

	"github.com/ergochat/irc-go/ircfmt"
)

// Classification is the verdict on a single message.
type Classification int

const (
	Substantive Classification = iota
	NoSubstance
)

func (c Classification) String() string {
	switch c {
	case NoSubstance:
		return "no_substance"
	default:
		return "substantive"
	}
}

// Classifier holds the compiled no-substance rules. The zero value and a nil
// *Classifier treat everything but the empty message as substantive.
type Classifier struct {
	phrases map[string]struct{}
	pattern *regexp.Regexp
}

// NewClassifier compiles the phrase set and pattern from s.
func NewClassifier(s Settings) (*Classifier, error) {
	re, err := compilePattern(s.Pattern)
	if err != nil {
		return nil, err
	}
	c := &Classifier{
		phrases: make(map[string]struct{}, len(s.Phrases)),
		pattern: re,
	}
	for _, p := range s.Phrases {
		c.phrases[Normalize(p)] = struct{}{}
	}
	return c, nil
}

// Classify never fails: anything it cannot make sense of is Substantive.
func (c *Classifier) Classify(message string) (result Classification) {
	defer func() {
		if recover() != nil {
			result = Substantive
		}
	}()

	msg := Normalize(message)
	if msg == "" {
		return NoSubstance
	}
	if c == nil {
		return Substantive
	}
	if _, ok := c.phrases[msg]; ok {
		return NoSubstance
	}
	if c.pattern != nil && c.pattern.MatchString(msg) {
		return NoSubstance
	}
	return Substantive
}

// Normalize strips IRC formatting, drops invalid UTF-8, trims surrounding
// whitespace and case-folds.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = ircfmt.Strip(text)
	return strings.ToLower(strings.TrimSpace(text))
}

// Addressed reports whether a channel message is directed at ownNick and
// returns what follows the address. "bob", "bob:", "bob, ping", "@bob ping"
// and "bob?" are all addressed to bob; "bobby: hi" is not.
func Addressed(text, ownNick string) (string, bool) {
	if ownNick == "" {
		return "", false
	}
	text = strings.TrimSpace(ircfmt.Strip(text))
	text = strings.TrimPrefix(text, "@")
	if len(text) < len(ownNick) || !strings.EqualFold(text[:len(ownNick)], ownNick) {
		return "", false
	}

	rest := text[len(ownNick):]
	if rest == "" {
		return "", true
	}
	switch rest[0] {
	case ':', ',', ';':
		return strings.TrimSpace(rest[1:]), true
	case ' ', '\t':
		return strings.TrimSpace(rest), true
	}
	if strings.Trim(rest, "!?.") == "" {
		return "", true
	}
	return "", false
}
