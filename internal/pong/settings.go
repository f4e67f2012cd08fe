package pong

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Default settings, used for anything the config file leaves unset.
const (
	DefaultMessage = "Please ask your question and I will respond when I am around " +
		"or maybe somebody else can help."
	DefaultChannelMessage = "{nick}: " + DefaultMessage
	DefaultPattern        = `(ping|pong|around|yt|((are )?you )?there)[!?.]*`
	DefaultCooldown       = 5 * time.Minute
)

// DefaultPhrases are matched exactly against a normalized message.
var DefaultPhrases = []string{"ping", "ping!", "ping?", "?", "hi", "hello", "hey", "yo"}

var (
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrNegativeCooldown = errors.New("cooldown must not be negative")
)

// Settings is the runtime configuration of a Responder.
type Settings struct {
	Enabled        bool          `yaml:"enabled"`
	Message        string        `yaml:"message"`
	ChannelMessage string        `yaml:"channel_message"`
	ReplyInChannel bool          `yaml:"reply_in_channel"`
	Phrases        []string      `yaml:"phrases"`
	Pattern        string        `yaml:"pattern"`
	Cooldown       time.Duration `yaml:"cooldown"`
}

// DefaultSettings returns enabled settings with the stock replies and rules.
func DefaultSettings() Settings {
	return Settings{
		Enabled:        true,
		Message:        DefaultMessage,
		ChannelMessage: DefaultChannelMessage,
		Phrases:        append([]string(nil), DefaultPhrases...),
		Pattern:        DefaultPattern,
		Cooldown:       DefaultCooldown,
	}
}

// Validate reports whether the settings can be used to build a Classifier.
func (s Settings) Validate() error {
	if _, err := compilePattern(s.Pattern); err != nil {
		return err
	}
	if s.Cooldown < 0 {
		return ErrNegativeCooldown
	}
	return nil
}

func (s Settings) clone() Settings {
	s.Phrases = append([]string(nil), s.Phrases...)
	return s
}

// compilePattern anchors the pattern so it must cover the whole message.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}
