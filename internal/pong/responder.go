package pong

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cooldownCacheSize bounds how many nicks we remember last-reply times for.
const cooldownCacheSize = 1024

// ActionKind says whether anything is sent.
type ActionKind int

const (
	Noop ActionKind = iota
	Send
)

// Reason explains why an Action was produced.
type Reason string

const (
	ReasonReplied      Reason = "replied"
	ReasonSubstantive  Reason = "substantive"
	ReasonDisabled     Reason = "disabled"
	ReasonNotAddressed Reason = "not_addressed"
	ReasonRateLimited  Reason = "rate_limited"
	ReasonIgnored      Reason = "ignored"
)

// Action is the outcome for one inbound message: at most one PRIVMSG.
type Action struct {
	Kind   ActionKind
	Target string
	Text   string
	Reason Reason
}

// Event is an inbound PRIVMSG. Channel is empty for private messages.
type Event struct {
	Sender  string
	Channel string
	Text    string
	OwnNick string
}

// Responder answers content-free pings. It is safe for concurrent use.
type Responder struct {
	mu         sync.RWMutex
	settings   Settings
	classifier *Classifier
	lastReply  *lru.Cache[string, time.Time]
	observer   Observer
	now        func() time.Time
}

// Option configures a Responder.
type Option func(*Responder)

// WithObserver reports classifications and actions to o.
func WithObserver(o Observer) Option {
	return func(r *Responder) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Responder) {
		r.now = now
	}
}

// NewResponder builds a Responder from validated settings.
func NewResponder(s Settings, opts ...Option) (*Responder, error) {
	classifier, err := NewClassifier(s)
	if err != nil {
		return nil, err
	}
	if s.Cooldown < 0 {
		return nil, ErrNegativeCooldown
	}
	cache, err := lru.New[string, time.Time](cooldownCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cooldown cache: %w", err)
	}

	r := &Responder{
		settings:   s.clone(),
		classifier: classifier,
		lastReply:  cache,
		observer:   nopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Classify runs the current rules against message.
func (r *Responder) Classify(message string) Classification {
	r.mu.RLock()
	c := r.classifier
	r.mu.RUnlock()
	return c.Classify(message)
}

// Respond maps a classification to an action: the private canned message
// when enabled and the message had no substance, a no-op otherwise.
func (r *Responder) Respond(sender string, c Classification) Action {
	r.mu.RLock()
	s := r.settings
	r.mu.RUnlock()

	if !s.Enabled {
		return Action{Kind: Noop, Reason: ReasonDisabled}
	}
	if c != NoSubstance {
		return Action{Kind: Noop, Reason: ReasonSubstantive}
	}
	return Action{
		Kind:   Send,
		Target: sender,
		Text:   expand(s.Message, sender, "", ""),
		Reason: ReasonReplied,
	}
}

// Handle runs the whole pipeline for one inbound message: addressing,
// classification, cooldown and reply selection.
func (r *Responder) Handle(ev Event) Action {
	action := r.handle(ev)
	r.observer.ObserveAction(action.Reason)
	return action
}

func (r *Responder) handle(ev Event) Action {
	if ev.Sender == "" || strings.EqualFold(ev.Sender, ev.OwnNick) {
		return Action{Kind: Noop, Reason: ReasonIgnored}
	}
	// CTCP
	if strings.HasPrefix(ev.Text, "\x01") {
		return Action{Kind: Noop, Reason: ReasonIgnored}
	}

	text := ev.Text
	if ev.Channel != "" {
		rest, ok := Addressed(ev.Text, ev.OwnNick)
		if !ok {
			return Action{Kind: Noop, Reason: ReasonNotAddressed}
		}
		text = rest
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.settings

	if !s.Enabled {
		return Action{Kind: Noop, Reason: ReasonDisabled}
	}

	class := r.classifier.Classify(text)
	r.observer.ObserveMessage(class)
	if class != NoSubstance {
		return Action{Kind: Noop, Reason: ReasonSubstantive}
	}

	now := r.now()
	key := strings.ToLower(ev.Sender)
	if s.Cooldown > 0 {
		if last, ok := r.lastReply.Get(key); ok && now.Sub(last) < s.Cooldown {
			return Action{Kind: Noop, Reason: ReasonRateLimited}
		}
	}
	r.lastReply.Add(key, now)

	if ev.Channel != "" && s.ReplyInChannel {
		return Action{
			Kind:   Send,
			Target: ev.Channel,
			Text:   expand(s.ChannelMessage, ev.Sender, ev.Channel, ev.OwnNick),
			Reason: ReasonReplied,
		}
	}
	return Action{
		Kind:   Send,
		Target: ev.Sender,
		Text:   expand(s.Message, ev.Sender, ev.Channel, ev.OwnNick),
		Reason: ReasonReplied,
	}
}

func expand(tmpl, nick, channel, ownNick string) string {
	return strings.NewReplacer(
		"{nick}", nick,
		"{channel}", channel,
		"{own_nick}", ownNick,
	).Replace(tmpl)
}

// Settings returns a copy of the current settings.
func (r *Responder) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.clone()
}

// Status is a read-only snapshot of the responder configuration.
type Status struct {
	Settings
}

// Status returns the most recently set configuration.
func (r *Responder) Status() Status {
	return Status{Settings: r.Settings()}
}

// Lines renders the snapshot one setting per row.
func (s Status) Lines() []string {
	const format = "%-15s : %s"
	state := "disabled"
	if s.Enabled {
		state = "enabled"
	}
	pattern := s.Pattern
	if pattern == "" {
		pattern = "(none)"
	}
	phrases := strings.Join(s.Phrases, " | ")
	if phrases == "" {
		phrases = "(none)"
	}
	return []string{
		fmt.Sprintf(format, "status", state),
		fmt.Sprintf(format, "message", s.Message),
		fmt.Sprintf(format, "channel_message", s.ChannelMessage),
		fmt.Sprintf(format, "reply_in_channel", strconv.FormatBool(s.ReplyInChannel)),
		fmt.Sprintf(format, "pattern", pattern),
		fmt.Sprintf(format, "phrases", phrases),
		fmt.Sprintf(format, "cooldown", s.Cooldown.String()),
	}
}

// Replace swaps in a whole new set of settings.
func (r *Responder) Replace(s Settings) error {
	classifier, err := NewClassifier(s)
	if err != nil {
		return err
	}
	if s.Cooldown < 0 {
		return ErrNegativeCooldown
	}
	r.mu.Lock()
	r.settings = s.clone()
	r.classifier = classifier
	r.mu.Unlock()
	return nil
}

// SetEnabled toggles auto-responses.
func (r *Responder) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.settings.Enabled = enabled
	r.mu.Unlock()
}

// SetMessage sets the private canned reply.
func (r *Responder) SetMessage(msg string) {
	r.mu.Lock()
	r.settings.Message = msg
	r.mu.Unlock()
}

// SetChannelMessage sets the canned reply used inside channels.
func (r *Responder) SetChannelMessage(msg string) {
	r.mu.Lock()
	r.settings.ChannelMessage = msg
	r.mu.Unlock()
}

// SetReplyInChannel chooses between answering channel pings in the channel
// or privately.
func (r *Responder) SetReplyInChannel(v bool) {
	r.mu.Lock()
	r.settings.ReplyInChannel = v
	r.mu.Unlock()
}

// SetCooldown sets the per-nick reply interval; 0 disables it.
func (r *Responder) SetCooldown(d time.Duration) error {
	if d < 0 {
		return ErrNegativeCooldown
	}
	r.mu.Lock()
	r.settings.Cooldown = d
	r.mu.Unlock()
	return nil
}

// SetPattern replaces the no-substance pattern. An invalid pattern leaves
// the current one in place.
func (r *Responder) SetPattern(pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.settings.clone()
	s.Pattern = pattern
	return r.rebuildLocked(s)
}

// AddPhrase adds an exact no-substance phrase. It reports false if the
// phrase was already present.
func (r *Responder) AddPhrase(phrase string) (bool, error) {
	norm := Normalize(phrase)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.settings.Phrases {
		if Normalize(p) == norm {
			return false, nil
		}
	}
	s := r.settings.clone()
	s.Phrases = append(s.Phrases, norm)
	return true, r.rebuildLocked(s)
}

// RemovePhrase removes an exact no-substance phrase. It reports false if the
// phrase was not present.
func (r *Responder) RemovePhrase(phrase string) (bool, error) {
	norm := Normalize(phrase)
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.settings.clone()
	kept := s.Phrases[:0]
	for _, p := range s.Phrases {
		if Normalize(p) != norm {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(s.Phrases) {
		return false, nil
	}
	s.Phrases = kept
	return true, r.rebuildLocked(s)
}

func (r *Responder) rebuildLocked(s Settings) error {
	classifier, err := NewClassifier(s)
	if err != nil {
		return err
	}
	r.settings = s
	r.classifier = classifier
	return nil
}
