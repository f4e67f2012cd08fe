package pong

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestResponder(t *testing.T, mutate func(*Settings), opts ...Option) (*Responder, *fakeClock) {
	t.Helper()
	s := DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	clock := &fakeClock{t: time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)}
	r, err := NewResponder(s, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return r, clock
}

func TestRespond(t *testing.T) {
	r, _ := newTestResponder(t, nil)

	got := r.Respond("alice", NoSubstance)
	assert.Equal(t, Action{Kind: Send, Target: "alice", Text: DefaultMessage, Reason: ReasonReplied}, got)

	got = r.Respond("alice", Substantive)
	assert.Equal(t, Noop, got.Kind)
	assert.Equal(t, ReasonSubstantive, got.Reason)
}

func TestRespondDisabled(t *testing.T) {
	r, _ := newTestResponder(t, nil)
	r.SetEnabled(false)

	for _, c := range []Classification{Substantive, NoSubstance} {
		got := r.Respond("alice", c)
		assert.Equal(t, Noop, got.Kind)
		assert.Equal(t, ReasonDisabled, got.Reason)
	}
}

func TestHandlePrivatePing(t *testing.T) {
	r, _ := newTestResponder(t, nil)

	got := r.Handle(Event{Sender: "alice", Text: "ping!", OwnNick: "bob"})
	assert.Equal(t, Send, got.Kind)
	assert.Equal(t, "alice", got.Target)
	assert.Equal(t, DefaultMessage, got.Text)

	got = r.Handle(Event{Sender: "carol", Text: "ping, are you there? I need help with foo", OwnNick: "bob"})
	assert.Equal(t, Noop, got.Kind)
	assert.Equal(t, ReasonSubstantive, got.Reason)
}

func TestHandleChannelPing(t *testing.T) {
	t.Run("private reply by default", func(t *testing.T) {
		r, _ := newTestResponder(t, nil)
		got := r.Handle(Event{Sender: "alice", Channel: "#ops", Text: "bob: ping?", OwnNick: "bob"})
		assert.Equal(t, Send, got.Kind)
		assert.Equal(t, "alice", got.Target)
		assert.Equal(t, DefaultMessage, got.Text)
	})

	t.Run("reply in channel", func(t *testing.T) {
		r, _ := newTestResponder(t, func(s *Settings) { s.ReplyInChannel = true })
		got := r.Handle(Event{Sender: "alice", Channel: "#ops", Text: "bob, you there?", OwnNick: "bob"})
		assert.Equal(t, Send, got.Kind)
		assert.Equal(t, "#ops", got.Target)
		assert.Equal(t, "alice: "+DefaultMessage, got.Text)
	})

	t.Run("not addressed", func(t *testing.T) {
		r, _ := newTestResponder(t, nil)
		got := r.Handle(Event{Sender: "alice", Channel: "#ops", Text: "ping", OwnNick: "bob"})
		assert.Equal(t, Noop, got.Kind)
		assert.Equal(t, ReasonNotAddressed, got.Reason)
	})

	t.Run("addressed with a question", func(t *testing.T) {
		r, _ := newTestResponder(t, nil)
		got := r.Handle(Event{Sender: "alice", Channel: "#ops", Text: "bob: is the build broken?", OwnNick: "bob"})
		assert.Equal(t, Noop, got.Kind)
		assert.Equal(t, ReasonSubstantive, got.Reason)
	})
}

func TestHandleIgnored(t *testing.T) {
	r, _ := newTestResponder(t, nil)

	tests := []Event{
		{Sender: "bob", Text: "ping", OwnNick: "bob"},
		{Sender: "", Text: "ping", OwnNick: "bob"},
		{Sender: "alice", Text: "\x01ACTION pings\x01", OwnNick: "bob"},
	}
	for _, ev := range tests {
		got := r.Handle(ev)
		assert.Equal(t, Noop, got.Kind)
		assert.Equal(t, ReasonIgnored, got.Reason)
	}
}

func TestHandleCooldown(t *testing.T) {
	r, clock := newTestResponder(t, nil)
	ev := Event{Sender: "alice", Text: "ping", OwnNick: "bob"}

	assert.Equal(t, Send, r.Handle(ev).Kind)

	clock.Advance(time.Minute)
	got := r.Handle(ev)
	assert.Equal(t, Noop, got.Kind)
	assert.Equal(t, ReasonRateLimited, got.Reason)

	// Cooldown is per nick and case-insensitive.
	assert.Equal(t, Send, r.Handle(Event{Sender: "carol", Text: "ping", OwnNick: "bob"}).Kind)
	assert.Equal(t, ReasonRateLimited, r.Handle(Event{Sender: "ALICE", Text: "ping", OwnNick: "bob"}).Reason)

	clock.Advance(DefaultCooldown)
	assert.Equal(t, Send, r.Handle(ev).Kind)
}

func TestHandleNoCooldown(t *testing.T) {
	r, _ := newTestResponder(t, func(s *Settings) { s.Cooldown = 0 })
	ev := Event{Sender: "alice", Text: "ping", OwnNick: "bob"}

	for i := 0; i < 3; i++ {
		assert.Equal(t, Send, r.Handle(ev).Kind)
	}
}

func TestHandleTemplate(t *testing.T) {
	r, _ := newTestResponder(t, func(s *Settings) {
		s.Message = "hi {nick}, {own_nick} is away; ask in {channel}"
	})
	got := r.Handle(Event{Sender: "alice", Channel: "#ops", Text: "bob", OwnNick: "bob"})
	assert.Equal(t, "hi alice, bob is away; ask in #ops", got.Text)
}

func TestStatusReflectsLatestSettings(t *testing.T) {
	r, _ := newTestResponder(t, nil)
	assert.True(t, r.Status().Enabled)

	r.SetEnabled(false)
	r.SetMessage("busy")
	st := r.Status()
	assert.False(t, st.Enabled)
	assert.Equal(t, "busy", st.Message)

	lines := st.Lines()
	require.Len(t, lines, 7)
	assert.Equal(t, "status          : disabled", lines[0])
	assert.Equal(t, "message         : busy", lines[1])
	assert.Equal(t, "cooldown        : 5m0s", lines[6])
}

func TestStatusIsACopy(t *testing.T) {
	r, _ := newTestResponder(t, nil)
	st := r.Status()
	st.Phrases[0] = "mutated"
	assert.Equal(t, DefaultPhrases[0], r.Status().Phrases[0])
}

func TestSetPattern(t *testing.T) {
	r, _ := newTestResponder(t, func(s *Settings) { s.Phrases = nil })

	require.NoError(t, r.SetPattern(`anyone( here)?[?]*`))
	assert.Equal(t, NoSubstance, r.Classify("anyone here?"))
	assert.Equal(t, Substantive, r.Classify("ping"))

	err := r.SetPattern("(unclosed")
	require.ErrorIs(t, err, ErrInvalidPattern)
	assert.Equal(t, `anyone( here)?[?]*`, r.Status().Pattern)
	assert.Equal(t, NoSubstance, r.Classify("anyone?"))

	require.NoError(t, r.SetPattern(""))
	assert.Equal(t, Substantive, r.Classify("anyone?"))
}

func TestPhrases(t *testing.T) {
	r, _ := newTestResponder(t, func(s *Settings) { s.Phrases = nil; s.Pattern = "" })

	added, err := r.AddPhrase("  Knock Knock ")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, NoSubstance, r.Classify("knock knock"))

	added, err = r.AddPhrase("knock knock")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := r.RemovePhrase("KNOCK KNOCK")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, Substantive, r.Classify("knock knock"))

	removed, err = r.RemovePhrase("knock knock")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSetCooldown(t *testing.T) {
	r, _ := newTestResponder(t, nil)
	require.ErrorIs(t, r.SetCooldown(-time.Second), ErrNegativeCooldown)
	require.NoError(t, r.SetCooldown(time.Hour))
	assert.Equal(t, time.Hour, r.Status().Cooldown)
}

func TestReplace(t *testing.T) {
	r, _ := newTestResponder(t, nil)

	err := r.Replace(Settings{Pattern: "("})
	require.ErrorIs(t, err, ErrInvalidPattern)
	assert.True(t, r.Status().Enabled)

	require.NoError(t, r.Replace(Settings{Enabled: false, Message: "x"}))
	assert.False(t, r.Status().Enabled)
	assert.Equal(t, "x", r.Status().Message)
}

func TestNewResponderRejectsNegativeCooldown(t *testing.T) {
	s := DefaultSettings()
	s.Cooldown = -time.Minute
	_, err := NewResponder(s)
	require.ErrorIs(t, err, ErrNegativeCooldown)
	require.ErrorIs(t, s.Validate(), ErrNegativeCooldown)
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	// Registering twice reuses the existing collectors.
	again, err := NewPrometheusObserver(reg)
	require.NoError(t, err)
	assert.Same(t, obs.messages, again.messages)

	r, _ := newTestResponder(t, nil, WithObserver(obs))
	r.Handle(Event{Sender: "alice", Text: "ping", OwnNick: "bob"})
	r.Handle(Event{Sender: "alice", Text: "ping", OwnNick: "bob"})
	r.Handle(Event{Sender: "carol", Text: "what is up with the build?", OwnNick: "bob"})

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.messages.WithLabelValues("no_substance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.messages.WithLabelValues("substantive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.actions.WithLabelValues(string(ReasonReplied))))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.actions.WithLabelValues(string(ReasonRateLimited))))
}
