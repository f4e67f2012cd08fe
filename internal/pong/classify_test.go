package pong

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c, err := NewClassifier(DefaultSettings())
	require.NoError(t, err)

	tests := []struct {
		name    string
		message string
		want    Classification
	}{
		{name: "empty", message: "", want: NoSubstance},
		{name: "whitespace", message: " \t ", want: NoSubstance},
		{name: "ping", message: "ping", want: NoSubstance},
		{name: "upper case bang", message: "PING!", want: NoSubstance},
		{name: "padded", message: " ping ", want: NoSubstance},
		{name: "question mark", message: "?", want: NoSubstance},
		{name: "hi", message: "hi", want: NoSubstance},
		{name: "are you there", message: "are you there?", want: NoSubstance},
		{name: "repeated punctuation", message: "around??", want: NoSubstance},
		{name: "yt", message: "yt?", want: NoSubstance},
		{name: "bold formatting", message: "\x02ping\x02", want: NoSubstance},
		{name: "question after ping", message: "ping, is the server down?", want: Substantive},
		{name: "long request", message: "ping, are you there? I need help with foo", want: Substantive},
		{name: "plain question", message: "how do I rebuild the index?", want: Substantive},
		{name: "ping inside word", message: "pinging the gateway fails", want: Substantive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.message))
		})
	}
}

func TestClassifyExactPhrasesOnly(t *testing.T) {
	c, err := NewClassifier(Settings{Phrases: []string{"", "ping", "ping!", "?"}})
	require.NoError(t, err)

	for _, s := range []string{"", "ping", "PING!", " ping ", "?"} {
		assert.Equal(t, NoSubstance, c.Classify(s), "message %q", s)
	}
	assert.Equal(t, Substantive, c.Classify("ping?!"))
	assert.Equal(t, Substantive, c.Classify("hi"))
}

func TestClassifyNilClassifier(t *testing.T) {
	var c *Classifier
	assert.Equal(t, NoSubstance, c.Classify("  "))
	assert.Equal(t, Substantive, c.Classify("ping"))
}

func TestClassifyInvalidUTF8(t *testing.T) {
	c, err := NewClassifier(DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, NoSubstance, c.Classify("ping\xff"))
	assert.Equal(t, Substantive, c.Classify("\xffwhat broke?"))
}

func TestNewClassifierInvalidPattern(t *testing.T) {
	_, err := NewClassifier(Settings{Pattern: "(ping"})
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "no_substance", NoSubstance.String())
	assert.Equal(t, "substantive", Substantive.String())
}

func TestAddressed(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantRest string
		wantOK   bool
	}{
		{name: "bare nick", text: "bob", wantRest: "", wantOK: true},
		{name: "colon", text: "bob: ping", wantRest: "ping", wantOK: true},
		{name: "comma", text: "Bob, you there?", wantRest: "you there?", wantOK: true},
		{name: "semicolon", text: "bob;ping", wantRest: "ping", wantOK: true},
		{name: "at sign", text: "@bob ping", wantRest: "ping", wantOK: true},
		{name: "nick with question mark", text: "bob?", wantRest: "", wantOK: true},
		{name: "trailing colon only", text: "bob:", wantRest: "", wantOK: true},
		{name: "longer nick", text: "bobby: ping", wantOK: false},
		{name: "not at start", text: "ping bob", wantOK: false},
		{name: "shorter than nick", text: "bo", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, ok := Addressed(tt.text, "bob")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantRest, rest)
			}
		})
	}

	_, ok := Addressed("bob: ping", "")
	assert.False(t, ok)
}
