package messaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeE164(t *testing.T) {
	ok := map[string]string{
		"(630) 555-0142":  "+16305550142",
		"630.555.0142":    "+16305550142",
		"1-630-555-0142":  "+16305550142",
		"+1 630 555 0142": "+16305550142",
		"+447911123456":   "+447911123456",
		"  6305550142 ":   "+16305550142",
	}
	for in, want := range ok {
		got, err := NormalizeE164(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "555-0142", "2-630-555-0142", "+12", "abc"} {
		_, err := NormalizeE164(in)
		assert.ErrorIs(t, err, ErrInvalidPhone, in)
	}
}

func TestReplyTwiML(t *testing.T) {
	xml, err := ReplyTwiML("You are unsubscribed.")
	require.NoError(t, err)
	assert.Contains(t, xml, "<Response>")
	assert.Contains(t, xml, "<Message>You are unsubscribed.</Message>")

	empty, err := ReplyTwiML("")
	require.NoError(t, err)
	assert.True(t, strings.Contains(empty, "<Response"), empty)
	assert.NotContains(t, empty, "<Message>")
}

func TestUnconfiguredSendersAreNil(t *testing.T) {
	assert.Nil(t, NewTwilioSender("", "", ""))
	assert.Nil(t, NewSendGridSender("", "Willow & Water", "", false))
	assert.Nil(t, NewSlackAlerter("", ""))
}
