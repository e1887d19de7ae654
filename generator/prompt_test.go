package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeTableComplete(t *testing.T) {
	for _, m := range Modes() {
		assert.NotEmpty(t, m.Label(), "mode %s missing label", m)
		assert.NotEmpty(t, m.Placeholder(), "mode %s missing placeholder", m)
		assert.NotEmpty(t, modeTable[m].System, "mode %s missing system prompt", m)
	}
	assert.Len(t, Modes(), 4)
}

func TestBuildPrompt(t *testing.T) {
	req := Request{
		Mode:  ModeBusinessPlan,
		Topic: "火星奶茶店",
		Style: StyleSarcastic,
		Words: 800,
	}
	p := BuildPrompt(req)

	assert.Contains(t, p.System, "商业策划案")
	assert.Contains(t, p.System, "语气:毒舌巴巴塔")
	assert.Contains(t, p.System, "字数:800")
	assert.Equal(t, "火星奶茶店", p.User)
}

func TestRequestNormalize(t *testing.T) {
	t.Run("empty topic rejected", func(t *testing.T) {
		req := Request{Mode: ModeBusinessPlan}
		require.ErrorIs(t, req.Normalize(), ErrEmptyTopic)
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		req := Request{Mode: "poetry", Topic: "x"}
		require.Error(t, req.Normalize())
	})

	t.Run("words clamped into range", func(t *testing.T) {
		low := Request{Mode: ModeSocialPost, Topic: "x", Words: 10}
		require.NoError(t, low.Normalize())
		assert.Equal(t, MinWords, low.Words)

		high := Request{Mode: ModeSocialPost, Topic: "x", Words: 99999}
		require.NoError(t, high.Normalize())
		assert.Equal(t, MaxWords, high.Words)
	})

	t.Run("style defaults", func(t *testing.T) {
		req := Request{Mode: ModeWeeklyReport, Topic: "x", Words: 800}
		require.NoError(t, req.Normalize())
		assert.Equal(t, StyleProfessional, req.Style)
	})
}
