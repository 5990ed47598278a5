package dapple

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapTmuxPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "kitty", input: "\x1b_Ga=T;AAAA\x1b\\", want: "\x1bPtmux;\x1b\x1b_Ga=T;AAAA\x1b\x1b\\\x1b\\"},
		{name: "sixel", input: "\x1bPq#0!4@\x1b\\", want: "\x1bPtmux;\x1b\x1bPq#0!4@\x1b\x1b\\\x1b\\"},
		{
			name:  "one envelope per kitty chunk",
			input: "\x1b_Gm=1;AAAA\x1b\\\x1b_Gm=0;BBBB\x1b\\",
			want:  "\x1bPtmux;\x1b\x1b_Gm=1;AAAA\x1b\x1b\\\x1b\\\x1bPtmux;\x1b\x1b_Gm=0;BBBB\x1b\x1b\\\x1b\\",
		},
		{name: "plain text", input: "⣿⣿", want: "⣿⣿"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapTmuxPassthrough(tt.input))
		})
	}
}

func TestPassthroughRenderer(t *testing.T) {
	b := filledBitmap(4, 4, 1)

	r := Passthrough(Kitty())
	assert.Equal(t, Kitty().CellWidth(), r.CellWidth())

	out := render(t, r, b, nil)
	assert.True(t, strings.HasPrefix(out, "\x1bPtmux;\x1b\x1b_G"))
	assert.True(t, strings.HasSuffix(out, "\x1b\x1b\\\x1b\\"))
	assert.Equal(t, wrapTmuxPassthrough(render(t, Kitty(), b, nil)), out)

	// character art has no escape prefix to wrap
	assert.Equal(t, render(t, ASCII(), b, nil), render(t, Passthrough(ASCII()), b, nil))

	var sb strings.Builder
	err := Passthrough(Kitty()).Render(&sb, nil, nil)
	require.Error(t, err)
	assert.Empty(t, sb.String())
}

func TestPassthroughKittyChunks(t *testing.T) {
	b := diagonal(64)
	r := Kitty().WithFormat(KittyRGBA)

	plain := render(t, r, b, nil)
	chunks := strings.Count(plain, KITTY_START)
	require.Greater(t, chunks, 1)

	out := render(t, Passthrough(r), b, nil)
	assert.Equal(t, chunks, strings.Count(out, "\x1bPtmux;"))
	for _, env := range strings.SplitAfter(out, "\x1b\x1b\\\x1b\\") {
		if env == "" {
			continue
		}
		assert.True(t, strings.HasPrefix(env, "\x1bPtmux;\x1b\x1b_G"))
		assert.LessOrEqual(t, len(env), CHUNK_SIZE+64)
	}
}

func TestInTmux(t *testing.T) {
	tests := []struct {
		name        string
		tmux        string
		termProgram string
		want        bool
	}{
		{name: "tmux socket", tmux: "/tmp/tmux-1000/default,123,0", want: true},
		{name: "term program", termProgram: "tmux", want: true},
		{name: "outside", termProgram: "iTerm.app", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TMUX", tt.tmux)
			t.Setenv("TERM_PROGRAM", tt.termProgram)
			assert.Equal(t, tt.want, InTmux())
		})
	}
}
