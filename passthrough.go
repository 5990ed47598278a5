package dapple

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

var (
	tmuxPassthroughEnabled bool
	tmuxPassthroughOnce    sync.Once
)

// InTmux reports whether the process runs inside tmux.
func InTmux() bool {
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// EnableTmuxPassthrough turns on allow-passthrough for the current pane so
// Sixel and Kitty sequences reach the outer terminal. It runs tmux at most
// once and reports whether that succeeded.
func EnableTmuxPassthrough() bool {
	tmuxPassthroughOnce.Do(func() {
		// -p sets the option for the current pane only
		cmd := exec.Command("tmux", "set", "-p", "allow-passthrough", "on")
		if err := cmd.Run(); err == nil {
			tmuxPassthroughEnabled = true
		}
	})
	return tmuxPassthroughEnabled
}

// wrapTmuxPassthrough wraps every escape sequence of output, up to and
// including its ST terminator, as \ePtmux;...\e\\ with the ESCs inside
// doubled. Each Kitty chunk gets its own envelope. Text that is not an
// escape sequence is returned unchanged.
func wrapTmuxPassthrough(output string) string {
	if !strings.HasPrefix(output, ESC) {
		return output
	}
	var sb strings.Builder
	for _, seq := range strings.SplitAfter(output, KITTY_END) {
		if !strings.HasPrefix(seq, ESC) {
			sb.WriteString(seq)
			continue
		}
		sb.WriteString("\x1bPtmux;")
		sb.WriteString(strings.ReplaceAll(seq, ESC, "\x1b\x1b"))
		sb.WriteString("\x1b\\")
	}
	return sb.String()
}

// PassthroughRenderer wraps the output of a graphics renderer for tmux.
type PassthroughRenderer struct {
	Renderer
}

// Passthrough returns r wrapped for tmux passthrough.
func Passthrough(r Renderer) PassthroughRenderer {
	return PassthroughRenderer{Renderer: r}
}

func (p PassthroughRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	var sb strings.Builder
	if err := p.Renderer.Render(&sb, bitmap, colors); err != nil {
		return err
	}
	_, err := io.WriteString(w, wrapTmuxPassthrough(sb.String()))
	return err
}
