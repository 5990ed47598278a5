/*
Package csi queries the terminal for its pixel geometry with CSI window
reports.
*/
package csi

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

// QueryTimeout bounds how long a query waits for the terminal to answer.
const QueryTimeout = 100 * time.Millisecond

var (
	// CSI 6 ; height ; width t
	cellSizeReport = regexp.MustCompile(`\x1b\[6;(\d+);(\d+)t`)
	// CSI 4 ; height ; width t
	textAreaReport = regexp.MustCompile(`\x1b\[4;(\d+);(\d+)t`)
)

// CellSize returns the size of one character cell in pixels. It asks with
// CSI 16t and falls back to dividing the CSI 14t text area by the window
// size in characters.
func CellSize(ctx context.Context) (width, height int, ok bool) {
	if resp, err := query(ctx, "\x1b[16t", 't'); err == nil {
		if w, h, ok := parseReport(cellSizeReport, resp); ok {
			return w, h, true
		}
	}
	resp, err := query(ctx, "\x1b[14t", 't')
	if err != nil {
		return 0, 0, false
	}
	pw, ph, ok := parseReport(textAreaReport, resp)
	if !ok {
		return 0, 0, false
	}
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return fontSize(pw, ph, cols, rows)
}

// fontSize divides a text area in pixels by its size in cells. Results
// outside 4 to 50 pixels are rejected.
func fontSize(pixelWidth, pixelHeight, cols, rows int) (width, height int, ok bool) {
	if pixelWidth <= 0 || pixelHeight <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	width, height = pixelWidth/cols, pixelHeight/rows
	if width < 4 || width > 50 || height < 4 || height > 50 {
		return 0, 0, false
	}
	return width, height, true
}

// parseReport extracts width and height from a CSI Ps ; height ; width t
// reply.
func parseReport(re *regexp.Regexp, resp string) (width, height int, ok bool) {
	m := re.FindStringSubmatch(resp)
	if m == nil {
		return 0, 0, false
	}
	height, _ = strconv.Atoi(m[1])
	width, _ = strconv.Atoi(m[2])
	return width, height, width > 0 && height > 0
}

// Supported reports whether the terminal likely answers CSI queries.
func Supported() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "Apple_Terminal", "vscode":
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// query writes seq to the controlling terminal in raw mode and reads the
// reply up to the final byte.
func query(ctx context.Context, seq string, final byte) (string, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", err
	}
	defer tty.Close()

	oldState, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return "", err
	}
	defer term.Restore(int(tty.Fd()), oldState)

	if _, err := tty.WriteString(wrapTmuxPassthrough(seq)); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	respChan := make(chan string, 1)
	go func() {
		var sb strings.Builder
		buf := make([]byte, 64)
		for {
			n, err := tty.Read(buf)
			sb.Write(buf[:n])
			if err != nil || n == 0 || strings.IndexByte(sb.String(), final) >= 0 {
				respChan <- sb.String()
				return
			}
		}
	}()

	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func wrapTmuxPassthrough(seq string) string {
	if os.Getenv("TMUX") == "" && os.Getenv("TERM_PROGRAM") != "tmux" {
		return seq
	}
	return "\x1bPtmux;" + strings.ReplaceAll(seq, "\x1b", "\x1b\x1b") + "\x1b\\"
}
