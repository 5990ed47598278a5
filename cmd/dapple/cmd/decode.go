/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-dapple"
	"github.com/spf13/cobra"
)

var (
	decodeFormat   string
	decodeCharset  string
	decodeRenderer string
	decodePNG      string
)

func init() {
	f := decodeCmd.Flags()
	f.StringVarP(&decodeFormat, "format", "f", "auto", "Input format: auto, braille, quadrants, sextants, ascii or sixel")
	f.StringVar(&decodeCharset, "charset", "standard", "ASCII charset used to decode ascii art")
	f.StringVarP(&decodeRenderer, "renderer", "r", "braille", "Renderer used to print the decoded canvas")
	f.StringVarP(&decodePNG, "output", "o", "", "Write the decoded canvas as PNG to this file instead")
}

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE]",
	Short: "Decode terminal art back into an image",
	Long:  "Decode braille, block, ASCII or sixel output read from FILE, or standard input when FILE is - or missing.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			in = f
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		canvas, err := decode(data, decodeFormat, decodeCharset)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"width":  canvas.Width(),
			"height": canvas.Height(),
		}).Debug("Decoded canvas")

		if decodePNG != "" {
			out, err := dapple.EncodePNG(canvas.Bitmap(), canvas.Colors())
			if err != nil {
				return err
			}
			if err := os.WriteFile(decodePNG, out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", decodePNG, err)
			}
			log.Infof("Wrote %s", decodePNG)
			return nil
		}

		format, err := dapple.ParseFormat(decodeRenderer)
		if err != nil {
			return err
		}
		r, err := dapple.NewRenderer(format)
		if err != nil {
			return err
		}
		if err := canvas.Out(r, os.Stdout); err != nil {
			return err
		}
		fmt.Println()
		return nil
	},
}

// decode parses data in the named format. auto detects among the character
// renderers.
func decode(data []byte, format, charset string) (*dapple.Canvas, error) {
	format = strings.ToLower(format)
	if format == "sixel" {
		return dapple.FromSixel(bytes.NewReader(data))
	}

	var opts []dapple.ANSIOption
	if format != "auto" && format != "" {
		f, err := dapple.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dapple.WithFormat(f))
	}
	cs, err := dapple.ParseCharset(charset)
	if err != nil {
		cs = charset
	}
	opts = append(opts, dapple.WithCharset(cs))
	return dapple.FromANSI(string(data), opts...)
}
