package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(color.FgGreen, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(color.FgRed, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(color.FgYellow, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(color.Bold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(color.Faint, format, args...)
}

func (o *Output) colored(attr color.Attribute, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if o.colorEnabled {
		color.New(attr).Fprintln(o.writer, msg)
		return
	}
	fmt.Fprintln(o.writer, msg)
}

// ColoredString returns text wrapped in the attribute's escape codes when colour is on.
func (o *Output) ColoredString(attr color.Attribute, text string) string {
	if o.colorEnabled {
		return color.New(attr).Sprint(text)
	}
	return text
}

// LevelTag renders a level's provenance and strength padded to width.
// Supports print green and resistances red; a missing level prints a dimmed dash.
func (o *Output) LevelTag(source string, strength, width int) string {
	if source == "" {
		return o.ColoredString(color.Faint, "-") + strings.Repeat(" ", max(0, width-1))
	}
	text := fmt.Sprintf("%s (%d)", source, strength)
	attr := color.FgRed
	if strings.HasSuffix(source, "support") {
		attr = color.FgGreen
	}
	return o.ColoredString(attr, text) + strings.Repeat(" ", max(0, width-len(text)))
}
