package console

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var writer io.Writer = os.Stdout
var errWriter io.Writer = os.Stderr

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Errorf(msg string, args ...any) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...any) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Infof(msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), fmt.Sprintf(msg, args...))
}

func Printf(msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}

// Frame prints lines inside a box as wide as the display. Glyph codes below
// 0x08 show as their number.
func Frame(width int, lines []string) {
	border := "+" + strings.Repeat("-", width) + "+"
	_, _ = fmt.Fprintln(writer, Faint(border))
	for _, line := range lines {
		var sb strings.Builder
		for i := 0; i < len(line); i++ {
			if line[i] < 0x08 {
				sb.WriteByte('0' + line[i])
				continue
			}
			sb.WriteByte(line[i])
		}
		_, _ = fmt.Fprintf(writer, "%s%s%s\n", Faint("|"), Green(sb.String()), Faint("|"))
	}
	_, _ = fmt.Fprintln(writer, Faint(border))
}
