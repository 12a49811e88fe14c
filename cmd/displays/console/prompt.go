package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Shell reads lines with prompt until handle returns true, the input ends or
// the user interrupts. Errors from handle are printed and the loop goes on.
func Shell(prompt string, handle func(line string) (bool, error)) error {
	rl, err := readline.New(prompt)
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		quit, err := handle(line)
		if err != nil {
			Errorf("%v", err)
		}
		if quit {
			return nil
		}
	}
}
