// Package cli provides terminal I/O and command dispatch for driving an
// unlock engine by hand or from a script.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI handles line-based terminal interaction.
type CLI struct {
	Session   *Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given session.
func New(s *Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run shows the banner, primes the engine, then loops:
// prompt → input → dispatch → output.
func (c *CLI) Run() {
	for _, line := range c.Session.Banner() {
		c.printLine(line)
	}
	for _, line := range c.Session.Start() {
		c.printLine(line)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if !strings.HasPrefix(input, "/") {
			c.lastCmd = input
		}

		lines, quit := c.Session.Exec(input)
		for _, line := range lines {
			c.printLine(line)
		}
		if quit {
			return
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}
