package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetChoice asks until the answer is one of options or empty. An empty
// answer selects def.
func GetChoice(reader *bufio.Reader, prompt string, options []string, def string, w io.Writer) (string, error) {
	label := fmt.Sprintf("%s [%s] (default %s)", prompt, strings.Join(options, "/"), def)
	for {
		answer, err := GetSimpleText(reader, label, w)
		if err != nil {
			return "", err
		}
		if answer == "" {
			return def, nil
		}
		for _, o := range options {
			if strings.EqualFold(answer, o) {
				return o, nil
			}
		}
		fmt.Fprintf(w, "Please answer one of: %s\n", strings.Join(options, ", "))
	}
}
