package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

var stdinReader = bufio.NewReader(os.Stdin)

// promptLine asks for a value on stderr and reads one line from stdin.
func promptLine(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// orPrompt returns v, or prompts for it when empty.
func orPrompt(v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	return promptLine(label)
}

func confirm(question string) (bool, error) {
	answer, err := promptLine(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
