// Package term обеспечивает интерактивный ввод секретов через терминал.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// Terminal читает интерактивный ввод, скрывая чувствительные значения.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	stdinfd int
}

// NewTerminal создает новый экземпляр Terminal поверх stdin/stdout.
func NewTerminal() *Terminal {
	return &Terminal{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		stdinfd: int(os.Stdin.Fd()),
	}
}

// ReadSecret запрашивает секрет без эха. Если stdin не терминал
// (перенаправление, CI), читает обычную строку.
func (t *Terminal) ReadSecret(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	if term.IsTerminal(t.stdinfd) {
		raw, err := term.ReadPassword(t.stdinfd)
		if err != nil {
			return "", xerrors.Errorf("failed to read secret: %w", err)
		}
		fmt.Fprintln(t.out) // Новая строка после ввода
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := t.in.ReadString('\n')
	if err != nil {
		return "", xerrors.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ReadLine запрашивает обычную строку с эхом.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil {
		return "", xerrors.Errorf("failed to read line: %w", err)
	}
	return strings.TrimSpace(line), nil
}
