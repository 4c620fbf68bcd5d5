package term

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// Terminal обеспечивает интерактивный запрос секретов через терминал.
type Terminal struct {
	out io.Writer
}

// NewTerminal создает новый экземпляр Terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		out: os.Stdout,
	}
}

// AccessToken запрашивает токен доступа платформы без эха ввода.
func (t *Terminal) AccessToken() (string, error) {
	fmt.Fprint(t.out, "Enter access token: ")
	byteToken, err := termReadPassword()
	if err != nil {
		return "", xerrors.Errorf("failed to read access token: %w", err)
	}
	fmt.Fprintln(t.out) // Новая строка после ввода

	token := strings.TrimSpace(string(byteToken))
	if token == "" {
		return "", xerrors.New("access token is empty")
	}
	return token, nil
}
