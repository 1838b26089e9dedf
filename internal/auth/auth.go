// Package auth resolves the Canvas API token, preferring the
// environment over an interactive prompt.
package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// TokenEnvVar is the environment variable holding the Canvas token.
const TokenEnvVar = "CANVAS_TOKEN"

// Token provenance. Env-sourced tokens are never re-prompted after a
// 401; prompt-sourced tokens may be re-entered once.
const (
	SourceEnv    = "env"
	SourcePrompt = "prompt"
)

// TokenInfo is a resolved token plus where it came from.
type TokenInfo struct {
	Token  string
	Source string
}

// Resolve returns the token from the environment (loading a local
// .env file opportunistically) or falls back to prompting.
func Resolve(in io.Reader, out io.Writer) (TokenInfo, error) {
	_ = godotenv.Load()

	if token := strings.TrimSpace(os.Getenv(TokenEnvVar)); token != "" {
		return TokenInfo{Token: token, Source: SourceEnv}, nil
	}
	return Prompt(in, out)
}

// Prompt reads a token interactively.
func Prompt(in io.Reader, out io.Writer) (TokenInfo, error) {
	fmt.Fprintf(out, "Canvas token required (set %s to skip prompts).\n", TokenEnvVar)
	fmt.Fprint(out, "Canvas API token: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return TokenInfo{}, fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return TokenInfo{}, fmt.Errorf("canvas token cannot be empty")
	}
	return TokenInfo{Token: token, Source: SourcePrompt}, nil
}
