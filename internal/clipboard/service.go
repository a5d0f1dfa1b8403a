package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// Service copies resolved stream URLs to the system clipboard
type Service struct {
	logger  *slog.Logger
	command string

	// primary is the library write, swapped out in tests
	primary func(string) error
}

// NewService creates a clipboard service. command, when set, is the fallback
// used if the clipboard library cannot reach the system clipboard.
func NewService(logger *slog.Logger, command string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:  logger,
		command: command,
		primary: clipboard.WriteAll,
	}
}

// Write copies text to the clipboard, falling back to a configured command,
// clip.exe on WSL, or the platform's clipboard utility
func (s *Service) Write(ctx context.Context, text string) error {
	err := s.primary(text)
	if err == nil {
		s.logger.Debug("copied to clipboard using primary method")
		return nil
	}
	s.logger.Warn("failed to copy to clipboard using primary method", "error", err)

	var parts []string
	switch {
	case s.command != "":
		parts = parseCommand(s.command)
	case s.isWSL():
		parts = []string{"clip.exe"}
	default:
		parts = defaultCommand()
	}
	if len(parts) == 0 {
		return fmt.Errorf("no clipboard command available on %s: %w", runtime.GOOS, err)
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)

	s.logger.Debug("attempting clipboard command", "command_parts", parts, "text_length", len(text))
	if runErr := cmd.Run(); runErr != nil {
		return fmt.Errorf("clipboard command %q failed: %w", parts[0], runErr)
	}
	return nil
}

// defaultCommand picks the platform clipboard utility
func defaultCommand() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"clip.exe"}
	case "darwin":
		return []string{"pbcopy"}
	case "linux":
		// Wayland first, then X11
		switch {
		case commandExists("wl-copy"):
			return []string{"wl-copy"}
		case commandExists("xclip"):
			return []string{"xclip", "-selection", "clipboard"}
		case commandExists("xsel"):
			return []string{"xsel", "--clipboard", "--input"}
		}
	}
	return nil
}

// parseCommand parses a command string into executable parts, respecting quotes
func parseCommand(command string) []string {
	var parts []string
	var current strings.Builder
	var inQuotes bool
	var quoteChar rune

	for _, char := range command {
		switch {
		case char == '\'' || char == '"':
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
			} else {
				current.WriteRune(char)
			}
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// isWSL checks if the application is running in Windows Subsystem for Linux
func (s *Service) isWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	version, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	v := strings.ToLower(string(version))
	return strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
