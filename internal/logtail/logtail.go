package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Filter narrows console-format lines.
type Filter struct {
	// MinLevel drops lines below this level (DEBUG, INFO, WARN, ERROR). Empty keeps all.
	MinLevel string
	// Component keeps only lines written by this component.
	Component string
	// Match keeps only lines containing this text, case-insensitively.
	Match string
}

// Apply returns the lines that pass f.
func (f Filter) Apply(lines []string) []string {
	minRank := levelRank(strings.ToUpper(strings.TrimSpace(f.MinLevel)))
	component := strings.TrimSpace(f.Component)
	match := strings.ToLower(strings.TrimSpace(f.Match))

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		parsed := Parse(line)
		if minRank > 0 && levelRank(parsed.Level) < minRank {
			continue
		}
		if component != "" && parsed.Component != component {
			continue
		}
		if match != "" && !strings.Contains(strings.ToLower(line), match) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Line is a console log line split into its parts. Lines that do not follow
// the console layout come back with only Rest set.
type Line struct {
	Timestamp string
	Level     string
	Component string
	Rest      string
}

// Parse splits "TS LEVEL component: message k=v".
func Parse(line string) Line {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 || levelRank(fields[1]) == 0 {
		return Line{Rest: line}
	}
	out := Line{Timestamp: fields[0], Level: fields[1], Rest: fields[2]}
	if head, tail, ok := strings.Cut(out.Rest, ": "); ok && head != "" && !strings.ContainsAny(head, " =") {
		out.Component = head
		out.Rest = tail
	}
	return out
}

// Styles colour the parts of a log line.
type Styles struct {
	Timestamp lipgloss.Style
	Component lipgloss.Style
	Debug     lipgloss.Style
	Info      lipgloss.Style
	Warn      lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles suits dark terminal backgrounds.
func DefaultStyles() Styles {
	return Styles{
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Component: lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Debug:     lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
}

// ColorizeLine renders one line with s. Unparseable lines are returned unchanged.
func (s Styles) ColorizeLine(line string) string {
	parsed := Parse(line)
	if parsed.Level == "" {
		return line
	}

	var level lipgloss.Style
	switch parsed.Level {
	case "ERROR":
		level = s.Error
	case "WARN":
		level = s.Warn
	case "DEBUG":
		level = s.Debug
	default:
		level = s.Info
	}

	var b strings.Builder
	b.WriteString(s.Timestamp.Render(parsed.Timestamp))
	b.WriteByte(' ')
	b.WriteString(level.Render(parsed.Level))
	b.WriteByte(' ')
	if parsed.Component != "" {
		b.WriteString(s.Component.Render(parsed.Component + ":"))
		b.WriteByte(' ')
	}
	b.WriteString(parsed.Rest)
	return b.String()
}

// ColorizeLines applies ColorizeLine to each line.
func (s Styles) ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = s.ColorizeLine(line)
	}
	return out
}

func levelRank(level string) int {
	switch level {
	case "DEBUG":
		return 1
	case "INFO":
		return 2
	case "WARN":
		return 3
	case "ERROR":
		return 4
	default:
		return 0
	}
}
