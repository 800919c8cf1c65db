package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the client log at path.
// maxLines <= 0 returns every line. A missing file yields no lines.
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

var levelRank = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// Level extracts the slog level from a text-handler line, or "" if the line
// carries none.
func Level(line string) string {
	for _, field := range strings.Fields(line) {
		if value, ok := strings.CutPrefix(field, "level="); ok {
			return strings.ToUpper(value)
		}
	}
	return ""
}

// FilterLevel keeps lines at or above min (DEBUG, INFO, WARN, ERROR). Lines
// without a level, such as wrapped continuations, are kept.
func FilterLevel(lines []string, min string) []string {
	threshold, ok := levelRank[strings.ToUpper(strings.TrimSpace(min))]
	if !ok {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		rank, known := levelRank[Level(line)]
		if known && rank < threshold {
			continue
		}
		out = append(out, line)
	}
	return out
}
