package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Level classifies a log line for the pane. The zero value is the plain
// info line.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
	LevelWarn
	LevelError
)

// LineLevel reports the level of one line from the lamp's log file. Both
// marker shapes the lamp writes are recognized: the text handler's
// "level=WARN" and the JSON handler's "level":"WARN". Anything else,
// including lines from before a format switch, reads as info.
func LineLevel(line string) Level {
	switch {
	case strings.Contains(line, "level=ERROR") || strings.Contains(line, `"level":"ERROR"`):
		return LevelError
	case strings.Contains(line, "level=WARN") || strings.Contains(line, `"level":"WARN"`):
		return LevelWarn
	case strings.Contains(line, "level=DEBUG") || strings.Contains(line, `"level":"DEBUG"`):
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Tail returns at most maxLines from the end of the file at path, oldest
// first. A missing file yields no lines and no error; the lamp may simply
// not have logged yet.
func Tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	// One pass over the file through a ring of maxLines slots; whatever is
	// in the ring at EOF is the tail.
	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
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
