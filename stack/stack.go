// Package stack reduces raw goroutine stack traces to the frames that
// matter when logging recovered panics.
package stack

import "strings"

// Trim returns the "file.go:line" fragments from a raw stack trace whose
// path contains marker, e.g. the module name. It returns nil when no frame
// matches, so callers can fall back to logging the full trace.
func Trim(stack []byte, marker string) []string {
	if marker == "" {
		return nil
	}

	var frames []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, ".go:")
		if idx == -1 || !strings.Contains(line, marker) {
			continue
		}

		end := strings.Index(line[idx:], " ")
		if end == -1 {
			end = len(line)
		} else {
			end += idx
		}

		frame := line[:end]
		if cut := strings.Index(frame, marker); cut != -1 {
			frame = frame[cut:]
		}
		frames = append(frames, frame)
	}
	return frames
}
