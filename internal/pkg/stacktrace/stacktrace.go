package stacktrace

import "strings"

// InternalPaths extracts the file:line frames under internal/ from a raw
// debug.Stack dump, trimmed to paths relative to the module root.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		end := idx + len(".go:")
		for end < len(line) && line[end] >= '0' && line[end] <= '9' {
			end++
		}

		frame := line[:end]
		if rel := strings.Index(frame, "/internal/"); rel != -1 {
			paths = append(paths, frame[rel+1:])
		}
	}

	return paths
}
