package stream

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one complete server-sent event.
type sseEvent struct {
	name string
	data string
}

// readEvents parses a text/event-stream body, invoking fn for each
// complete event. Multi-line data fields are joined with newlines;
// comment lines and unknown fields (id, retry) are ignored. Returns the
// reader's error, if any, once the stream is exhausted.
func readEvents(r io.Reader, fn func(sseEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var name string
	var data []string

	flush := func() {
		if name == "" && len(data) == 0 {
			return
		}
		fn(sseEvent{name: name, data: strings.Join(data, "\n")})
		name = ""
		data = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// Comment; servers send these as keep-alives.
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			value := strings.TrimPrefix(line, "data:")
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}
	flush()
	return scanner.Err()
}
