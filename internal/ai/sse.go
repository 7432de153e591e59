package ai

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// errStreamDone is returned by an onEvent callback to stop reading early.
var errStreamDone = errors.New("stream done")

// readSSE reads a text/event-stream body and calls onEvent once per
// dispatched event. Multiple data lines of one event are joined with "\n".
// Returning errStreamDone from onEvent ends the read without error.
func readSSE(r io.Reader, onEvent func(event, data string) error) error {
	br := bufio.NewReader(r)
	var (
		eventName string
		dataLines []string
	)

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		ev := eventName
		dataLines = nil
		eventName = ""
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if ferr := flush(); ferr != nil {
				return stopErr(ferr)
			}
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}

		if eof {
			return stopErr(flush())
		}
	}
}

func stopErr(err error) error {
	if errors.Is(err, errStreamDone) {
		return nil
	}
	return err
}
