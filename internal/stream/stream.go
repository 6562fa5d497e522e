// Package stream consumes the analysis backend's chat stream.
//
// The backend streams one JSON object, {"assistant_message": "..."}, in
// arbitrary chunk sizes. While the object is incomplete the envelope is
// stripped with regular expressions so partial text can be shown as it
// arrives; once the stream ends the full buffer is parsed strictly and the
// regex form is only a fallback for malformed payloads.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

var (
	envelopePrefix = regexp.MustCompile(`^\{"assistant_message":\s*"`)
	envelopeSuffix = regexp.MustCompile(`"\}\s*$|",\s*"counter_email_draft".*$`)
)

type envelope struct {
	AssistantMessage string `json:"assistant_message"`
}

// Preview strips the JSON envelope from a partial buffer so the text inside
// can be rendered mid-stream. Escapes for newlines and quotes are undone;
// other escapes pass through until the final strict parse.
func Preview(buf string) string {
	s := envelopePrefix.ReplaceAllString(buf, "")
	s = envelopeSuffix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return s
}

// Final parses a complete buffer. The boolean reports whether the strict
// JSON parse succeeded; when it fails the regex-stripped text is returned
// instead so a truncated stream still yields something readable.
func Final(buf string) (string, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(buf), &env); err == nil && env.AssistantMessage != "" {
		return env.AssistantMessage, true
	}
	return Preview(buf), false
}

// Result is the outcome of consuming a whole stream.
type Result struct {
	// Text is the assistant message, strictly parsed when possible.
	Text string

	// Parsed reports whether Text came from a successful JSON parse.
	Parsed bool
}

const chunkSize = 4096

// Consume reads body to completion, invoking onUpdate after every chunk with
// the strictly parsed message when the buffer already forms complete JSON,
// and the stripped preview otherwise. onUpdate may be nil. The reader is not
// closed; that stays with the caller.
func Consume(ctx context.Context, body io.Reader, onUpdate func(preview string)) (Result, error) {
	var sb strings.Builder
	chunk := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		n, err := body.Read(chunk)
		if n > 0 {
			sb.Write(chunk[:n])
			if onUpdate != nil {
				text, _ := Final(sb.String())
				onUpdate(text)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
	}

	text, parsed := Final(sb.String())
	return Result{Text: text, Parsed: parsed}, nil
}
