package datadog

import (
	"unicode/utf8"

	"github.com/trickstertwo/ddlog/internal/jsonenc"
)

// MaxTextLength caps the event text, counted in characters.
const MaxTextLength = 4000

const textSeparator = " | "

// BuildText renders the event text for msg and data:
//
//   - error: msg | trace (trace alone when msg is empty)
//   - record: msg | {json} of the record minus its correlation key
//     (json alone when msg is empty); a record holding only the key counts as empty
//   - otherwise msg
//
// The result is truncated to MaxTextLength characters.
func BuildText(msg string, data Payload) string {
	var text string
	switch data.Kind() {
	case PayloadError:
		text = joinText(msg, data.Trace())
	case PayloadRecord:
		if rest := data.Record().Without(aggregationKeyNames...); len(rest) > 0 {
			buf := jsonenc.Get()
			rest.AppendJSON(buf)
			text = joinText(msg, buf.String())
			jsonenc.Put(buf)
		}
	}
	if text == "" {
		text = msg
	}
	return truncateText(text, MaxTextLength)
}

func joinText(msg, detail string) string {
	if msg == "" {
		return detail
	}
	return msg + textSeparator + detail
}

// truncateText keeps the first n characters of s without splitting a rune.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
