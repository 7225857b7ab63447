package service

import (
	"html"
	"strings"

	"github.com/classtrack/classtrack-api/internal/dto"
)

// Notification messages carry a minimal emphasis markup: segments wrapped in
// paired ** markers render bold. Splitting on the delimiter alternates
// plain/bold spans; with an odd number of markers the trailing segment is
// treated as bold. That quirk is defined behavior, not an error.

// ParseMessage splits a message into alternating plain and bold spans.
func ParseMessage(message string) []dto.MessageSpan {
	segments := strings.Split(message, "**")
	spans := make([]dto.MessageSpan, 0, len(segments))
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		spans = append(spans, dto.MessageSpan{Text: segment, Bold: i%2 == 1})
	}
	return spans
}

// RenderMessageHTML renders the markup as escaped HTML with <strong> tags.
func RenderMessageHTML(message string) string {
	var b strings.Builder
	for _, span := range ParseMessage(message) {
		if span.Bold {
			b.WriteString("<strong>")
			b.WriteString(html.EscapeString(span.Text))
			b.WriteString("</strong>")
		} else {
			b.WriteString(html.EscapeString(span.Text))
		}
	}
	return b.String()
}

// RenderMessageText strips the markers for plain-text consumers.
func RenderMessageText(message string) string {
	return strings.ReplaceAll(message, "**", "")
}
