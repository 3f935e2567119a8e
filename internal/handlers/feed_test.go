package handlers

import (
	"strings"
	"testing"
)

func TestTruncateByParagraph(t *testing.T) {
	content := "<h1>Title</h1>\n<p>one</p>\n<p>two</p>\n<p>three</p>"
	got := truncateByParagraph(content, 3)
	if strings.Contains(got, "three") || !strings.Contains(got, "<p>two</p>") {
		t.Fatalf("unexpected truncation %q", got)
	}

	plain := strings.Repeat("a", 400)
	if got := truncateByParagraph(plain, 3); len([]rune(got)) != 303 {
		t.Fatalf("plain text should be cut to 300 runes, got %d", len([]rune(got)))
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`Tom & "Jerry" <3`); got != "Tom &amp; &#34;Jerry&#34; &lt;3" {
		t.Fatalf("unexpected escape %q", got)
	}
}
