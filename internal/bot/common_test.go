package bot

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkMessageShort(t *testing.T) {
	chunks := chunkMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("expected single chunk, got %v", chunks)
	}
}

func TestChunkMessageSplitsOnNewline(t *testing.T) {
	text := strings.Repeat("aaaa aaaa\n", 20)
	chunks := chunkMessage(text, 95)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 95 {
			t.Errorf("chunk %d exceeds limit: %d bytes", i, len(c))
		}
		if strings.HasPrefix(c, "\n") {
			t.Errorf("chunk %d starts with a newline", i)
		}
	}

	// no content may be lost, only newlines move around
	want := strings.ReplaceAll(text, "\n", "")
	got := strings.ReplaceAll(strings.Join(chunks, ""), "\n", "")
	if got != want {
		t.Error("chunks lost content")
	}
}

func TestChunkMessageKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 50)
	chunks := chunkMessage(text, 30)

	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d split a rune: %q", i, c)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Error("chunks do not reassemble the original text")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a long caption here", 6); got != "a long..." {
		t.Errorf("expected truncation, got %q", got)
	}
}
