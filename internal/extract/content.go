package extract

import (
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Content is the tagged union of input shapes the pipeline accepts. Exactly
// one of TextContent, BytesContent or StructuredContent implements it.
type Content interface {
	isContent()
}

// TextContent is already-decoded text, possibly containing HTML markup.
type TextContent struct {
	Text string
}

// BytesContent is a raw byte payload with an optional charset hint, e.g. the
// decoded body of a MIME part whose charset parameter was preserved.
type BytesContent struct {
	Data    []byte
	Charset string
}

// StructuredContent is loosely-shaped content with named fields, e.g. a
// parsed form or a key/value export. Fields keep their order so that
// extraction stays deterministic.
type StructuredContent struct {
	Fields []StructuredField
}

// StructuredField is one named value inside StructuredContent.
type StructuredField struct {
	Name  string
	Value string
}

func (TextContent) isContent()       {}
func (BytesContent) isContent()      {}
func (StructuredContent) isContent() {}

// decodeBytes converts raw bytes to a string honoring the charset hint.
// Unknown or broken charsets degrade to a direct byte-to-rune conversion
// rather than failing: the normalizer's printable filter cleans up whatever
// mojibake remains.
func decodeBytes(data []byte, charset string) (string, bool) {
	if len(data) == 0 {
		return "", true
	}

	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return string(data), true
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data), false
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data), false
	}
	return string(decoded), true
}
