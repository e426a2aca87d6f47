package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationMarker is appended when normalized text exceeds the maximum
// length.
const TruncationMarker = "... [contenido truncado]"

// DefaultMaxTextLength bounds the normalized text handed to the pattern
// cascades. Real invoice emails fit comfortably; anything longer is noise.
const DefaultMaxTextLength = 10000

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]{0,512}>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style\b[^>]{0,512}>.*?</style>`)
	blockCloseRe  = regexp.MustCompile(`(?i)<(?:/(?:div|p|h[1-6]|li|tr|table|ul|ol|blockquote)|br\s{0,4}/?)[^>]{0,128}>`)
	anyTagRe      = regexp.MustCompile(`<[^>]{0,512}>`)
	spaceRunRe    = regexp.MustCompile(`[ \t]{2,}`)
	blankLinesRe  = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*){1,200}`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
)

// Normalizer turns raw text, HTML or bytes into clean plain text. It never
// fails: malformed markup degrades to best-effort stripped text.
type Normalizer struct {
	maxLen int
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer with the given maximum output length.
// A maxLen of zero or less selects DefaultMaxTextLength.
func NewNormalizer(maxLen int, logger *zap.Logger) *Normalizer {
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{maxLen: maxLen, logger: logger}
}

// Normalize dispatches on the content variant and returns clean plain text.
func (n *Normalizer) Normalize(c Content, declaredContentType string) string {
	switch v := c.(type) {
	case TextContent:
		return n.NormalizeText(v.Text, declaredContentType)
	case BytesContent:
		text, ok := decodeBytes(v.Data, v.Charset)
		if !ok {
			n.logger.Warn("charset decode degraded to raw bytes",
				zap.String("charset", v.Charset))
		}
		return n.NormalizeText(text, declaredContentType)
	case StructuredContent:
		var b strings.Builder
		for _, f := range v.Fields {
			if strings.TrimSpace(f.Value) == "" {
				continue
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(f.Value)
			b.WriteString("\n")
		}
		return n.NormalizeText(b.String(), declaredContentType)
	case nil:
		return ""
	default:
		return ""
	}
}

// NormalizeText cleans a single text payload. HTML handling kicks in when
// the declared content type says so or the payload looks like markup.
func (n *Normalizer) NormalizeText(raw, declaredContentType string) string {
	if raw == "" {
		return ""
	}

	text := raw
	if isHTML(text, declaredContentType) {
		text = stripHTML(text)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = stripNonPrintable(text)
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	text = trimLines(text)

	if utf8.RuneCountInString(text) > n.maxLen {
		runes := []rune(text)
		text = string(runes[:n.maxLen]) + TruncationMarker
	}

	return text
}

func isHTML(text, declaredContentType string) bool {
	if strings.Contains(strings.ToLower(declaredContentType), "html") {
		return true
	}
	return strings.Contains(text, "<") && strings.Contains(text, ">")
}

// stripHTML removes script/style blocks wholesale, converts block-level
// closing tags to newlines, drops the remaining tags, and decodes the common
// entities. Unbalanced markup simply leaves stray angle brackets behind.
func stripHTML(text string) string {
	text = scriptBlockRe.ReplaceAllString(text, " ")
	text = styleBlockRe.ReplaceAllString(text, " ")
	text = blockCloseRe.ReplaceAllString(text, "\n")
	text = anyTagRe.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	return text
}

func stripNonPrintable(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == ' ' {
			return r
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, text)
}

func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
