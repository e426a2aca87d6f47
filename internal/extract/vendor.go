package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	addressRe     = regexp.MustCompile(`[A-Za-z0-9._%+-]{1,64}@[A-Za-z0-9.-]{1,120}\.[A-Za-z]{2,24}`)
	angleBlockRe  = regexp.MustCompile(`<[^>]{0,256}>`)
	namespaceRe   = regexp.MustCompile(`(?:xmlns|rdf|xsi):[^\s]{0,64}`)
	bareURLRe     = regexp.MustCompile(`(?:https?://|www\.)[^\s]{1,256}`)
	multiSpaceRe  = regexp.MustCompile(`\s{2,}`)
	nonAlphaNumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// genericSubdomains are infrastructure prefixes stripped from sender domains
// so that billing@mail.acme.com resolves to acme.com.
var genericSubdomains = []string{
	"mail", "smtp", "email", "mx", "mailer", "bounce", "send", "post",
	"noreply", "no-reply", "notifications", "notification", "news", "newsletter",
}

// genericLocalParts identify automated sender mailboxes that carry no vendor
// information of their own.
var genericLocalParts = []string{"noreply", "no-reply", "donotreply"}

// subjectExcerptWords is how many leading subject words the vendor label
// borrows when the sender has no display name.
const subjectExcerptWords = 3

const vendorPartMax = 30

// VendorResolver derives a human-usable vendor label from the sender header
// and, when the header carries no display name, the subject line. It holds
// no state and is safe for concurrent use.
type VendorResolver struct{}

// NewVendorResolver creates a VendorResolver.
func NewVendorResolver() *VendorResolver {
	return &VendorResolver{}
}

// ResolveFromSender composes the vendor label:
//
//	"Acme Corp" <billing@mail.acme.com>  -> "acme.com - Acme Corp"
//	noreply@cloudhost.io + subject        -> "cloudhost.io - <first words>"
//	bare address, no subject              -> "cloudhost.io"
//	nothing parseable                     -> "Remitente desconocido"
func (r *VendorResolver) ResolveFromSender(senderHeader, subject string) string {
	address := addressRe.FindString(senderHeader)
	if address == "" {
		return SanitizeVendorLabel(salvageSenderToken(senderHeader))
	}

	domain := stripGenericSubdomains(domainOf(address))

	label := domain
	if name := displayName(senderHeader, address); name != "" && !strings.EqualFold(name, domain) {
		label = domain + " - " + ellipsize(name, vendorPartMax)
	} else if excerpt := subjectExcerpt(subject); excerpt != "" {
		label = domain + " - " + excerpt
	}

	return SanitizeVendorLabel(label)
}

// DomainFromSender returns only the cleaned sender domain, or "" when the
// header contains no parseable address. The pipeline's fallback record uses
// it when full resolution is unavailable.
func (r *VendorResolver) DomainFromSender(senderHeader string) string {
	address := addressRe.FindString(senderHeader)
	if address == "" {
		return ""
	}
	return stripGenericSubdomains(domainOf(address))
}

// SanitizeVendorLabel removes markup and namespace artifacts so the label
// never leaks raw HTML/RDF fragments into the tracking sheet.
func SanitizeVendorLabel(label string) string {
	label = angleBlockRe.ReplaceAllString(label, " ")
	label = namespaceRe.ReplaceAllString(label, " ")
	label = bareURLRe.ReplaceAllString(label, " ")
	label = multiSpaceRe.ReplaceAllString(label, " ")
	label = strings.TrimSpace(label)
	if label == "" {
		return VendorUnknown
	}
	return label
}

func domainOf(address string) string {
	at := strings.LastIndexByte(address, '@')
	return strings.ToLower(address[at+1:])
}

func stripGenericSubdomains(domain string) string {
	for changed := true; changed; {
		changed = false
		for _, prefix := range genericSubdomains {
			rest, ok := strings.CutPrefix(domain, prefix+".")
			// Never strip down to a bare TLD.
			if ok && strings.Contains(rest, ".") {
				domain = rest
				changed = true
			}
		}
	}
	return domain
}

// displayName extracts the quoted or unquoted name preceding the address,
// e.g. `"Acme Corp" <billing@acme.com>` or `Acme Corp <billing@acme.com>`.
func displayName(senderHeader, address string) string {
	idx := strings.Index(senderHeader, address)
	if idx < 0 {
		return ""
	}
	name := senderHeader[:idx]
	name = strings.TrimRight(name, " \t<")
	name = strings.Trim(name, `"' `)
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsRune(name, '@') {
		return ""
	}
	return name
}

func subjectExcerpt(subject string) string {
	words := strings.Fields(subject)
	if len(words) == 0 {
		return ""
	}
	if len(words) > subjectExcerptWords {
		words = words[:subjectExcerptWords]
	}
	return ellipsize(strings.Join(words, " "), vendorPartMax)
}

func ellipsize(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// salvageSenderToken recovers a short alphanumeric token from a sender
// string that contains no parseable address.
func salvageSenderToken(senderHeader string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || r == '"' || r == '\'' {
			return ' '
		}
		return r
	}, senderHeader)

	for _, token := range strings.Fields(cleaned) {
		token = nonAlphaNumRe.ReplaceAllString(token, "")
		if token == "" {
			continue
		}
		if !containsLetterOrDigit(token) {
			continue
		}
		if len(token) > 50 {
			token = token[:50]
		}
		return token
	}
	return VendorUnknown
}

func containsLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
