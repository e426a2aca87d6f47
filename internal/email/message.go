package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// parseMessage converts one fetched buffer into a Message. Parsing never
// fails outright: a body that cannot be read as MIME is kept verbatim as the
// text body so extraction still has something to work with.
func parseMessage(
	buf *imapclient.FetchMessageBuffer,
	bodySection *imap.FetchItemBodySection,
	maxAttachmentSize int64,
	logger *zap.Logger,
) Message {
	msg := Message{UID: uint32(buf.UID)}

	if buf.Envelope != nil {
		msg.MessageID = buf.Envelope.MessageID
		msg.Subject = buf.Envelope.Subject
		msg.Date = buf.Envelope.Date
		if len(buf.Envelope.From) > 0 {
			msg.Sender = formatSender(buf.Envelope.From[0].Name, buf.Envelope.From[0].Addr())
		}
	}

	raw := buf.FindBodySection(bodySection)
	if len(raw) == 0 {
		return msg
	}

	text, html, attachments := parseMIMEBody(raw, maxAttachmentSize, logger)
	msg.TextBody = text
	msg.HTMLBody = html
	msg.Attachments = attachments
	return msg
}

func formatSender(name, addr string) string {
	if name == "" {
		return addr
	}
	if addr == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}

// parseMIMEBody walks the MIME tree and splits it into the plain body, the
// HTML body and the attachment list. Attachments over the size cap are
// dropped with a warning instead of aborting the whole message.
func parseMIMEBody(raw []byte, maxAttachmentSize int64, logger *zap.Logger) (
	textBody string, htmlBody string, attachments []Attachment,
) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("stopping MIME walk on unreadable part", zap.Error(err))
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") && textBody == "":
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := readCapped(part.Body, maxAttachmentSize)
			if readErr != nil {
				logger.Warn("skipping oversized attachment",
					zap.String("filename", filename),
					zap.Int64("limit_bytes", maxAttachmentSize))
				continue
			}

			attachments = append(attachments, Attachment{
				Filename:    filename,
				ContentType: contentType,
				Data:        body,
			})
		}
	}

	return textBody, htmlBody, attachments
}

var errTooLarge = fmt.Errorf("attachment exceeds size limit")

func readCapped(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, errTooLarge
	}
	return data, nil
}
