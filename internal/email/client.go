package email

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/config"
)

// Client wraps go-imap v2 for searching and downloading invoice emails.
// Each operation dials its own connection; the client itself holds only
// configuration and is safe for concurrent use.
type Client struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewClient creates an IMAP client from configuration.
func NewClient(cfg config.EmailConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger}
}

// connect dials the server over TLS, authenticates and selects the mailbox.
// The caller owns the returned client and must Logout.
func (c *Client) connect(_ context.Context) (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.cfg.Server, c.cfg.Port)

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", c.cfg.Username, err)
	}

	mailbox := c.cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	return client, nil
}

// TestConnection dials, authenticates and reports the number of messages in
// the configured mailbox.
func (c *Client) TestConnection(ctx context.Context) (uint32, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Logout().Wait() }()

	mailbox := client.Mailbox()
	if mailbox == nil {
		return 0, fmt.Errorf("no mailbox selected")
	}
	return mailbox.NumMessages, nil
}

// Search finds messages matching the filter and downloads each one in full,
// bodies and attachments included.
func (c *Client) Search(ctx context.Context, filter SearchFilter) ([]Message, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	searchData, err := client.UIDSearch(buildSearchCriteria(filter), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Most recent messages win when the window exceeds the limit.
	if filter.Limit > 0 && len(uids) > filter.Limit {
		uids = uids[len(uids)-filter.Limit:]
	}

	c.logger.Info("fetching messages",
		zap.Int("count", len(uids)),
		zap.Int("limit", filter.Limit))

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)

	var messages []Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			c.logger.Warn("skipping message that failed to download", zap.Error(err))
			continue
		}

		messages = append(messages, parseMessage(buf, bodySection, c.cfg.MaxAttachmentSize, c.logger))
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	return messages, nil
}

// buildSearchCriteria translates the filter into IMAP search criteria.
// Multiple keywords fold into a right-leaning OR tree over the subject
// header, matching how IMAP expresses disjunction.
func buildSearchCriteria(filter SearchFilter) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{
		Since:  filter.Since,
		Before: filter.Before,
	}

	if len(filter.Keywords) == 0 {
		return criteria
	}

	acc := subjectCriteria(filter.Keywords[0])
	for _, kw := range filter.Keywords[1:] {
		acc = imap.SearchCriteria{
			Or: [][2]imap.SearchCriteria{{acc, subjectCriteria(kw)}},
		}
	}

	criteria.Or = acc.Or
	criteria.Header = acc.Header
	return criteria
}

func subjectCriteria(keyword string) imap.SearchCriteria {
	return imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "Subject", Value: keyword},
		},
	}
}
