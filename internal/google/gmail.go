package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/digest"
)

// Mailer sends digests through the Gmail API as the authenticated user.
type Mailer struct {
	svc *gmail.Service

	To         string
	From       string
	SenderName string
}

// NewMailer builds a Gmail-backed Mailer.
func NewMailer(ctx context.Context, credentialsFile, to, from, senderName string) (*Mailer, error) {
	opt, err := clientOption(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, opt)
	if err != nil {
		return nil, err
	}
	return &Mailer{svc: svc, To: to, From: from, SenderName: senderName}, nil
}

func (m *Mailer) Send(ctx context.Context, mail digest.Mail) error {
	raw := base64.URLEncoding.EncodeToString(m.mimeMessage(mail))
	_, err := m.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	slog.Info(config.MsgMailSent,
		config.LogKeyComponent, config.CompMail,
		config.LogKeyTo, m.To,
		config.LogKeySubject, mail.Subject,
	)
	return nil
}

// mimeMessage assembles the RFC 5322 payload. Subject and sender name are
// Q-encoded so emoji and umlauts survive transport.
func (m *Mailer) mimeMessage(mail digest.Mail) []byte {
	var b strings.Builder
	from := m.From
	if m.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.SenderName), m.From)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", mail.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(mail.HTML)
	return []byte(b.String())
}
