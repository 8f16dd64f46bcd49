// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report delivers the captured run log to stakeholders as an
// email attachment via SES.
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// api is the subset of the SES client the mailer uses. Tests substitute
// a recording implementation.
type api interface {
	SendRawEmail(ctx context.Context, in *ses.SendRawEmailInput, opts ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Mailer sends run-log emails.
type Mailer struct {
	client api
	cfg    types.EmailConfig
}

// NewMailer returns a Mailer sending from and to the configured addresses.
func NewMailer(client api, cfg types.EmailConfig) *Mailer {
	return &Mailer{client: client, cfg: cfg}
}

// SendLog emails the captured run log as a text attachment.
func (m *Mailer) SendLog(ctx context.Context, subject, attachmentName string, logContent []byte) error {
	raw := BuildRawEmail(m.cfg.SourceAddress, m.cfg.RecipientAddress, subject, attachmentName, logContent)
	_, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.cfg.SourceAddress),
		Destinations: []string{m.cfg.RecipientAddress},
		RawMessage:   &sestypes.RawMessage{Data: raw},
	})
	if err != nil {
		return fmt.Errorf("sending log email to %s: %w", m.cfg.RecipientAddress, err)
	}
	return nil
}

// mimeBoundary separates the parts of the multipart message. Static is
// fine: the attachment is base64-encoded, so the boundary cannot occur
// in a part body.
const mimeBoundary = "awd-log-attachment"

// BuildRawEmail renders a multipart MIME message with one attachment,
// the shape SES SendRawEmail expects.
func BuildRawEmail(from, to, subject, attachmentName string, attachment []byte) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", mimeBoundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", attachmentName)
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		buf.WriteString(encoded[:n])
		buf.WriteString("\r\n")
		encoded = encoded[n:]
	}

	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}
