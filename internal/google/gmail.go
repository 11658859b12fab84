package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"
)

const defaultSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

type Gmail struct {
	creds  Credentials
	apiURL string
	logger *slog.Logger
}

func NewGmail(creds Credentials, logger *slog.Logger) *Gmail {
	return &Gmail{creds: creds, apiURL: defaultSendURL, logger: logger}
}

// Ready reports whether mail credentials are available.
func (g *Gmail) Ready(ctx context.Context) bool {
	return Available(ctx, g.creds)
}

// SendHTML sends an HTML message as the authorised user and returns the message id.
func (g *Gmail) SendHTML(ctx context.Context, to, subject, html string) (string, error) {
	client, err := g.creds.Client(ctx)
	if err != nil {
		return "", err
	}

	raw := base64.URLEncoding.EncodeToString(buildMessage(to, subject, html))

	var sent struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	}
	if err := postJSON(ctx, client, g.apiURL, map[string]string{"raw": raw}, &sent); err != nil {
		return "", err
	}

	g.logger.Info("email sent", "to", to, "message_id", sent.ID)
	return sent.ID, nil
}

// buildMessage renders an RFC 2822 message with a single HTML part.
func buildMessage(to, subject, html string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", sanitizeHeader(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", sanitizeHeader(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("\r\n")

	body := base64.StdEncoding.EncodeToString([]byte(html))
	for len(body) > 76 {
		b.WriteString(body[:76])
		b.WriteString("\r\n")
		body = body[76:]
	}
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.Bytes()
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
