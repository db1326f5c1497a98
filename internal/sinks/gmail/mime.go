package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// buildRawMessage собирает plain-text MIME сообщение и кодирует его в
// base64url, как того требует messages.send.
func buildRawMessage(from, to, subject, body string) string {
	var b strings.Builder
	writeHeader := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	writeHeader("From", from)
	writeHeader("To", to)
	writeHeader("Subject", subject)
	writeHeader("Message-ID", fmt.Sprintf("<%s@payfail-relay>", uuid.New().String()))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/plain; charset="UTF-8"`)
	b.WriteString("\r\n")
	b.WriteString(body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
