package digest

import (
	"context"
	"log"
)

// MockProvider logs digests instead of sending them. Used for local
// development when no SendGrid key is configured.
type MockProvider struct{}

func (MockProvider) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	log.Printf("INFO (MockProvider): MOCK EMAIL to=%s subject=%q html_bytes=%d text_bytes=%d",
		to, subject, len(htmlBody), len(textBody))
	return nil
}
