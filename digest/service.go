package digest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"

	"github.com/coreybb/resurface/models"
)

const digestSubject = "Your Resurface digest"

// UserStore is the read surface the dispatcher needs to resolve a
// recipient at fire time.
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// ItemStore supplies digest content.
type ItemStore interface {
	GetRecentItemsByUserID(ctx context.Context, userID string, limit int) ([]models.Item, error)
}

// Service renders and transmits one digest email per dispatch. It
// satisfies scheduler.Dispatcher.
type Service struct {
	users       UserStore
	items       ItemStore
	provider    Provider
	titlePolicy *bluemonday.Policy
}

func NewService(users UserStore, items ItemStore, provider Provider) *Service {
	return &Service{
		users:       users,
		items:       items,
		provider:    provider,
		titlePolicy: bluemonday.StripTagsPolicy(),
	}
}

// DispatchDigest emails userID their itemCount most recently saved items,
// newest first. The recipient address is resolved here, at fire time, so
// an email change between schedule time and fire time is always honored.
// A transport failure is returned to the caller; there is no retry before
// the next scheduled occurrence.
func (s *Service) DispatchDigest(ctx context.Context, userID string, itemCount int) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve digest recipient %s: %w", userID, err)
	}

	items, err := s.items.GetRecentItemsByUserID(ctx, userID, itemCount)
	if err != nil {
		return fmt.Errorf("failed to load digest items for user %s: %w", userID, err)
	}

	htmlBody := s.formatBody(items)
	textBody, err := html2text.FromString(htmlBody, html2text.Options{TextOnly: true})
	if err != nil {
		// A digest without a plaintext part is still deliverable.
		log.Printf("WARN (Digest): Plaintext conversion failed for user %s: %v", userID, err)
		textBody = ""
	}

	if err := s.provider.Send(ctx, user.Email, digestSubject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send digest to %s: %w", user.Email, err)
	}

	log.Printf("INFO (Digest): Sent digest with %d items to %s", len(items), user.Email)
	return nil
}

// formatBody renders the HTML digest. Titles pass through the strip-tags
// policy because imported pages control their contents.
func (s *Service) formatBody(items []models.Item) string {
	var b strings.Builder
	b.WriteString("<h2>Time to resurface your reading list</h2>\n")

	if len(items) == 0 {
		b.WriteString("<p>You have no saved items yet. Save something worth revisiting!</p>\n")
		return b.String()
	}

	b.WriteString("<ul>\n")
	for _, item := range items {
		title := strings.TrimSpace(s.titlePolicy.Sanitize(item.Title))
		if title == "" {
			title = item.URL
		}
		b.WriteString(fmt.Sprintf("<li><a href=%q>%s</a>", item.URL, title))
		if item.WordCount > 0 {
			b.WriteString(fmt.Sprintf(" <small>(%d words)</small>", item.WordCount))
		}
		b.WriteString(fmt.Sprintf(", saved %s</li>\n", item.TimeAdded.Format("Jan 2, 2006")))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
