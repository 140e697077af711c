package digest

import "context"

// Provider is the adapter interface for outbound mail transports.
// Implementations send a single message and surface transport failure to
// the caller instead of panicking into the scheduler's clock loop.
type Provider interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
