package mailer

import "context"

// Noop is a Sender that silently drops every message. Used in tests and in
// deployments where user notifications are not required.
type Noop struct{}

// Send implements Sender.
func (Noop) Send(_ context.Context, _ *Email) error {
	return nil
}

// Ensure Noop implements Sender.
var _ Sender = Noop{}
