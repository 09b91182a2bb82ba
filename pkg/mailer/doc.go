// Package mailer delivers job status notifications to users.
//
// The Sender interface keeps the job layer provider-agnostic: the resend
// subpackage implements it over the Resend API, and Noop drops messages for
// deployments that run without notifications.
package mailer
