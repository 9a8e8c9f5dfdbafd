// Package queue carries password reset mails through RabbitMQ so the API
// never waits on SMTP.
package queue

// PasswordResetQueue is the durable queue reset mails travel through.
const PasswordResetQueue = "mail.password_reset"

// PasswordResetRequested is published when a user asks for a reset link.
type PasswordResetRequested struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	RequestedAt string `json:"requested_at"`
}
