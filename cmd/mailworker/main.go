// Command mailworker delivers password-reset mail queued by the API server
// when MAIL_TRANSPORT=queue.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/snapgram/internal/config"
	"github.com/iliyamo/snapgram/internal/mail"
	"github.com/iliyamo/snapgram/internal/queue"
)

func main() {
	logger := log.New("mailworker")

	cfg, err := config.Read()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	var sender mail.Sender
	if m := cfg.Mail; m.SMTPHost != "" {
		sender = mail.NewSMTPSender(m.SMTPHost, m.SMTPPort, m.SMTPUser, m.SMTPPass, m.From, m.RootURL)
	} else {
		logger.Warn("SMTP_HOST not set; reset links are only logged")
		sender = mail.NewLogSender(logger, m.RootURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("consuming %s", queue.PasswordResetQueue)
	if err := queue.StartResetMailConsumer(ctx, cfg.RabbitMQURL, sender, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("consumer: %v", err)
	}
	logger.Info("stopped")
}
