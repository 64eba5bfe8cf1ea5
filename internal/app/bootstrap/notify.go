package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/notify"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Notification queue kinds accepted by NOTIFY_QUEUE.
const (
	QueueMemory = "memory"
	QueueSQS    = "sqs"
	QueueOff    = "off"
)

// BuildNotifyQueue returns the booking notification queue, or nil when
// notifications are disabled.
func BuildNotifyQueue(cfg *appconfig.Config, awsCfg aws.Config) (notify.Queue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	switch cfg.NotifyQueue {
	case "", QueueMemory:
		return notify.NewMemoryQueue(0), nil
	case QueueSQS:
		if strings.TrimSpace(cfg.NotifyQueueURL) == "" {
			return nil, fmt.Errorf("bootstrap: sqs queue: NOTIFY_QUEUE_URL is required")
		}
		return notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL), nil
	case QueueOff:
		return nil, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown NOTIFY_QUEUE %q", cfg.NotifyQueue)
	}
}

// BuildEmailSender selects the email provider. It falls back to the stub
// sender when the preferred provider is not configured, returning the chosen
// provider name and, on fallback, the reason.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (notify.EmailSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger), "stub", "missing config"
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return notify.NewStubEmailSender(logger), "stub", "SENDGRID_API_KEY not set"
		}
		return sender, "sendgrid", ""
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		return sender, "ses", ""
	case "", "stub":
		return notify.NewStubEmailSender(logger), "stub", ""
	default:
		return notify.NewStubEmailSender(logger), "stub", fmt.Sprintf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}
