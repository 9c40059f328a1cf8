package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tireline/tireline/libs/config"
	"github.com/tireline/tireline/libs/db"
	"github.com/tireline/tireline/libs/httpx"
	"github.com/tireline/tireline/libs/kafkax"
	otelx "github.com/tireline/tireline/libs/otel"
	"github.com/tireline/tireline/libs/runtime"
	"github.com/tireline/tireline/services/notification-service/internal/consumer"
	"github.com/tireline/tireline/services/notification-service/internal/email"
	"github.com/tireline/tireline/services/notification-service/internal/i18n"
	"github.com/tireline/tireline/services/notification-service/internal/inbox"
	"github.com/tireline/tireline/services/notification-service/internal/outbox"
	"github.com/tireline/tireline/services/notification-service/internal/sms"
	"github.com/tireline/tireline/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// delivery is one concrete notification to send over one channel.
type delivery struct {
	AppointmentID string
	BranchID      string
	Kind          string
	Channel       string
	Recipient     string
	Locale        string
	TemplateData  map[string]any
}

func writeOutboxSent(ctx context.Context, pool *db.Pool, outboxRepo *outbox.Repository, d delivery, providerID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if strings.TrimSpace(providerID) == "" {
		providerID = "unknown"
	}
	eventPayload, err := json.Marshal(map[string]any{
		"appointment_id": d.AppointmentID,
		"branch_id":      d.BranchID,
		"kind":           d.Kind,
		"channel":        d.Channel,
		"provider_id":    providerID,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   d.AppointmentID,
		EventType:     "notification.sent.v1",
		Payload:       eventPayload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func writeOutboxFailed(ctx context.Context, pool *db.Pool, outboxRepo *outbox.Repository, d delivery, reason string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventPayload, err := json.Marshal(map[string]any{
		"appointment_id": d.AppointmentID,
		"branch_id":      d.BranchID,
		"kind":           d.Kind,
		"channel":        d.Channel,
		"error_reason":   reason,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   d.AppointmentID,
		EventType:     "notification.failed.v1",
		Payload:       eventPayload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// localTimeLabel renders an RFC 3339 instant for message bodies.
func localTimeLabel(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02 15:04")
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@tireline.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)
	emailProviderID := "smtp"

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	smsWebhookURL := config.String("SMS_WEBHOOK_URL", "")
	smsWebhookToken := config.String("SMS_WEBHOOK_TOKEN", "")
	var smsSender sms.Sender
	switch smsProvider {
	case "webhook":
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	case "noop":
		smsSender = sms.NewNoopSender()
	default:
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	}

	branchName := config.String("BRANCH_DISPLAY_NAME", "Tireline")
	failSuffix := config.String("NOTIFICATION_FAIL_SUFFIX", "")

	deliver := func(ctx context.Context, d delivery) error {
		if d.TemplateData == nil {
			d.TemplateData = map[string]any{}
		}
		if _, ok := d.TemplateData["branch_name"]; !ok {
			d.TemplateData["branch_name"] = branchName
		}

		status := "sent"
		failureReason := ""
		if failSuffix != "" && strings.HasSuffix(d.Recipient, failSuffix) {
			status = "failed"
			failureReason = "simulated failure"
		}

		providerID := ""
		if status == "sent" {
			msg, err := i18n.Render(d.Locale, d.Kind, d.TemplateData)
			if err != nil {
				status = "failed"
				failureReason = err.Error()
				logger.Error("message render failed", "err", err, "kind", d.Kind)
			} else {
				switch strings.ToLower(d.Channel) {
				case "email":
					if err := emailSender.Send(d.Recipient, msg.Subject, msg.Body); err != nil {
						status = "failed"
						failureReason = err.Error()
						logger.Error("email send failed", "err", err, "recipient", d.Recipient)
					} else {
						providerID = emailProviderID
					}
				case "sms":
					if err := smsSender.Send(ctx, d.Recipient, msg.Body); err != nil {
						status = "failed"
						failureReason = err.Error()
						logger.Error("sms send failed", "err", err, "recipient", d.Recipient)
					} else {
						providerID = smsSender.ProviderID()
					}
				default:
					status = "failed"
					failureReason = "unsupported channel: " + d.Channel
					logger.Error("unsupported channel", "channel", d.Channel)
				}
			}
		}

		if err := notificationsRepo.Insert(ctx, storage.Notification{
			AppointmentID: d.AppointmentID,
			BranchID:      d.BranchID,
			Kind:          d.Kind,
			Channel:       d.Channel,
			Recipient:     d.Recipient,
			Locale:        d.Locale,
			Payload:       d.TemplateData,
			Status:        status,
		}); err != nil {
			logger.Error("failed to persist notification", "err", err)
			return err
		}

		if status == "failed" {
			if err := writeOutboxFailed(ctx, pool, outboxRepo, d, failureReason); err != nil {
				logger.Error("failed to enqueue notification.failed", "err", err)
				return err
			}
		} else {
			if err := writeOutboxSent(ctx, pool, outboxRepo, d, providerID); err != nil {
				logger.Error("failed to enqueue notification.sent", "err", err)
				return err
			}
		}

		logger.Info("notification processed", "appointment_id", d.AppointmentID, "kind", d.Kind, "channel", d.Channel, "status", status)
		return nil
	}

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")

	type reminderPayload struct {
		AppointmentID string         `json:"appointment_id"`
		BranchID      string         `json:"branch_id"`
		Channel       string         `json:"channel"`
		Recipient     string         `json:"recipient"`
		Locale        string         `json:"locale"`
		RemindAt      string         `json:"remind_at"`
		TemplateData  map[string]any `json:"template_data"`
	}

	reminderConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_REMINDER_TOPIC", "scheduler.reminder.due.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload reminderPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid reminder payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.BranchID == "" || payload.Channel == "" || payload.Recipient == "" {
			logger.Error("missing reminder fields")
			return nil
		}
		data := payload.TemplateData
		if data == nil {
			data = map[string]any{}
		}
		if raw, ok := data["start_time"].(string); ok {
			data["start_time"] = localTimeLabel(raw)
		}
		return deliver(ctx, delivery{
			AppointmentID: payload.AppointmentID,
			BranchID:      payload.BranchID,
			Kind:          i18n.KindReminder,
			Channel:       payload.Channel,
			Recipient:     payload.Recipient,
			Locale:        payload.Locale,
			TemplateData:  data,
		})
	})
	go reminderConsumer.Run(ctx)

	type appointmentPayload struct {
		AppointmentID string `json:"appointment_id"`
		BranchID      string `json:"branch_id"`
		CustomerEmail string `json:"customer_email"`
		CustomerName  string `json:"customer_name"`
		VehiclePlate  string `json:"vehicle_plate"`
		Locale        string `json:"locale"`
		StartTime     string `json:"start_time"`
	}

	appointmentHandler := func(kind string) consumer.Handler {
		return func(ctx context.Context, msg kafka.Message) error {
			var payload appointmentPayload
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid appointment payload", "err", err)
				return nil
			}
			if payload.AppointmentID == "" || payload.BranchID == "" {
				logger.Error("missing appointment fields")
				return nil
			}
			if payload.CustomerEmail == "" {
				return nil
			}
			return deliver(ctx, delivery{
				AppointmentID: payload.AppointmentID,
				BranchID:      payload.BranchID,
				Kind:          kind,
				Channel:       "email",
				Recipient:     payload.CustomerEmail,
				Locale:        payload.Locale,
				TemplateData: map[string]any{
					"customer_name": payload.CustomerName,
					"vehicle_plate": payload.VehiclePlate,
					"start_time":    localTimeLabel(payload.StartTime),
				},
			})
		}
	}

	bookedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_BOOKED_TOPIC", "booking.appointment.booked.v1"),
	}, appointmentHandler(i18n.KindConfirmation))
	go bookedConsumer.Run(ctx)

	cancelledConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CANCELLED_TOPIC", "booking.appointment.cancelled.v1"),
	}, appointmentHandler(i18n.KindCancellation))
	go cancelledConsumer.Run(ctx)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
