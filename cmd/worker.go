package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/finance-ops/internal/notification"
	"github.com/frahmantamala/finance-ops/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage the background worker pools of the service.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the webhook notification worker pool",
	Long:  `Start the notification dispatcher and keep it running until interrupted. With --ping a test notification is queued on start.`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	webhookURL   string
	sendPing     bool
)

func startNotificationWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	dispatcherConfig := notification.Config{
		WebhookURL: getStringFlag(webhookURL, config.Notification.WebhookURL),
		Timeout:    config.Notification.Timeout,
		MaxWorkers: getIntFlag(maxWorkers, config.Notification.MaxWorkers),
		QueueSize:  getIntFlag(jobQueueSize, config.Notification.QueueSize),
	}

	dispatcher := notification.NewDispatcher(dispatcherConfig, logger)
	if !dispatcher.Enabled() {
		logger.Error("notification worker needs a webhook url")
		os.Exit(1)
	}
	dispatcher.Start()

	if sendPing {
		id := uuid.NewString()
		job := notification.Job{
			EventID:   id,
			EventType: "notification.ping",
			Payload: notification.Notification{
				EventID:    id,
				EventType:  "notification.ping",
				OccurredAt: time.Now().UTC(),
			},
		}
		if err := dispatcher.Enqueue(job); err != nil {
			logger.Warn("failed to queue ping", "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("notification worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down notification worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		dispatcher.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("notification worker pool shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL (overrides config)")
	notificationWorkerCmd.Flags().BoolVar(&sendPing, "ping", false, "Queue a test notification on start")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
