package cmd

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/school-core/internal/core/events"
	"github.com/frahmantamala/school-core/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the in-process event bus: publish sample school events through the registered subscribers`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample event",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{events.EventTypeUploadCompleted, events.EventTypePermissionDenied, events.EventTypeProjectStatusChanged},
	Run: func(cmd *cobra.Command, args []string) {
		publishSampleEvent(cmd.Context(), args[0])
	},
}

var eventProjectID int64

// registerEventSubscribers logs every domain event. The bus delivers
// asynchronously, so slow subscribers never hold up a request.
func registerEventSubscribers(bus *events.EventBus, lg *slog.Logger) {
	logEvent := func(ctx context.Context, event events.Event) error {
		lg.Info("domain event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	}
	bus.Subscribe(events.EventTypeUploadCompleted, logEvent)
	bus.Subscribe(events.EventTypePermissionDenied, logEvent)
	bus.Subscribe(events.EventTypeProjectStatusChanged, logEvent)
}

func sampleEvent(eventType string, projectID int64) events.Event {
	switch eventType {
	case events.EventTypeUploadCompleted:
		return events.NewUploadCompletedEvent(projectID, 0, "attendance", "succeeded", 1, 1)
	case events.EventTypePermissionDenied:
		return events.NewPermissionDeniedEvent(projectID, 0, "role.create")
	default:
		return events.NewProjectStatusChangedEvent(projectID, 0, "suspended")
	}
}

func publishSampleEvent(ctx context.Context, eventType string) {
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	registerEventSubscribers(bus, lg)

	event := sampleEvent(eventType, eventProjectID)
	lg.Info("publishing sample event", "event_type", eventType, "event_id", event.EventID())

	if err := bus.PublishSync(ctx, event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	lg.Info("sample event published")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventProjectID, "project", 1, "project id carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
