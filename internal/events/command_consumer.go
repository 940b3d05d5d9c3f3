package events

import (
	"context"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/contracts"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Navigator is the command surface the consumer drives.
type Navigator interface {
	BuildRoute(ctx context.Context, waypoints []navigation.Waypoint, overrides navigation.Overrides) (uint64, error)
	ClearRoute(ctx context.Context)
	StartNavigation(ctx context.Context, overrides navigation.Overrides) bool
	FinishNavigation(ctx context.Context) bool
	StartFreeDrive(ctx context.Context) error
}

// CommandConsumer listens to navigation commands published on the bus.
type CommandConsumer struct {
	consumer  *kafka.Consumer
	navigator Navigator
	logger    *zap.Logger
}

// NewCommandConsumer creates a new CommandConsumer.
func NewCommandConsumer(
	brokers []string,
	groupID string,
	navigator Navigator,
	logger *zap.Logger,
) *CommandConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, contracts.TopicNavigationCommands, logger)
	return &CommandConsumer{
		consumer:  consumer,
		navigator: navigator,
		logger:    logger,
	}
}

// Start begins consuming commands. This blocks until the context is cancelled.
func (c *CommandConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CommandConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CommandConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from command topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.dispatch(ctx, cloudEvent)
}

func (c *CommandConsumer) dispatch(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	switch cloudEvent.Type {
	case contracts.CommandBuildRoute:
		return c.handleBuildRoute(ctx, cloudEvent)
	case contracts.CommandClearRoute:
		c.navigator.ClearRoute(ctx)
		return nil
	case contracts.CommandStartNavigation:
		return c.handleStartNavigation(ctx, cloudEvent)
	case contracts.CommandFinishNavigation:
		hadRoute := c.navigator.FinishNavigation(ctx)
		c.logger.Info("finish navigation command processed", zap.Bool("had_route", hadRoute))
		return nil
	case contracts.CommandStartFreeDrive:
		if err := c.navigator.StartFreeDrive(ctx); err != nil {
			c.logger.Error("failed to start free drive", zap.Error(err))
		}
		return nil
	default:
		c.logger.Debug("ignoring unhandled command type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *CommandConsumer) handleBuildRoute(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var cmd contracts.BuildRouteCommand
	if err := cloudEvent.ParseData(&cmd); err != nil {
		c.logger.Error("failed to parse BuildRouteCommand data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	req := application.BuildRouteRequest{Options: cmd.Options}
	for _, w := range cmd.Waypoints {
		req.Waypoints = append(req.Waypoints, navigation.WaypointDTO{
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
			IsSilent:  w.IsSilent,
			Name:      w.Name,
		})
	}

	var gen uint64
	waypoints, overrides, err := req.Parse()
	if err == nil {
		gen, err = c.navigator.BuildRoute(ctx, waypoints, overrides)
	}
	if err != nil {
		c.logger.Warn("rejected build route command",
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		return nil // Invalid commands are not retried
	}

	c.logger.Info("build route command accepted",
		zap.String("event_id", cloudEvent.ID),
		zap.Uint64("generation", gen),
		zap.Int("waypoints", len(waypoints)),
	)
	return nil
}

func (c *CommandConsumer) handleStartNavigation(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var cmd contracts.StartNavigationCommand
	if len(cloudEvent.Data) > 0 && string(cloudEvent.Data) != "null" {
		if err := cloudEvent.ParseData(&cmd); err != nil {
			c.logger.Error("failed to parse StartNavigationCommand data",
				zap.Error(err),
			)
			return nil // Don't retry malformed data
		}
	}

	req := application.StartNavigationRequest{Options: cmd.Options}
	started := c.navigator.StartNavigation(ctx, req.Overrides())
	c.logger.Info("start navigation command processed",
		zap.String("event_id", cloudEvent.ID),
		zap.Bool("started", started),
	)
	return nil
}
