//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/directions"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/surface"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/trip"
	navEvents "github.com/Kilat-Pet-Delivery/service-navigation/internal/events"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/relay"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/repository"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// navigationStack holds wired-up navigation service components.
type navigationStack struct {
	Controller *application.SessionController
	Relay      *relay.Relay
	Journal    *application.TripJournal
	Consumer   *navEvents.CommandConsumer
	Cleanup    func()
}

// directionsResponse is a canned two-step route of roughly 2.2 km.
const directionsResponse = `{
  "code": "Ok",
  "routes": [{
    "distance": 2200,
    "duration": 180,
    "geometry": {"type": "LineString", "coordinates": [[101.6869, 3.139], [101.6969, 3.139], [101.7069, 3.139]]},
    "legs": [{
      "summary": "Jalan Ampang",
      "distance": 2200,
      "duration": 180,
      "steps": [
        {"name": "Jalan Ampang", "distance": 1100, "duration": 90,
         "maneuver": {"instruction": "Head east on Jalan Ampang", "location": [101.6869, 3.139]}},
        {"name": "", "distance": 1100, "duration": 90,
         "maneuver": {"instruction": "Continue straight", "location": [101.6969, 3.139]}}
      ]
    }]
  }]
}`

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a migrated GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start PostgreSQL container with log-based wait strategy.
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_navigation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbConfig := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_navigation",
		SSLMode:  "disable",
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	// Apply the versioned migrations the service ships with.
	logger, _ := zap.NewDevelopment()
	require.NoError(t, database.RunMigrations(dbConfig.DatabaseURL(), "migrations", logger))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, "navigation.commands", "navigation.trips")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupNavigationStack wires up the full navigation service stack against a
// fake directions API and a fast route replay.
func setupNavigationStack(t *testing.T, db *gorm.DB, brokers []string) *navigationStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	directionsAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(directionsResponse))
	}))

	tripRepo := repository.NewGormTripRepository(db)
	producer := kafka.NewProducer(brokers, logger)
	journal := application.NewTripJournal(tripRepo, producer, 16, logger)

	eventRelay := relay.New(logger)
	routeService := directions.NewClient(directions.Config{BaseURL: directionsAPI.URL}, logger)
	simulator := trip.NewSimulator(trip.Config{Tick: 20 * time.Millisecond, Speed: 5000}, logger)

	controller := application.NewSessionController(
		navigation.DefaultRouteRequestOptions(),
		eventRelay,
		routeService,
		simulator,
		surface.New(logger),
		journal,
		logger,
	)
	simulator.RegisterObserver(controller)

	groupID := fmt.Sprintf("test-navigation-%s", uuid.New().String()[:8])
	consumer := navEvents.NewCommandConsumer(brokers, groupID, controller, logger)

	return &navigationStack{
		Controller: controller,
		Relay:      eventRelay,
		Journal:    journal,
		Consumer:   consumer,
		Cleanup: func() {
			controller.Close()
			_ = consumer.Close()
			_ = producer.Close()
			directionsAPI.Close()
		},
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForTripStatus polls the trips table until a trip with the status exists.
func waitForTripStatus(t *testing.T, db *gorm.DB, expectedStatus string, timeout time.Duration) repository.TripModel {
	t.Helper()
	var result repository.TripModel
	require.Eventually(t, func() bool {
		var model repository.TripModel
		err := db.Where("status = ?", expectedStatus).Order("started_at DESC").First(&model).Error
		if err != nil {
			return false
		}
		result = model
		return true
	}, timeout, 200*time.Millisecond, "no trip reached status %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
