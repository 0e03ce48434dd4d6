//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/dialogue"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/movement"
	wayfinderEvents "github.com/wayfinder-labs/service-wayfinding/internal/events"
	"github.com/wayfinder-labs/service-wayfinding/internal/mapping"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/database"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/kafka"
	"github.com/wayfinder-labs/service-wayfinding/internal/proto/events"
	"github.com/wayfinder-labs/service-wayfinding/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// wayfindingStack holds wired-up wayfinding service components.
type wayfindingStack struct {
	Navigation      *application.NavigationService
	Assistant       *application.AssistantService
	Consumer        *wayfinderEvents.DestinationEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers, applies the SQL migrations
// and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	// Start PostgreSQL container with log-based wait strategy.
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_wayfinding",
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
		DBName:   "test_wayfinding",
		SSLMode:  "disable",
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dbConfig, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dbConfig.DatabaseURL(), "migrations", logger))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, events.TopicNavigationEvents, events.TopicDialogueEvents)

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

// startMappingEngine serves a two-space venue with one elevator route between them.
func startMappingEngine(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /venues/test-venue/locations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"locations": []map[string]string{
				{"id": "s-oasis", "name": "RBC Oasis Tent", "type": "space"},
				{"id": "s-food", "name": "Food Court", "type": "space"},
				{"id": "c-elev", "name": "Elevator A", "type": "connection"},
			},
		})
	})
	mux.HandleFunc("POST /venues/test-venue/directions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"distance": 31.4,
			"instructions": []map[string]any{
				{"action": map[string]string{"type": "Departure"}, "distance": 12.3},
				{"action": map[string]string{"type": "Turn", "bearing": "Left"}, "distance": 6.1},
				{"action": map[string]string{"type": "TakeConnection"}, "distance": 0},
				{"action": map[string]string{"type": "ExitConnection"}, "distance": 0},
				{"action": map[string]string{"type": "Arrival"}, "distance": 13},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// startDialogueEngine replies with a fixed text trace to every interaction.
func startDialogueEngine(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"type": "path", "payload": map[string]string{"path": "capture"}},
			{"type": "text", "payload": map[string]string{"message": reply}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupWayfindingStack wires up the full wayfinding service stack.
func setupWayfindingStack(t *testing.T, db *gorm.DB, brokers []string, movementSink string) *wayfindingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	mappingEngine := startMappingEngine(t)
	dialogueEngine := startDialogueEngine(t, "Great, let's go to the Food Court.")

	destinationRepo := repository.NewGormDestinationRepository(db)
	producer := kafka.NewProducer(brokers, logger)
	navigationSvc := application.NewNavigationService(
		mapping.NewClient(mapping.Config{BaseURL: mappingEngine.URL, MapID: "test-venue", Timeout: 5 * time.Second}),
		newSink(db, movementSink),
		producer,
		application.NavigationOptions{DefaultStart: "RBC Oasis Tent", Accessible: true, RoundDistances: true},
		logger,
	)
	destinationSvc := application.NewDestinationService(destinationRepo, logger)
	assistantSvc := application.NewAssistantService(
		dialogue.NewClient(dialogue.Config{BaseURL: dialogueEngine.URL, Timeout: 5 * time.Second}),
		destinationRepo,
		navigationSvc,
		nil,
		application.NewTurnCoordinator(),
		10*time.Second,
		logger,
	)

	groupID := fmt.Sprintf("test-wayfinding-%s", uuid.New().String()[:8])
	consumer := wayfinderEvents.NewDestinationEventConsumer(brokers, groupID, destinationSvc, logger)

	return &wayfindingStack{
		Navigation:      navigationSvc,
		Assistant:       assistantSvc,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

func newSink(db *gorm.DB, mode string) movement.Sink {
	if mode == "batch" {
		return repository.NewGormBatchMovementRepository(db)
	}
	return repository.NewGormStepMovementRepository(db)
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

// waitForDestination polls the destinations table until a row with name appears.
func waitForDestination(t *testing.T, db *gorm.DB, name string, timeout time.Duration) repository.DestinationModel {
	t.Helper()
	var result repository.DestinationModel
	require.Eventually(t, func() bool {
		var model repository.DestinationModel
		if err := db.Where("name = ?", name).First(&model).Error; err != nil {
			return false
		}
		result = model
		return true
	}, timeout, 200*time.Millisecond, "destination %q was not recorded", name)
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
