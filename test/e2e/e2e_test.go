// test/e2e/e2e_test.go
//
// Full-stack smoke test against real services. Requires a running Zeebe
// broker, PostgreSQL, Redis and the upstream gateway stubs; set
// E2E_TESTS=1 to run it.
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/database"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/gateways/catalog"
	"siba-workers/internal/gateways/channelmanager"
	"siba-workers/internal/gateways/localtax"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/dashboard"
	"siba-workers/internal/siba/reconcile"
	"siba-workers/internal/siba/status"
	"siba-workers/internal/siba/submission"

	bd "siba-workers/internal/workers/compliance/build-dashboard"
	rs "siba-workers/internal/workers/compliance/resolve-status"
	sr "siba-workers/internal/workers/registration/submit-registration"
	vr "siba-workers/internal/workers/registration/validate-registration"
)

var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger
)

func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") == "" {
		fmt.Println("E2E_TESTS not set, skipping e2e suite")
		os.Exit(0)
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to Zeebe: %v", err))
	}

	zapLog, _ = zap.NewProduction()

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func TestFullE2E(t *testing.T) {
	_, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assertAllServicesConnectivity(t, cfg)
	createDatabaseTables(t, cfg)
	testAllWorkers(t, cfg, zapLog)
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	assert.NoError(t, db.Ping(context.Background()), "PostgreSQL ping failed")
	db.Close()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	assert.NoError(t, rdb.Ping(context.Background()), "Redis ping failed")
	rdb.Close()

	_, err = zeebeClient.NewTopologyCommand().Send(context.Background())
	assert.NoError(t, err, "Zeebe topology request failed")
}

func createDatabaseTables(t *testing.T, cfg *config.Config) {
	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	db := dbClient.GetDB()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS siba_submission_journal (
			id VARCHAR(64) PRIMARY KEY,
			property_id BIGINT NOT NULL,
			reservation_code VARCHAR(255),
			submission_id VARCHAR(255),
			result VARCHAR(32) NOT NULL,
			warning TEXT,
			submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(context.Background(), query)
		if err != nil {
			t.Logf("Warning: failed to create table: %v", err)
		}
	}
}

// buildCore wires the full production graph over the configured gateways.
func buildCore(t *testing.T, cfg *config.Config) (*status.Resolver, *dashboard.Builder, *submission.Pipeline) {
	t.Helper()

	log := logger.NewZapAdapter(zapLog)

	channelManager := channelmanager.NewClient(cfg.Gateways.ChannelManager)
	localTax := localtax.NewClient(cfg.Gateways.LocalTax, log)
	propertyCatalog := catalog.NewClient(cfg.Gateways.Catalog)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { dbClient.Close() })

	resolver := status.NewResolver(channelManager, localTax, cfg.Policy, log)
	reconciler := reconcile.NewReconciler(channelManager, rdb.GetClient(), cfg.Policy.LookbackDays, log)
	validator := reconcile.NewValidator(reconciler, localTax, log)
	journal := submission.NewJournal(dbClient.GetDB(), log)
	pipeline := submission.NewPipeline(validator, localTax, journal, log)
	builder := dashboard.NewBuilder(propertyCatalog, resolver, channelManager, localTax, nil, cfg.Policy, log)

	return resolver, builder, pipeline
}

func testAllWorkers(t *testing.T, cfg *config.Config, log *zap.Logger) {
	resolver, builder, pipeline := buildCore(t, cfg)
	logAdapter := logger.NewZapAdapter(log)

	t.Run("resolve-status", func(t *testing.T) {
		handler, err := rs.NewHandler(rs.HandlerOptions{
			AppConfig: cfg,
			Resolver:  resolver,
			Logger:    logAdapter,
		})
		require.NoError(t, err)

		output := handler.Execute(context.Background(), &rs.Input{PropertyID: 1001})
		require.NotNil(t, output.Status)
		// Whatever the upstream stubs answer, the resolver must classify.
		assert.Contains(t, []models.StatusKind{
			models.StatusOnTime, models.StatusDueSoon, models.StatusOverdue,
		}, output.Status.Status)
	})

	t.Run("build-dashboard", func(t *testing.T) {
		handler, err := bd.NewHandler(bd.HandlerOptions{
			AppConfig: cfg,
			Builder:   builder,
			Logger:    logAdapter,
		})
		require.NoError(t, err)

		output := handler.Execute(context.Background())
		assert.NotZero(t, output.Dashboard.Summary.TotalProperties)
		assert.Len(t, output.Dashboard.Data, output.Dashboard.Summary.TotalProperties)
	})

	t.Run("validate-registration", func(t *testing.T) {
		handler, err := vr.NewHandler(vr.HandlerOptions{
			AppConfig: cfg,
			Validator: pipeline,
			Logger:    logAdapter,
		})
		require.NoError(t, err)

		output := handler.Execute(context.Background(), &vr.Input{
			PropertyID: 1001,
			Reservation: models.RawReservation{
				"guestName": "Maria Garcia",
				"checkIn":   "2026-07-01",
				"checkOut":  "2026-07-05",
				"adults":    float64(2),
			},
		})
		require.NotNil(t, output.Result)
		assert.True(t, output.Result.IsValid)
	})

	t.Run("validate-registration rejects bad stay", func(t *testing.T) {
		handler, err := vr.NewHandler(vr.HandlerOptions{
			AppConfig: cfg,
			Validator: pipeline,
			Logger:    logAdapter,
		})
		require.NoError(t, err)

		output := handler.Execute(context.Background(), &vr.Input{
			PropertyID: 1001,
			Reservation: models.RawReservation{
				"guestName": "Maria Garcia",
				"checkIn":   "2026-07-05",
				"checkOut":  "2026-07-01",
				"adults":    float64(2),
			},
		})
		require.NotNil(t, output.Result)
		assert.False(t, output.Result.IsValid)
	})

	t.Run("submit-registration", func(t *testing.T) {
		handler, err := sr.NewHandler(sr.HandlerOptions{
			AppConfig: cfg,
			Pipeline:  pipeline,
			Logger:    logAdapter,
		})
		require.NoError(t, err)

		output := handler.Execute(context.Background(), &sr.Input{
			PropertyID: 1001,
			Reservation: models.RawReservation{
				"guestName":       "Maria Garcia",
				"checkIn":         "2026-07-01",
				"checkOut":        "2026-07-05",
				"adults":          float64(2),
				"reservationCode": "RES-E2E-001",
			},
		})
		require.NotNil(t, output.Outcome)
		// With the tax platform down this degrades to a local record
		// instead of failing; either way there must be a submission ID.
		assert.NotEmpty(t, output.Outcome.SubmissionID)
	})
}
