//go:build integration

package main_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vostok-promo/service-voucher/internal/application"
	brandDomain "github.com/vostok-promo/service-voucher/internal/domain/brand"
	campaignDomain "github.com/vostok-promo/service-voucher/internal/domain/campaign"
	"github.com/vostok-promo/service-voucher/internal/events"
	"github.com/vostok-promo/service-voucher/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB      *gorm.DB
	Cleanup func()
}

// voucherStack holds the wired-up engine components backed by a real database.
type voucherStack struct {
	Service  *application.VoucherService
	Vouchers *repository.GormVoucherRepository
}

// setupDatabase starts a PostgreSQL testcontainer and returns a connected GORM DB
// with the schema migrated.
func setupDatabase(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_voucher",
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

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_voucher sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.CampaignModel{},
		&repository.BrandModel{},
		&repository.UserModel{},
		&repository.VoucherModel{},
		&repository.WinnerModel{},
		&repository.ActivationLogModel{},
	))

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{DB: db, Cleanup: cleanup}
}

// setupVoucherStack wires the voucher service against the real database with a
// no-op event publisher.
func setupVoucherStack(t *testing.T, db *gorm.DB) *voucherStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	voucherRepo := repository.NewGormVoucherRepository(db)
	activationRepo := repository.NewGormActivationLogRepository(db)
	campaignRepo := repository.NewGormCampaignRepository(db)
	brandRepo := repository.NewGormBrandRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	svc := application.NewVoucherService(
		voucherRepo, activationRepo, campaignRepo, brandRepo, userRepo,
		events.NoopPublisher{}, 10000, 7, logger,
	)
	return &voucherStack{Service: svc, Vouchers: voucherRepo}
}

// seedCampaign inserts a running campaign requiring minVouchers across minBrands.
func seedCampaign(t *testing.T, db *gorm.DB, minVouchers, minBrands int) *campaignDomain.Campaign {
	t.Helper()
	start := time.Now().UTC().Add(-time.Hour)
	camp, err := campaignDomain.NewCampaign("Integration promo", "", start, start.Add(48*time.Hour), 5000, minVouchers, minBrands)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormCampaignRepository(db).Save(context.Background(), camp))
	return camp
}

// seedBrand inserts a brand.
func seedBrand(t *testing.T, db *gorm.DB, name, slug string) *brandDomain.Brand {
	t.Helper()
	b, err := brandDomain.NewBrand(name, slug)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormBrandRepository(db).Save(context.Background(), b))
	return b
}
