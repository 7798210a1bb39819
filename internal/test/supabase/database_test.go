package supabase_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"layertext-backend/internal/database"
	"layertext-backend/internal/models"
	"layertext-backend/internal/supabase"
)

var testDB *supabase.DatabaseClient

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, dsn, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres container unavailable, skipping database tests: %v\n", err)
		os.Exit(m.Run())
	}

	testDB, err = supabase.NewDatabaseClient(dsn)
	if err == nil {
		err = database.NewMigrator(testDB.DB(), zap.NewNop()).Run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare database: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()
	_ = testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "layertext",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, "", err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return container, "", err
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/layertext?sslmode=disable", host, port.Port())
	return container, dsn, nil
}

func db(t *testing.T) *supabase.DatabaseClient {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres is not available")
	}
	return testDB
}

func newUserID() string {
	return "user-" + uuid.NewString()
}

func createUpload(t *testing.T, d *supabase.DatabaseClient, userID string) *models.Upload {
	t.Helper()
	upload := &models.Upload{
		ID:             uuid.New(),
		UserID:         userID,
		SourceImageURL: "https://storage.test/uploads/photo.png",
	}
	require.NoError(t, d.CreateUpload(context.Background(), upload))
	return upload
}

func TestMigrator_IsIdempotent(t *testing.T) {
	d := db(t)

	assert.NoError(t, database.NewMigrator(d.DB(), zap.NewNop()).Run(context.Background()))
}

func TestCredits_EnsureProvisionsOnce(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := d.EnsureCreditBalance(ctx, userID, 10)
			return err
		})
	}
	require.NoError(t, g.Wait())

	balance, err := d.GetCreditBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)

	txns, err := d.ListCreditTransactions(ctx, userID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestCredits_ConcurrentDecrementNeverOverdraws(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	_, err := d.EnsureCreditBalance(ctx, userID, 5)
	require.NoError(t, err)

	var succeeded atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := d.DecrementCredits(ctx, userID, 1, models.CreditReasonProcessing, "")
			if errors.Is(err, models.ErrConditionFailed) {
				return nil
			}
			if err == nil {
				succeeded.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(5), succeeded.Load())
	balance, err := d.GetCreditBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Credits)

	txns, err := d.ListCreditTransactions(ctx, userID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 6)
}

func TestCredits_IncrementUnknownUser(t *testing.T) {
	d := db(t)

	_, err := d.IncrementCredits(context.Background(), newUserID(), 5, models.CreditReasonTopUp, "")
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestWithinTransaction_RollsBack(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	_, err := d.EnsureCreditBalance(ctx, userID, 3)
	require.NoError(t, err)

	errAbort := errors.New("abort")
	err = d.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := d.DecrementCredits(ctx, userID, 2, models.CreditReasonProcessing, "rolled-back"); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	balance, err := d.GetCreditBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance.Credits)
}

func TestUploads_AcquireHasOneWinner(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	upload := createUpload(t, d, userID)

	var winners atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := d.AcquireUpload(ctx, upload.ID, userID, uuid.New(), time.Minute)
			if errors.Is(err, models.ErrConditionFailed) {
				return nil
			}
			if err == nil {
				winners.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), winners.Load())
}

func TestUploads_AcquireIsOwnerScoped(t *testing.T) {
	d := db(t)
	upload := createUpload(t, d, newUserID())

	_, err := d.AcquireUpload(context.Background(), upload.ID, newUserID(), uuid.New(), time.Minute)
	assert.ErrorIs(t, err, models.ErrConditionFailed)
}

func TestUploads_LeaseLifecycle(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	upload := createUpload(t, d, userID)

	stale := uuid.New()
	_, err := d.AcquireUpload(ctx, upload.ID, userID, stale, 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	fresh := uuid.New()
	acquired, err := d.AcquireUpload(ctx, upload.ID, userID, fresh, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusProcessing, acquired.Status)
	assert.Equal(t, fresh, acquired.AttemptID.UUID)

	_, err = d.CompleteUpload(ctx, upload.ID, stale, "https://fal.media/stale.png")
	assert.ErrorIs(t, err, models.ErrConditionFailed)

	released, err := d.ReleaseUpload(ctx, upload.ID, stale)
	require.NoError(t, err)
	assert.False(t, released)

	done, err := d.CompleteUpload(ctx, upload.ID, fresh, "https://fal.media/fresh.png")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusComplete, done.Status)
	assert.True(t, done.CreditConsumed)
	assert.False(t, done.AttemptID.Valid)

	_, err = d.AcquireUpload(ctx, upload.ID, userID, uuid.New(), time.Minute)
	assert.ErrorIs(t, err, models.ErrConditionFailed)

	used, err := d.CountConsumedCredits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestUploads_ReleaseReturnsToPending(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	upload := createUpload(t, d, userID)
	attempt := uuid.New()
	_, err := d.AcquireUpload(ctx, upload.ID, userID, attempt, time.Minute)
	require.NoError(t, err)

	released, err := d.ReleaseUpload(ctx, upload.ID, attempt)
	require.NoError(t, err)
	assert.True(t, released)

	got, err := d.GetUpload(ctx, upload.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusPending, got.Status)
	assert.False(t, got.LeaseExpiresAt.Valid)

	_, err = d.GetUpload(ctx, upload.ID, newUserID())
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestPayments_DuplicateKey(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	key := "stripe_cs_" + uuid.NewString()
	payment := func() *models.PaymentRecord {
		return &models.PaymentRecord{
			ID:                uuid.New(),
			UserID:            userID,
			ExternalPaymentID: "pi_123",
			AmountMinorUnits:  800,
			CreditsGranted:    400,
			Status:            models.PaymentStatusSuccess,
			IdempotencyKey:    key,
		}
	}

	require.NoError(t, d.InsertPayment(ctx, payment()))
	assert.ErrorIs(t, d.InsertPayment(ctx, payment()), models.ErrDuplicateKey)

	stored, err := d.GetPaymentByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 400, stored.CreditsGranted)

	history, err := d.ListPayments(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestExports_Counts(t *testing.T) {
	d := db(t)
	ctx := context.Background()
	userID := newUserID()
	for i := 0; i < 3; i++ {
		id := uuid.New()
		require.NoError(t, d.CreateExport(ctx, &models.Export{
			ID:          id,
			UserID:      userID,
			ExportURL:   "https://storage.test/exports/" + id.String() + ".png",
			StoragePath: "exports/" + id.String() + ".png",
			FontSize:    80,
			FontColor:   "#ffffff",
			PositionX:   50,
			PositionY:   50,
		}))
	}

	total, err := d.CountExports(ctx, userID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	future, err := d.CountExports(ctx, userID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, future)

	daily, err := d.DailyExportCounts(ctx, userID, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	sum := 0
	for _, day := range daily {
		sum += day.Exports
	}
	assert.Equal(t, 3, sum)

	list, err := d.ListExports(ctx, userID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
