package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"layertext-backend/internal/config"
	"layertext-backend/internal/handlers"
	"layertext-backend/internal/router"
	"layertext-backend/internal/services"
	"layertext-backend/internal/stripe"
	"layertext-backend/internal/test/fakes"
)

const (
	jwtSecret         = "test-secret-key-for-jwt-signing-must-be-long-enough"
	webhookSecret     = "whsec_test_secret"
	testUser          = "user-123"
	startingCredits   = 10
	creditsPerPackage = 400
)

type testServer struct {
	engine    *gin.Engine
	store     *fakes.Store
	remover   *fakes.Remover
	objects   *fakes.ObjectStorage
	checkout  *fakes.Checkout
	lifecycle *services.Lifecycle
}

type serverOption func(*config.Config)

func withTopUpDisabled() serverOption {
	return func(cfg *config.Config) { cfg.AllowCreditTopUp = false }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AuthJWTSecret:       jwtSecret,
		StripeWebhookSecret: webhookSecret,
		StartingCredits:     startingCredits,
		CreditsPerPackage:   creditsPerPackage,
		ProcessingLease:     time.Minute,
		AllowCreditTopUp:    true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zaptest.NewLogger(t)
	s := &testServer{
		store:    fakes.NewStore(),
		remover:  &fakes.Remover{ResultURL: "https://fal.media/files/cutout.png"},
		objects:  fakes.NewObjectStorage(),
		checkout: &fakes.Checkout{},
	}

	ledger := services.NewLedger(s.store, cfg.StartingCredits, logger)
	s.lifecycle = services.NewLifecycle(s.store, cfg.ProcessingLease, logger)
	processor := services.NewProcessor(s.store, ledger, s.lifecycle, s.remover, &fakes.Publisher{}, logger)
	reconciler := services.NewReconciler(s.store, s.store, ledger, cfg.CreditsPerPackage, logger)
	storage := services.NewStorageService(s.objects, s.lifecycle, s.store, logger)
	payments := services.NewPaymentService(s.checkout, s.store, logger)
	stripeClient := stripe.NewClient(stripe.Config{
		SecretKey:         "sk_test_unused",
		WebhookSecret:     cfg.StripeWebhookSecret,
		CreditsPerPackage: cfg.CreditsPerPackage,
	})

	s.engine = router.SetupRoutes(cfg, router.Handlers{
		Health:   handlers.NewHealthHandler(nil),
		Credits:  handlers.NewCreditsHandler(ledger, cfg.AllowCreditTopUp),
		Uploads:  handlers.NewUploadHandler(storage, s.lifecycle),
		Process:  handlers.NewProcessHandler(processor),
		Payments: handlers.NewPaymentsHandler(payments),
		Exports:  handlers.NewExportsHandler(storage),
		Webhook:  handlers.NewWebhookHandler(stripeClient, reconciler, logger),
	}, logger)
	return s
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

// do sends body as JSON when it is not nil.
func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", bearer(t, userID))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
