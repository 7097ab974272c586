package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "gracie-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.PubSub.ProjectID != "gracie-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.OrderEventsTopic != defaultOrderEventsTopic {
		t.Errorf("unexpected default topic %s", cfg.PubSub.OrderEventsTopic)
	}
	if cfg.Admission.Timezone != "Europe/Prague" || cfg.Admission.Location == nil || cfg.Admission.Location.String() != "Europe/Prague" {
		t.Errorf("unexpected admission timezone %s (%v)", cfg.Admission.Timezone, cfg.Admission.Location)
	}
	if cfg.Admission.TxAttempts != defaultTxAttempts || cfg.Admission.TxTimeout != defaultTxTimeout {
		t.Errorf("unexpected tx settings %+v", cfg.Admission)
	}
	if !cfg.Features.EnableOrderEvents {
		t.Errorf("expected order events enabled by default")
	}
	if cfg.Admission.DiscountRateLimit != 20 || cfg.Admission.DiscountRateWindow != time.Minute {
		t.Errorf("unexpected discount rate limit defaults %+v", cfg.Admission)
	}
	if cfg.Idempotency.Header != "Idempotency-Key" || cfg.Idempotency.TTL != 24*time.Hour {
		t.Errorf("unexpected idempotency defaults %+v", cfg.Idempotency)
	}
	if cfg.Idempotency.CleanupInterval != 15*time.Minute || cfg.Idempotency.CleanupBatchSize != 200 {
		t.Errorf("unexpected idempotency cleanup defaults %+v", cfg.Idempotency)
	}
	if cfg.Observability.LogLevel != "info" || cfg.Observability.TraceProjectID != "gracie-dev" {
		t.Errorf("unexpected observability defaults %+v", cfg.Observability)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":               "9090",
		"API_SERVER_READ_TIMEOUT":       "20s",
		"API_SERVER_WRITE_TIMEOUT":      "25s",
		"API_SERVER_IDLE_TIMEOUT":       "2m",
		"API_FIRESTORE_PROJECT_ID":      "gracie-prod",
		"API_FIRESTORE_EMULATOR_HOST":   "localhost:8081",
		"API_PUBSUB_PROJECT_ID":         "gracie-events",
		"API_PUBSUB_ORDER_EVENTS_TOPIC": "orders-admitted",
		"API_ADMISSION_TIMEZONE":        "UTC",
		"API_ADMISSION_TX_ATTEMPTS":     "3",
		"API_ADMISSION_TX_TIMEOUT":      "4s",
		"API_IDEMPOTENCY_HEADER":        "X-Request-Key",
		"API_IDEMPOTENCY_TTL":           "2h",
		"API_IDEMPOTENCY_CLEANUP_BATCH": "50",
		"API_FEATURE_ORDER_EVENTS":      "off",
		"API_TRACE_PROJECT_ID":          "gracie-trace",
		"LOG_LEVEL":                     "DEBUG",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8081" {
		t.Errorf("unexpected emulator host %s", cfg.Firestore.EmulatorHost)
	}
	if cfg.PubSub.ProjectID != "gracie-events" || cfg.PubSub.OrderEventsTopic != "orders-admitted" {
		t.Errorf("unexpected pubsub config %+v", cfg.PubSub)
	}
	if cfg.Admission.Location != time.UTC {
		t.Errorf("expected UTC location, got %v", cfg.Admission.Location)
	}
	if cfg.Admission.TxAttempts != 3 || cfg.Admission.TxTimeout != 4*time.Second {
		t.Errorf("unexpected tx settings %+v", cfg.Admission)
	}
	if cfg.Features.EnableOrderEvents {
		t.Errorf("expected order events disabled")
	}
	if cfg.Idempotency.Header != "X-Request-Key" || cfg.Idempotency.TTL != 2*time.Hour {
		t.Errorf("unexpected idempotency config %+v", cfg.Idempotency)
	}
	if cfg.Idempotency.CleanupBatchSize != 50 {
		t.Errorf("expected cleanup batch 50, got %d", cfg.Idempotency.CleanupBatchSize)
	}
	if cfg.Observability.LogLevel != "debug" || cfg.Observability.TraceProjectID != "gracie-trace" {
		t.Errorf("unexpected observability config %+v", cfg.Observability)
	}
}

func TestLoadValidationError(t *testing.T) {
	env := map[string]string{
		"API_ADMISSION_TIMEZONE":    "Mars/Olympus",
		"API_ADMISSION_TX_ATTEMPTS": "0",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range vErr.Fields() {
		fields[f] = true
	}
	for _, want := range []string{"Firestore.ProjectID", "Admission.Timezone", "Admission.TxAttempts"} {
		if !fields[want] {
			t.Errorf("expected %s in %v", want, vErr.Fields())
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nexport API_FIRESTORE_PROJECT_ID=\"from-file\"\nAPI_SERVER_PORT=7000\nAPI_ADMISSION_TX_ATTEMPTS=9\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("API_SERVER_PORT", "7100")
	t.Setenv("API_ADMISSION_TX_ATTEMPTS", "8")

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithEnvMap(map[string]string{"API_ADMISSION_TX_ATTEMPTS": "7"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firestore.ProjectID != "from-file" {
		t.Errorf("expected project from .env, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Server.Port != "7100" {
		t.Errorf("expected system env to beat .env, got %s", cfg.Server.Port)
	}
	if cfg.Admission.TxAttempts != 7 {
		t.Errorf("expected env map to beat system env, got %d", cfg.Admission.TxAttempts)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
		WithEnvMap(map[string]string{"API_FIRESTORE_PROJECT_ID": "p"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
