package config

import (
	"testing"
	"time"
)

func TestLoad_RejectsInvalidEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown app env", env: map[string]string{"APP_ENV": "invalid"}},
		{name: "uptrace without dsn", env: map[string]string{"UPTRACE_ENABLED": "true", "UPTRACE_DSN": "", "OTEL_EXPORTER_OTLP_HEADERS": ""}},
		{name: "betterstack without endpoint", env: map[string]string{"BETTERSTACK_ENABLED": "true", "BETTERSTACK_ENDPOINT": ""}},
		{name: "pyroscope without server", env: map[string]string{"PYROSCOPE_ENABLED": "true", "PYROSCOPE_SERVER_ADDRESS": ""}},
		{name: "empty cors list", env: map[string]string{"CORS_ALLOWED_ORIGINS": " , "}},
		{name: "bad read timeout", env: map[string]string{"APP_READ_TIMEOUT": "soon"}},
		{name: "negative redis db", env: map[string]string{"REDIS_DB": "-1"}},
		{name: "negative mercadopago retries", env: map[string]string{"MERCADOPAGO_MAX_RETRIES": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv("UPTRACE_ENABLED", "false")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected Load to fail with %v", tt.env)
			}
		})
	}
}

func TestLoad_TelemetryConfig(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "bilardeando-api-test")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "s1765114.eu-fsn-3.betterstackdata.com")
	t.Setenv("BETTERSTACK_TOKEN", " token-123 ")
	t.Setenv("BETTERSTACK_TIMEOUT", "4s")
	t.Setenv("BETTERSTACK_MIN_LEVEL", "warning")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BetterStackToken != "token-123" || cfg.BetterStackTimeout != 4*time.Second {
		t.Fatalf("unexpected betterstack config: token=%q timeout=%s", cfg.BetterStackToken, cfg.BetterStackTimeout)
	}
	if cfg.BetterStackMinLevel.String() != "warn" {
		t.Fatalf("unexpected BetterStackMinLevel: %s", cfg.BetterStackMinLevel)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
	if cfg.PyroscopeAppName != "bilardeando-api-test" {
		t.Fatalf("expected pyroscope app name to default to the service name, got %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_SwaggerDefaultsByEnv(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{env: EnvDev, want: true},
		{env: EnvStage, want: true},
		{env: EnvProd, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			t.Setenv("UPTRACE_ENABLED", "false")
			t.Setenv("SWAGGER_ENABLED", "")
			t.Setenv("MERCADOPAGO_ACCESS_TOKEN", "APP_USR-test")

			cfg, err := Load()
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if cfg.SwaggerEnabled != tt.want {
				t.Fatalf("SwaggerEnabled = %v, want %v", cfg.SwaggerEnabled, tt.want)
			}
		})
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_QStashConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=false by default")
		}
		if cfg.LeagueLockWorkers != 4 {
			t.Fatalf("unexpected default league lock workers: %d", cfg.LeagueLockWorkers)
		}
		if !cfg.QStashCircuit.Enabled || cfg.QStashCircuit.FailureThreshold != 5 {
			t.Fatalf("unexpected default qstash circuit: %+v", cfg.QStashCircuit)
		}
	})

	t.Run("enabled requires token and target and internal token", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "")
		t.Setenv("QSTASH_TARGET_BASE_URL", "")
		t.Setenv("INTERNAL_JOB_TOKEN", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QSTASH_ENABLED=true without required env")
		}
	})

	t.Run("enabled with required values", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://bilardeando.fly.dev")
		t.Setenv("INTERNAL_JOB_TOKEN", "internal-job-token")
		t.Setenv("QSTASH_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=true")
		}
		if cfg.QStashRetries != 2 {
			t.Fatalf("unexpected qstash retries: %d", cfg.QStashRetries)
		}
		if cfg.InternalJobToken != "internal-job-token" {
			t.Fatalf("unexpected internal job token: %q", cfg.InternalJobToken)
		}
	})
}

func TestLoad_StorageDriver(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "default memory", value: "", want: StorageMemory},
		{name: "postgres", value: "Postgres", want: StoragePostgres},
		{name: "unknown", value: "sqlite", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("STORAGE_DRIVER", tc.value)
			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for STORAGE_DRIVER=%q", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if cfg.StorageDriver != tc.want {
				t.Fatalf("expected storage driver %q, got %q", tc.want, cfg.StorageDriver)
			}
		})
	}
}

func TestLoad_AuthMode(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("jwt requires secret", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "jwt")
		t.Setenv("JWT_SECRET", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when AUTH_MODE=jwt without JWT_SECRET")
		}
	})

	t.Run("jwt with secret", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "jwt")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_ISSUER", "bilardeando")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.AuthMode != AuthJWT || cfg.JWTSecret != "s3cret" || cfg.JWTIssuer != "bilardeando" {
			t.Fatalf("unexpected auth config: mode=%q issuer=%q", cfg.AuthMode, cfg.JWTIssuer)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "basic")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid AUTH_MODE")
		}
	})
}

func TestLoad_PaymentProvider(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("dev defaults to mock", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("PAYMENT_PROVIDER", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.MockPaymentsEnabled() {
			t.Fatalf("expected mock payments in dev by default")
		}
		if !cfg.MercadoPagoSandbox {
			t.Fatalf("expected sandbox outside prod")
		}
	})

	t.Run("prod defaults to mercadopago and needs a token", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("PAYMENT_PROVIDER", "")
		t.Setenv("MERCADOPAGO_ACCESS_TOKEN", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error without MERCADOPAGO_ACCESS_TOKEN in prod")
		}
	})

	t.Run("mercadopago settings", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvStage)
		t.Setenv("PAYMENT_PROVIDER", "mercadopago")
		t.Setenv("MERCADOPAGO_ACCESS_TOKEN", "APP_USR-1")
		t.Setenv("MERCADOPAGO_TIMEOUT", "4s")
		t.Setenv("MERCADOPAGO_CIRCUIT_FAILURE_COUNT", "3")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.MockPaymentsEnabled() {
			t.Fatalf("expected mock payments disabled")
		}
		if cfg.MercadoPagoTimeout != 4*time.Second {
			t.Fatalf("unexpected timeout: %s", cfg.MercadoPagoTimeout)
		}
		if cfg.MercadoPagoCircuit.FailureThreshold != 3 {
			t.Fatalf("unexpected circuit threshold: %d", cfg.MercadoPagoCircuit.FailureThreshold)
		}
		if cfg.MercadoPagoCurrency != "ARS" {
			t.Fatalf("unexpected currency: %q", cfg.MercadoPagoCurrency)
		}
	})

	t.Run("circuit threshold must be positive", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("MERCADOPAGO_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for MERCADOPAGO_CIRCUIT_FAILURE_COUNT=0")
		}
	})
}

func TestLoad_LeagueLockWorkers(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("LEAGUE_LOCK_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for LEAGUE_LOCK_WORKERS=0")
	}
}

func TestLoad_PublicBaseURLTrimsSlash(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://bilardeando.app/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PublicBaseURL != "https://bilardeando.app" {
		t.Fatalf("unexpected public base url: %q", cfg.PublicBaseURL)
	}
}
