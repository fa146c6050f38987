package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfreg/internal/platform/config"
	"selfreg/internal/selfregister/gateway"
	"selfreg/internal/selfregister/models"
	"selfreg/pkg/testutil"
)

const externalDetailedProperties = `
SelfRegistration:
  EnableDetailedApiResponse: true
  Notification:
    InternallyManaged: false
`

func testConfig(t *testing.T, properties string) config.Server {
	t.Helper()
	cfg := config.Server{
		EmailAsUsername:  true,
		SuperTenant:      "carbon.super",
		PrimaryDomain:    "PRIMARY",
		UserStoreDomains: []string{"PRIMARY", "PARTNERS"},
		Store:            config.StoreMemory,
		PendingTTL:       time.Hour,
		RateLimit:        config.RateLimitConfig{RPS: 100, Burst: 100, IdleTTL: time.Minute},
	}
	if properties != "" {
		path := filepath.Join(t.TempDir(), "identity.yaml")
		require.NoError(t, os.WriteFile(path, []byte(properties), 0o600))
		cfg.PropertiesFile = path
	}
	return cfg
}

func newTestRouter(t *testing.T, cfg config.Server) http.Handler {
	t.Helper()
	a, err := buildApp(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a.router()
}

func TestSelfRegisterLiteEndToEnd(t *testing.T) {
	router := newTestRouter(t, testConfig(t, externalDetailedProperties))

	testutil.Given(t, "detailed responses with externally managed notifications", func(t *testing.T) {
		testutil.When(t, "a new email registers on the super tenant route", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
				"email":      "alice@example.com",
				"properties": []map[string]string{{"key": "given_name", "value": "Alice"}},
			}))

			testutil.Then(t, "a detailed external body carries the confirmation code", func(t *testing.T) {
				require.Equal(t, http.StatusCreated, rr.Code)
				body := testutil.UnmarshalResponse[models.SuccessfulUserCreationExternal](t, rr)
				assert.Equal(t, gateway.CodePendingExternal, body.Code)
				assert.Equal(t, "EXTERNAL", body.NotificationChannel)
				assert.NotEmpty(t, body.ConfirmationCode)
			})
		})

		testutil.When(t, "the same email registers again", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
				"email": "alice@example.com",
			}))

			testutil.Then(t, "the conflict surfaces as 409", func(t *testing.T) {
				testutil.AssertStatusAndCode(t, rr, http.StatusConflict, models.CodeUserAlreadyExists)
			})
		})

		testutil.When(t, "the same email registers on a tenant route with a secondary realm", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/t/acme.com/me-lite", map[string]any{
				"email": "alice@example.com",
				"realm": "partners",
			}))

			testutil.Then(t, "it is a distinct identity", func(t *testing.T) {
				assert.Equal(t, http.StatusCreated, rr.Code)
			})
		})

		testutil.When(t, "the realm is unknown", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
				"email": "bob@example.com",
				"realm": "NOWHERE",
			}))

			testutil.Then(t, "the gateway client failure is a 400", func(t *testing.T) {
				testutil.AssertStatusAndCode(t, rr, http.StatusBadRequest, models.CodeInvalidUserStoreDomain)
			})
		})

		testutil.When(t, "the body is missing", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/me-lite", ""))

			testutil.Then(t, "the request is rejected as bad", func(t *testing.T) {
				testutil.AssertStatusAndCode(t, rr, http.StatusBadRequest, models.CodeBadSelfRegisterRequest)
			})
		})
	})
}

func TestSelfRegisterLiteLegacyResponses(t *testing.T) {
	router := newTestRouter(t, testConfig(t, `
SelfRegistration:
  Notification:
    InternallyManaged: false
`))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
		"email": "carol@example.com",
	}))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Body.String())
}

func TestSelfRegisterLiteInternalNotificationHasNoBody(t *testing.T) {
	router := newTestRouter(t, testConfig(t, ""))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
		"email": "dave@example.com",
	}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestSelfRegisterLiteRequiresEmailAsUsername(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.EmailAsUsername = false
	router := newTestRouter(t, cfg)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
		"email": "erin@example.com",
	}))

	testutil.AssertStatusAndCode(t, rr, http.StatusBadRequest, models.CodeUnsupportedLiteRequest)
}

func TestSelfRegisterLiteRateLimitedPerClientIP(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 1, IdleTTL: time.Minute}
	router := newTestRouter(t, cfg)

	first := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
		"email": "frank@example.com",
	}))
	second := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
		"email": "grace@example.com",
	}))

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMetricsEndpointExposesRegistrationCounters(t *testing.T) {
	router := newTestRouter(t, testConfig(t, ""))
	testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/me-lite", map[string]any{
		"email": "heidi@example.com",
	}))

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/metrics", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `credo_selfreg_requests_total{result="success"} 1`)
}
