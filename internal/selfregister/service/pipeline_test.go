package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
)

func TestValidate(t *testing.T) {
	valid := &models.RegistrationRequest{Email: "alice@example.com"}

	tests := []struct {
		name     string
		req      *models.RegistrationRequest
		enabled  bool
		wantCode string
	}{
		{name: "valid request", req: valid, enabled: true},
		{name: "policy off wins over valid payload", req: valid, enabled: false, wantCode: models.CodeUnsupportedLiteRequest},
		{name: "policy off wins over absent payload", req: nil, enabled: false, wantCode: models.CodeUnsupportedLiteRequest},
		{name: "absent request", req: nil, enabled: true, wantCode: models.CodeBadSelfRegisterRequest},
		{name: "empty email", req: &models.RegistrationRequest{}, enabled: true, wantCode: models.CodeBadSelfRegisterRequest},
		{name: "blank email", req: &models.RegistrationRequest{Email: " \t"}, enabled: true, wantCode: models.CodeBadSelfRegisterRequest},
		{name: "properties are not validated", req: &models.RegistrationRequest{
			Email:      "bob@example.com",
			Properties: []models.Property{{Key: "", Value: ""}},
		}, enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := Validate(tt.req, tt.enabled)
			if tt.wantCode == "" {
				assert.Nil(t, failure)
				return
			}
			require.NotNil(t, failure)
			assert.Equal(t, models.ClientError, failure.Kind)
			assert.Equal(t, tt.wantCode, failure.Code)
		})
	}
}

func TestValidatePolicyDisabledProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var req *models.RegistrationRequest
		if rapid.Bool().Draw(t, "present") {
			req = &models.RegistrationRequest{
				Email: rapid.String().Draw(t, "email"),
				Realm: rapid.String().Draw(t, "realm"),
			}
		}
		failure := Validate(req, false)
		if failure == nil || failure.Kind != models.ClientError || failure.Code != models.CodeUnsupportedLiteRequest {
			t.Fatalf("expected unsupported lite request, got %v", failure)
		}
	})
}

func TestValidateBlankEmailProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		email := rapid.StringMatching(`[ \t\n\r]*`).Draw(t, "email")
		failure := Validate(&models.RegistrationRequest{Email: email}, true)
		if failure == nil || failure.Code != models.CodeBadSelfRegisterRequest {
			t.Fatalf("expected bad request for %q, got %v", email, failure)
		}
	})
}

func TestResolve(t *testing.T) {
	resolver := NewIdentityResolver(domain.SuperTenantDomain, domain.PrimaryUserStoreDomain)

	t.Run("defaults when realm and tenant are absent", func(t *testing.T) {
		got := resolver.Resolve(&models.RegistrationRequest{Email: "Alice@Example.com"}, "")
		assert.Equal(t, domain.SuperTenantDomain, got.TenantDomain)
		assert.Equal(t, domain.PrimaryUserStoreDomain, got.UserStoreDomain)
		assert.Equal(t, "Alice@Example.com", got.Username, "username is not normalized")
	})

	t.Run("realm overrides user store domain", func(t *testing.T) {
		got := resolver.Resolve(&models.RegistrationRequest{Email: "a@b.c", Realm: "r1"}, "")
		assert.Equal(t, domain.UserStoreDomain("r1"), got.UserStoreDomain)
	})

	t.Run("ambient tenant overrides super tenant", func(t *testing.T) {
		got := resolver.Resolve(&models.RegistrationRequest{Email: "a@b.c"}, "acme.com")
		assert.Equal(t, domain.TenantDomain("acme.com"), got.TenantDomain)
	})

	t.Run("blank values fall back", func(t *testing.T) {
		got := resolver.Resolve(&models.RegistrationRequest{Email: "a@b.c", Realm: "  "}, " ")
		assert.Equal(t, domain.SuperTenantDomain, got.TenantDomain)
		assert.Equal(t, domain.PrimaryUserStoreDomain, got.UserStoreDomain)
	})

	t.Run("configured defaults", func(t *testing.T) {
		custom := NewIdentityResolver("root.tenant", "MAIN")
		got := custom.Resolve(&models.RegistrationRequest{Email: "a@b.c"}, "")
		assert.Equal(t, domain.TenantDomain("root.tenant"), got.TenantDomain)
		assert.Equal(t, domain.UserStoreDomain("MAIN"), got.UserStoreDomain)
	})

	t.Run("zero value resolver still fills defaults", func(t *testing.T) {
		got := IdentityResolver{}.Resolve(&models.RegistrationRequest{Email: "a@b.c"}, "")
		assert.Equal(t, domain.SuperTenantDomain, got.TenantDomain)
		assert.Equal(t, domain.PrimaryUserStoreDomain, got.UserStoreDomain)
	})
}

func TestResolveIsTotalAndPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		resolver := NewIdentityResolver(
			domain.TenantDomain(rapid.String().Draw(t, "superTenant")),
			domain.UserStoreDomain(rapid.String().Draw(t, "primary")),
		)
		req := &models.RegistrationRequest{
			Email: rapid.String().Draw(t, "email"),
			Realm: rapid.String().Draw(t, "realm"),
		}
		ambient := domain.TenantDomain(rapid.String().Draw(t, "ambient"))

		first := resolver.Resolve(req, ambient)
		second := resolver.Resolve(req, ambient)

		if first != second {
			t.Fatalf("resolve is not deterministic: %v != %v", first, second)
		}
		if first.TenantDomain.IsBlank() || first.UserStoreDomain.IsBlank() {
			t.Fatalf("resolve produced blank domains: %+v", first)
		}
		if first.Username != req.Email {
			t.Fatalf("username %q does not match email %q", first.Username, req.Email)
		}
		if strings.TrimSpace(req.Realm) != "" && first.UserStoreDomain != domain.UserStoreDomain(req.Realm) {
			t.Fatalf("realm %q ignored, got %q", req.Realm, first.UserStoreDomain)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    models.FailureKind
		wantCode    string
		wantMessage string
	}{
		{
			name:        "user already exists is a conflict",
			err:         models.NewClientFailure(models.CodeUserAlreadyExists, "exists"),
			wantKind:    models.Conflict,
			wantCode:    models.CodeUserAlreadyExists,
			wantMessage: "exists",
		},
		{
			name:        "other client failure",
			err:         models.NewClientFailure(models.CodeInvalidEmailUsername, "bad email"),
			wantKind:    models.ClientError,
			wantCode:    models.CodeInvalidEmailUsername,
			wantMessage: "bad email",
		},
		{
			name:        "domain failure keeps code and hides message",
			err:         models.NewDomainFailure(models.CodeRegistrationStoreFailed, "store down", errors.New("dial tcp")),
			wantKind:    models.ServerError,
			wantCode:    models.CodeRegistrationStoreFailed,
			wantMessage: models.MsgServerError,
		},
		{
			name:        "unexpected failure hides its cause",
			err:         models.NewUnexpectedFailure(errors.New("nil pointer dereference")),
			wantKind:    models.ServerError,
			wantCode:    models.CodeUnexpected,
			wantMessage: models.MsgServerError,
		},
		{
			name:        "wrapped gateway error",
			err:         fmt.Errorf("gateway call: %w", models.NewClientFailure(models.CodeUserAlreadyExists, "exists")),
			wantKind:    models.Conflict,
			wantCode:    models.CodeUserAlreadyExists,
			wantMessage: "exists",
		},
		{
			name:        "plain error",
			err:         errors.New("boom"),
			wantKind:    models.ServerError,
			wantCode:    models.CodeUnexpected,
			wantMessage: models.MsgServerError,
		},
		{
			name:        "unknown kind",
			err:         &models.GatewayError{Kind: models.GatewayErrorKind(99), Code: "X", Message: "y"},
			wantKind:    models.ServerError,
			wantCode:    models.CodeUnexpected,
			wantMessage: models.MsgServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

func TestClassifyClientFailureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[A-Z_]{1,32}`).Draw(t, "code")
		message := rapid.String().Draw(t, "message")
		got := Classify(models.NewClientFailure(code, message))

		want := models.ClientError
		if code == models.CodeUserAlreadyExists {
			want = models.Conflict
		}
		if got.Kind != want || got.Code != code || got.Message != message {
			t.Fatalf("classify(%q, %q) = %+v", code, message, got)
		}
	})
}

func TestCompose(t *testing.T) {
	internal := &models.RegistrationOutcome{
		Code:                "USR-02001",
		Message:             "pending",
		NotificationChannel: models.ChannelInternal,
	}
	external := &models.RegistrationOutcome{
		Code:                "USR-02002",
		Message:             "pending",
		NotificationChannel: models.ChannelExternal,
		RecoveryID:          "abc123",
	}

	t.Run("legacy external returns bare recovery id", func(t *testing.T) {
		got := Compose(external, false)
		assert.Equal(t, models.ResponseLegacyText, got.Kind)
		assert.Equal(t, "abc123", got.Text)
		assert.Nil(t, got.Entity)
	})

	t.Run("legacy internal is empty", func(t *testing.T) {
		assert.Equal(t, models.EmptyResponse(), Compose(internal, false))
	})

	t.Run("legacy absent outcome is empty", func(t *testing.T) {
		assert.Equal(t, models.EmptyResponse(), Compose(nil, false))
	})

	t.Run("detailed absent outcome is empty", func(t *testing.T) {
		assert.Equal(t, models.EmptyResponse(), Compose(nil, true))
	})

	t.Run("detailed internal", func(t *testing.T) {
		got := Compose(internal, true)
		assert.Equal(t, models.ResponseInternalDetailed, got.Kind)
		assert.Equal(t, models.SuccessfulUserCreation{
			Code:                "USR-02001",
			Message:             "pending",
			NotificationChannel: "INTERNAL",
		}, got.Entity)
	})

	t.Run("detailed external carries confirmation code", func(t *testing.T) {
		got := Compose(external, true)
		assert.Equal(t, models.ResponseExternalDetailed, got.Kind)
		entity, ok := got.Entity.(models.SuccessfulUserCreationExternal)
		require.True(t, ok)
		assert.Equal(t, "abc123", entity.ConfirmationCode)
		assert.Equal(t, "EXTERNAL", entity.NotificationChannel)
		assert.Equal(t, "USR-02002", entity.Code)
	})
}

func TestComposeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		detailed := rapid.Bool().Draw(t, "detailed")
		var outcome *models.RegistrationOutcome
		if rapid.Bool().Draw(t, "present") {
			outcome = &models.RegistrationOutcome{
				Code:                rapid.String().Draw(t, "code"),
				Message:             rapid.String().Draw(t, "message"),
				NotificationChannel: rapid.SampledFrom([]models.NotificationChannel{models.ChannelInternal, models.ChannelExternal}).Draw(t, "channel"),
				RecoveryID:          rapid.String().Draw(t, "recoveryID"),
			}
		}

		got := Compose(outcome, detailed)

		var want models.ResponseKind
		switch {
		case outcome == nil:
			want = models.ResponseEmpty
		case detailed && outcome.NotificationChannel.IsExternal():
			want = models.ResponseExternalDetailed
		case detailed:
			want = models.ResponseInternalDetailed
		case outcome.NotificationChannel.IsExternal():
			want = models.ResponseLegacyText
		default:
			want = models.ResponseEmpty
		}
		if got.Kind != want {
			t.Fatalf("compose kind = %v, want %v", got.Kind, want)
		}
		if want == models.ResponseLegacyText && got.Text != outcome.RecoveryID {
			t.Fatalf("legacy text = %q, want %q", got.Text, outcome.RecoveryID)
		}
	})
}
