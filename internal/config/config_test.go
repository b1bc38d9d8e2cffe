package config

import (
	"errors"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlags struct {
	bools   map[string]bool
	strings map[string]string
}

func (f *fakeFlags) BoolVariation(key string, _ ldcontext.Context, def bool) (bool, error) {
	if v, ok := f.bools[key]; ok {
		return v, nil
	}
	return def, nil
}

func (f *fakeFlags) StringVariation(key string, _ ldcontext.Context, def string) (string, error) {
	if v, ok := f.strings[key]; ok {
		return v, nil
	}
	return def, nil
}

func envSources(env map[string]string) Sources {
	return Sources{
		Getenv: func(k string) string { return env[k] },
		Secrets: func(string, string, string) (map[string]string, error) {
			return nil, errors.New("secrets should not be fetched")
		},
		Flags: func(string) (FlagEvaluator, func(), error) {
			return nil, nil, errors.New("flags should not be fetched")
		},
	}
}

func TestLoadRequiresPortAndDB(t *testing.T) {
	_, err := Load(envSources(map[string]string{"DB_URL": "postgres://x"}))
	assert.ErrorContains(t, err, "APP_PORT")

	_, err = Load(envSources(map[string]string{"APP_PORT": "8080"}))
	assert.ErrorContains(t, err, "DB_URL")
}

func TestLoadInLambdaNeedsNoPort(t *testing.T) {
	cfg, err := Load(envSources(map[string]string{
		"DB_URL":                   "postgres://x",
		"AWS_LAMBDA_FUNCTION_NAME": "willow-booking-tasks",
	}))
	require.NoError(t, err)
	assert.Empty(t, cfg.AppPort)
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	cfg, err := Load(envSources(map[string]string{
		"APP_PORT":                "8080",
		"DB_URL":                  "postgres://x",
		"SITE_URL":                "https://willowandwater.example/",
		"SKIP_US_HOLIDAYS":        "true",
		"CORS_ALLOWED_ORIGINS":    "https://a.example, https://b.example,",
		"TWILIO_FROM_PHONE":       "+16305550100",
		"SERVICE_ROLE_JWT_SECRET": "shh",
	}))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, defaultAppName, cfg.AppName)
	assert.Equal(t, "America/Chicago", cfg.Location.String())
	assert.True(t, cfg.LDFlag_SkipUSHolidays)
	assert.False(t, cfg.LDFlag_AllowUnsignedWebhooks)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://willowandwater.example/booking/cancelled", cfg.CheckoutCancelURL)
	assert.Equal(t, "+16305550100", cfg.LDFlag_TwilioFromPhone)
	assert.Equal(t, "shh", cfg.ServiceRoleJWTSecret)
	assert.Empty(t, cfg.StripeSecretKey)
}

func TestSecretsAndFlagsOverrideEnvironment(t *testing.T) {
	env := map[string]string{
		"APP_PORT":          "8080",
		"ENV":               "prod",
		"BWS_ACCESS_TOKEN":  "token",
		"BWS_ORG_ID":        "org",
		"STRIPE_SECRET_KEY": "sk_env",
		"SKIP_US_HOLIDAYS":  "false",
	}
	var gotProject string
	closed := false
	src := Sources{
		Getenv: func(k string) string { return env[k] },
		Secrets: func(token, org, project string) (map[string]string, error) {
			gotProject = project
			return map[string]string{
				"DB_URL":            "postgres://from-bws",
				"STRIPE_SECRET_KEY": "sk_bws",
				"LD_SDK_KEY":        "sdk-key",
			}, nil
		},
		Flags: func(sdkKey string) (FlagEvaluator, func(), error) {
			assert.Equal(t, "sdk-key", sdkKey)
			return &fakeFlags{
				bools:   map[string]bool{"skip_us_holidays": true, "allow_unsigned_webhooks": true},
				strings: map[string]string{"sendgrid_from_email": "hello@willowandwater.example"},
			}, func() { closed = true }, nil
		},
	}

	cfg, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, defaultAppName+"-prod", gotProject)
	assert.Equal(t, "postgres://from-bws", cfg.DBUrl)
	assert.Equal(t, "sk_bws", cfg.StripeSecretKey)
	assert.True(t, cfg.LDFlag_SkipUSHolidays)
	assert.True(t, cfg.LDFlag_AllowUnsignedWebhooks)
	assert.Equal(t, "hello@willowandwater.example", cfg.LDFlag_SendgridFromEmail)
	assert.True(t, closed)
}

func TestSecretsFailureFallsBackToEnvironment(t *testing.T) {
	env := map[string]string{
		"APP_PORT":         "8080",
		"DB_URL":           "postgres://env",
		"BWS_ACCESS_TOKEN": "token",
	}
	src := envSources(env)
	cfg, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DBUrl)
}
