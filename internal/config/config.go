package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string
	Location         *time.Location

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	TwilioAccountSID string
	TwilioAuthToken  string
	SendGridAPIKey   string
	SlackBotToken    string
	SlackChannelID   string

	ServiceRoleJWTSecret string
	CORSAllowedOrigins   []string

	OwnerName     string
	OwnerEmail    string
	OwnerPhone    string
	BusinessPhone string
	ReviewURL     string

	LDFlag_TwilioFromPhone       string
	LDFlag_SendgridFromEmail     string
	LDFlag_SendgridSandboxMode   bool
	LDFlag_AllowUnsignedWebhooks bool
	LDFlag_SkipUSHolidays        bool
	LDFlag_SeedDbWithTestData    bool
	LDFlag_CORSHighSecurity      bool
}

const (
	LDConnectionTimeout = 5 * time.Second
	defaultAppName      = "willow-booking"
)

var (
	AppName             string
	LDServerContextKey  = "booking-service"
	LDServerContextKind = "service"
)

// secretKeys may come from Bitwarden instead of the environment.
var secretKeys = []string{
	"DB_URL",
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"TWILIO_ACCOUNT_SID",
	"TWILIO_AUTH_TOKEN",
	"SENDGRID_API_KEY",
	"SLACK_BOT_TOKEN",
	"SERVICE_ROLE_JWT_SECRET",
	"LD_SDK_KEY",
}

// FlagEvaluator is the subset of the LaunchDarkly client used for config.
type FlagEvaluator interface {
	BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error)
	StringVariation(key string, context ldcontext.Context, defaultVal string) (string, error)
}

// Sources lets tests replace the process environment and the remote providers.
type Sources struct {
	Getenv  func(string) string
	Secrets func(accessToken, orgID, project string) (map[string]string, error)
	Flags   func(sdkKey string) (FlagEvaluator, func(), error)
}

func defaultSources() Sources {
	return Sources{
		Getenv: os.Getenv,
		Secrets: func(accessToken, orgID, project string) (map[string]string, error) {
			client, err := NewBWSSecretsClient(accessToken, orgID)
			if err != nil {
				return nil, err
			}
			defer client.Close()
			return client.GetBWSSecrets(project)
		},
		Flags: func(sdkKey string) (FlagEvaluator, func(), error) {
			client, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
			if err != nil {
				return nil, nil, err
			}
			return client, func() { _ = client.Close() }, nil
		},
	}
}

// LoadConfig reads the process configuration and exits when it cannot run.
func LoadConfig() *Config {
	cfg, err := Load(defaultSources())
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load config")
	}
	return cfg
}

// Load builds a Config. Only APP_PORT and DB_URL are required; every other
// integration degrades when its settings are absent.
func Load(src Sources) (*Config, error) {
	appName := AppName
	if appName == "" {
		appName = defaultAppName
	}
	utils.Logger.Info("Loading config for app: ", appName)

	env := strings.TrimSpace(src.Getenv("ENV"))
	if env == "" {
		env = "dev"
	}

	values := make(map[string]string)
	for _, k := range secretKeys {
		values[k] = src.Getenv(k)
	}

	if token := src.Getenv("BWS_ACCESS_TOKEN"); token != "" {
		project := fmt.Sprintf("%s-%s", appName, env)
		secrets, err := src.Secrets(token, src.Getenv("BWS_ORG_ID"), project)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Bitwarden secrets unavailable for %s; using environment", project)
		} else {
			for _, k := range secretKeys {
				if v, ok := secrets[k]; ok && v != "" {
					values[k] = v
				}
			}
		}
	}

	// Lambda invocations serve no HTTP, so they run without a port.
	appPort := src.Getenv("APP_PORT")
	if appPort == "" && src.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		return nil, errors.New("APP_PORT env var is missing")
	}
	if values["DB_URL"] == "" {
		return nil, errors.New("DB_URL is missing from env and secrets")
	}

	tzName := src.Getenv("TIME_ZONE")
	if tzName == "" {
		tzName = constants.DefaultTimeZone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", tzName, err)
	}

	appUrl := strings.TrimRight(src.Getenv("APP_URL"), "/")
	siteURL := strings.TrimRight(src.Getenv("SITE_URL"), "/")

	cfg := &Config{
		OrganizationName: constants.OrganizationName,
		AppName:          appName,
		Env:              env,
		AppPort:          appPort,
		AppUrl:           appUrl,
		DBUrl:            values["DB_URL"],
		Location:         loc,

		StripeSecretKey:     values["STRIPE_SECRET_KEY"],
		StripeWebhookSecret: values["STRIPE_WEBHOOK_SECRET"],
		CheckoutSuccessURL:  firstNonEmpty(src.Getenv("CHECKOUT_SUCCESS_URL"), siteURL+"/booking/success?session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL:   firstNonEmpty(src.Getenv("CHECKOUT_CANCEL_URL"), siteURL+"/booking/cancelled"),

		TwilioAccountSID: values["TWILIO_ACCOUNT_SID"],
		TwilioAuthToken:  values["TWILIO_AUTH_TOKEN"],
		SendGridAPIKey:   values["SENDGRID_API_KEY"],
		SlackBotToken:    values["SLACK_BOT_TOKEN"],
		SlackChannelID:   src.Getenv("SLACK_CHANNEL_ID"),

		ServiceRoleJWTSecret: values["SERVICE_ROLE_JWT_SECRET"],
		CORSAllowedOrigins:   splitList(src.Getenv("CORS_ALLOWED_ORIGINS")),

		OwnerName:     firstNonEmpty(src.Getenv("OWNER_NAME"), constants.OrganizationName),
		OwnerEmail:    src.Getenv("OWNER_EMAIL"),
		OwnerPhone:    src.Getenv("OWNER_PHONE"),
		BusinessPhone: src.Getenv("BUSINESS_PHONE"),
		ReviewURL:     src.Getenv("REVIEW_URL"),

		LDFlag_TwilioFromPhone:       src.Getenv("TWILIO_FROM_PHONE"),
		LDFlag_SendgridFromEmail:     src.Getenv("SENDGRID_FROM_EMAIL"),
		LDFlag_SendgridSandboxMode:   envBool(src.Getenv("SENDGRID_SANDBOX_MODE")),
		LDFlag_AllowUnsignedWebhooks: envBool(src.Getenv("ALLOW_UNSIGNED_WEBHOOKS")),
		LDFlag_SkipUSHolidays:        envBool(src.Getenv("SKIP_US_HOLIDAYS")),
		LDFlag_SeedDbWithTestData:    envBool(src.Getenv("SEED_DB_WITH_TEST_DATA")),
		LDFlag_CORSHighSecurity:      envBool(src.Getenv("CORS_HIGH_SECURITY")),
	}

	if sdkKey := values["LD_SDK_KEY"]; sdkKey != "" {
		flags, closeFn, err := src.Flags(sdkKey)
		if err != nil {
			utils.Logger.WithError(err).Warn("LaunchDarkly unavailable; using flag defaults")
		} else {
			// Flags are read once, so the client is not kept past Load.
			cfg.applyFlags(flags)
			if closeFn != nil {
				closeFn()
			}
		}
	}

	if cfg.StripeSecretKey == "" {
		utils.Logger.Warn("STRIPE_SECRET_KEY is not set; checkout and balance charges will fail")
	}
	if cfg.StripeWebhookSecret == "" && !cfg.LDFlag_AllowUnsignedWebhooks {
		utils.Logger.Warn("STRIPE_WEBHOOK_SECRET is not set; Stripe webhooks will be rejected")
	}
	if cfg.ServiceRoleJWTSecret == "" {
		utils.Logger.Warn("SERVICE_ROLE_JWT_SECRET is not set; admin routes are disabled")
	}
	return cfg, nil
}

func (c *Config) applyFlags(flags FlagEvaluator) {
	ctx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	boolFlag := func(key string, dst *bool) {
		v, err := flags.BoolVariation(key, ctx, *dst)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Error retrieving %s flag; keeping %t", key, *dst)
			return
		}
		utils.Logger.Debugf("%s flag: %t", key, v)
		*dst = v
	}
	stringFlag := func(key string, dst *string) {
		v, err := flags.StringVariation(key, ctx, *dst)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Error retrieving %s flag", key)
			return
		}
		if v != "" {
			*dst = v
		}
	}

	stringFlag("twilio_from_phone", &c.LDFlag_TwilioFromPhone)
	stringFlag("sendgrid_from_email", &c.LDFlag_SendgridFromEmail)
	boolFlag("sendgrid_sandbox_mode", &c.LDFlag_SendgridSandboxMode)
	boolFlag("allow_unsigned_webhooks", &c.LDFlag_AllowUnsignedWebhooks)
	boolFlag("skip_us_holidays", &c.LDFlag_SkipUSHolidays)
	boolFlag("seed_db_with_test_data", &c.LDFlag_SeedDbWithTestData)
	boolFlag("cors_high_security", &c.LDFlag_CORSHighSecurity)
}

func envBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
