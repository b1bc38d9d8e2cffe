package main

import (
	"context"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/peterssg513/willowandwater-sub001/internal/app"
	"github.com/peterssg513/willowandwater-sub001/internal/config"
	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/controllers"
	"github.com/peterssg513/willowandwater-sub001/internal/middleware"
	"github.com/peterssg513/willowandwater-sub001/internal/routes"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize booking service:", err)
	}
	defer application.Close()

	repos := app.NewRepositories(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), repos.Cleaners); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	svcs := app.NewServices(cfg, repos)

	// Controllers
	healthController := controllers.NewHealthController(application.DB)
	bookingController := controllers.NewBookingController(svcs.Quotes, svcs.Checkout)
	stripeWebhookController := controllers.NewStripeWebhookController(
		cfg.StripeWebhookSecret, cfg.LDFlag_AllowUnsignedWebhooks, svcs.Webhooks,
	)
	twilioWebhookController := controllers.NewTwilioWebhookController(cfg.TwilioAuthToken, cfg.AppUrl, svcs.InboundSMS)
	adminJobsController := controllers.NewAdminJobsController(
		svcs.Assignments, svcs.Lifecycle, svcs.Balances, svcs.Feedback, cfg.Location,
	)
	adminSubscriptionsController := controllers.NewAdminSubscriptionsController(svcs.Subscriptions)
	adminSettingsController := controllers.NewAdminSettingsController(svcs.Quotes, svcs.Tasks)

	// Router setup
	router := mux.NewRouter()
	router.Use(middleware.Metrics)

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc(routes.Quote, bookingController.QuoteHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.Checkout, bookingController.CheckoutHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.StripeWebhook, stripeWebhookController.WebhookHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.TwilioSMS, twilioWebhookController.InboundSMSHandler).Methods(http.MethodPost)

	// Service-role routes for the owner dashboard
	admin := router.NewRoute().Subrouter()
	admin.Use(middleware.ServiceRoleAuth(cfg.ServiceRoleJWTSecret))
	admin.HandleFunc(routes.AdminJobAssign, adminJobsController.AssignHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminJobComplete, adminJobsController.CompleteHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminJobCancel, adminJobsController.CancelHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminJobCharge, adminJobsController.ChargeHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminJobRating, adminJobsController.RatingHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminChargeBalances, adminJobsController.ChargeBalancesHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminSubscriptions, adminSubscriptionsController.CreateHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminSubscriptionCancel, adminSubscriptionsController.CancelHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminPricingSettings, adminSettingsController.GetPricingHandler).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminPricingSettings, adminSettingsController.UpdatePricingHandler).Methods(http.MethodPut)
	admin.HandleFunc(routes.AdminRunTask, adminSettingsController.RunTaskHandler).Methods(http.MethodPost)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))
	schedule := func(spec, task string, timeout time.Duration) {
		_, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			// TaskRunner logs outcomes itself.
			_, _ = svcs.Tasks.Run(ctx, task)
		})
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Failed to schedule %s cron", task)
		}
	}
	schedule(constants.ChargeBalancesCronSpec, constants.TaskChargeBalances, constants.ScheduledTaskTimeout)
	schedule(constants.AssignTomorrowCronSpec, constants.TaskAssignTomorrow, constants.ScheduledTaskTimeout)
	schedule(constants.SendRemindersCronSpec, constants.TaskSendReminders, constants.ScheduledTaskTimeout)
	schedule(constants.WeeklyScheduleCronSpec, constants.TaskWeeklySchedule, constants.ScheduledTaskTimeout)
	schedule(constants.DrainOutboxCronSpec, constants.TaskDrainOutbox, constants.DrainOutboxTimeout)

	c.Start()
	defer c.Stop()
	utils.Logger.Info("Scheduled booking cron jobs")

	allowedOrigins := cfg.CORSAllowedOrigins
	if cfg.AppUrl != "" {
		allowedOrigins = append(allowedOrigins, cfg.AppUrl)
	}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("booking service failed to start:", err)
	}
}
