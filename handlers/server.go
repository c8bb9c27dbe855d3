// handlers/server.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"inflection-rewards/auth"
	"inflection-rewards/metrics"
	"inflection-rewards/middleware"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Log      *logrus.Logger
	Verifier middleware.IdentityVerifier
	Tokens   *auth.TokenIssuer
	DB       Pinger

	Access        *services.AccessService
	Apps          *services.AppService
	Interactions  *services.InteractionService
	Rewards       *services.RewardService
	Categories    *services.CategoryService
	Users         *services.UserService
	Notifications *services.NotificationService
	Submissions   *services.SubmissionService
	Uploads       *services.UploadService
}

type ServerConfig struct {
	AllowedOrigins []string
	BodyLimit      int
}

// NewApp builds the fiber app with global middleware and every route.
func NewApp(cfg ServerConfig, d Deps) *fiber.App {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      "inflection-rewards",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler(d.Log),
	})

	// recover must run inside the logger; panics reach it as errors
	app.Use(middleware.RequestLogger(d.Log))
	app.Use(recover.New())

	origins := strings.Join(cfg.AllowedOrigins, ",")
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, " + middleware.DynamicTokenHeader,
		ExposeHeaders:    "Content-Length, Content-Type",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	SetupHealthRoutes(app, d.DB)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")
	api.Get("/", func(c *fiber.Ctx) error {
		return utils.OK(c, "Welcome to the Inflection API", nil)
	})

	access := middleware.AccessAuth(d.Tokens, d.Users)
	SetupAuthRoutes(api, d)
	SetupAppRoutes(api, d, access)
	SetupRewardRoutes(api, d, access)
	SetupUserRoutes(api, d, access)
	SetupUploadRoutes(api, d, access)

	return app
}

func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("[HTTP] unhandled error")
		}
		return utils.Fail(c, status, message)
	}
}
