package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-agent/core/loader"
	"inventory-agent/core/logger"
	"inventory-agent/core/middleware/auth"
	"inventory-agent/core/middleware/rayid"
	"inventory-agent/feature/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "inventory-agent/docs/swagger"
)

// @title Inventory Agent API
// @version 1.0
// @description Status and control endpoints of the host inventory agent.
// @host localhost:8080
// @BasePath /

var serveNoSchedule bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run reconciliation periodically and serve the status API",
	Long: `Starts the HTTP status server and runs a reconciliation pass immediately
and then once per configured interval until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration and Logger
		cfg, logg, err := setup()
		if err != nil {
			return err
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		if err := cfg.Server.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 2. Build the driver
		driver, err := newDriver(ctx, cfg, logg)
		if err != nil {
			return err
		}

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(agent.NewFeature(driver, logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			l.Info("Request handled",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("took", time.Since(start)),
			)
			return err
		})

		// 2.5 Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			return fmt.Errorf("failed to load features: %w", err)
		}

		// 6. Start the schedule
		loopDone := make(chan struct{})
		go func() {
			defer close(loopDone)
			if serveNoSchedule {
				<-ctx.Done()
				return
			}
			logg.Info("Starting reconciliation schedule", zap.Duration("interval", cfg.Agent.Interval()))
			driver.Loop(ctx, cfg.Agent.Interval())
		}()

		// 7. Start Server
		serverErr := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
			serverErr <- app.Listen(cfg.Server.Addr())
		}()

		// 8. Graceful Shutdown
		select {
		case <-ctx.Done():
		case err := <-serverErr:
			stop()
			<-loopDone
			return fmt.Errorf("server failed: %w", err)
		}

		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logg.Warn("Server shutdown incomplete", zap.Error(err))
		}
		// A run in flight observes the cancelled context and finishes its report.
		<-loopDone
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "Only serve the API; runs are triggered with POST /agent/run")
	RootCmd.AddCommand(serveCmd)
}
