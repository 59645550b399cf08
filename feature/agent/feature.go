package agent

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	driver  *Driver
	handler *Handler
}

// NewFeature creates the agent feature around an existing driver.
func NewFeature(driver *Driver, logger *zap.Logger) *Feature {
	return &Feature{driver: driver, handler: NewHandler(driver, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "agent"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.driver != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
