package loader

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("skips disabled features", func(t *testing.T) {
		on := &stubFeature{name: "on", enabled: true}
		off := &stubFeature{name: "off"}
		mgr := NewManager(zap.NewNop())
		mgr.Register(on)
		mgr.Register(off)

		assert.NoError(t, mgr.LoadAll(fiber.New()))
		assert.True(t, on.loaded)
		assert.False(t, off.loaded)
		assert.Len(t, mgr.Features(), 2)
	})

	t.Run("stops on failure", func(t *testing.T) {
		broken := &stubFeature{name: "broken", enabled: true, err: assert.AnError}
		next := &stubFeature{name: "next", enabled: true}
		mgr := NewManager(zap.NewNop())
		mgr.Register(broken)
		mgr.Register(next)

		err := mgr.LoadAll(fiber.New())
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "broken")
		assert.False(t, next.loaded)
	})
}
