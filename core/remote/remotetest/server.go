// Package remotetest provides an in-memory remote inventory API for tests.
//
// The server implements the device and component endpoints on a fiber app
// and supports failure injection. Doer routes requests straight into the
// app without opening a socket.
//
// Usage:
//
//	srv := remotetest.New("secret")
//	client, _ := remote.NewWithDoer(remote.Config{URL: remotetest.URL, Token: "secret"}, srv.Doer(), log)
//	srv.FailStatus(http.MethodGet, "/api/v1/devices", http.StatusServiceUnavailable, 2)
package remotetest

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"inventory-agent/core/model"
	"inventory-agent/core/remote"

	"github.com/gofiber/fiber/v2"
)

// URL is the base URL clients should use with Doer.
const URL = "http://inventory.test"

type failure struct {
	method    string
	prefix    string
	status    int
	remaining int
}

// Server is an in-memory remote inventory.
type Server struct {
	App *fiber.App

	mu            sync.Mutex
	token         string
	devices       map[string]*remote.DeviceResource
	nextID        int
	failures      []*failure
	networkErrors int
	networkErr    error
	requests      []string
	onRequest     func(method, path string)
}

// New creates a server that requires token as bearer token; an empty
// token disables the check.
func New(token string) *Server {
	s := &Server{
		App:     fiber.New(fiber.Config{DisableStartupMessage: true}),
		token:   token,
		devices: make(map[string]*remote.DeviceResource),
	}

	s.App.Use(s.intercept)
	s.App.Get("/api/v1/devices", s.list)
	s.App.Post("/api/v1/devices", s.create)
	s.App.Patch("/api/v1/devices/:id", s.updateDevice)
	s.App.Post("/api/v1/devices/:id/components", s.addComponent)
	s.App.Patch("/api/v1/devices/:id/components/:cid", s.updateComponent)
	s.App.Delete("/api/v1/devices/:id/components/:cid", s.removeComponent)
	return s
}

// Doer returns a remote.Doer that serves requests from the fiber app.
func (s *Server) Doer() remote.Doer {
	return doer{s: s}
}

type doer struct {
	s *Server
}

func (d doer) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if err := d.s.takeNetworkError(); err != nil {
		return nil, err
	}
	return d.s.App.Test(req, -1)
}

// FailStatus makes the next times requests matching method and path
// prefix fail with status.
func (s *Server) FailStatus(method, pathPrefix string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, &failure{method: method, prefix: pathPrefix, status: status, remaining: times})
}

// FailNetwork makes the next times requests fail before reaching the server.
func (s *Server) FailNetwork(times int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networkErrors, s.networkErr = times, err
}

// OnRequest registers a hook run before each request is served.
func (s *Server) OnRequest(fn func(method, path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRequest = fn
}

// Requests returns "METHOD path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Seed stores a device as if it had been created earlier.
func (s *Server) Seed(d model.Device) *model.RemoteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := remote.NewDeviceResource(d)
	s.store(&res)
	return res.Record()
}

// Device returns the current state of the device with identity, or nil.
func (s *Server) Device(identity string) *model.RemoteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res := s.byIdentity(identity); res != nil {
		return res.Record()
	}
	return nil
}

// Edit changes a stored device in place, simulating another writer.
func (s *Server) Edit(identity string, fn func(*remote.DeviceResource)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res := s.byIdentity(identity); res != nil {
		fn(res)
	}
}

// Len returns the number of stored devices.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

func (s *Server) takeNetworkError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.networkErrors == 0 {
		return nil
	}
	s.networkErrors--
	return s.networkErr
}

func (s *Server) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *Server) store(res *remote.DeviceResource) {
	res.ID = s.id("dev")
	for i := range res.Components {
		res.Components[i].ID = s.id("cmp")
	}
	s.devices[res.ID] = res
}

func (s *Server) byIdentity(identity string) *remote.DeviceResource {
	for _, res := range s.devices {
		if res.Identity == identity {
			return res
		}
	}
	return nil
}

func (s *Server) intercept(c *fiber.Ctx) error {
	s.mu.Lock()
	s.requests = append(s.requests, c.Method()+" "+c.OriginalURL())
	hook := s.onRequest
	var injected int
	for _, f := range s.failures {
		if f.remaining > 0 && f.method == c.Method() && strings.HasPrefix(c.Path(), f.prefix) {
			f.remaining--
			injected = f.status
			break
		}
	}
	s.mu.Unlock()

	if hook != nil {
		hook(c.Method(), c.Path())
	}
	if s.token != "" && c.Get(fiber.HeaderAuthorization) != "Bearer "+s.token {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "invalid token"})
	}
	if injected != 0 {
		return c.Status(injected).JSON(fiber.Map{"detail": "injected failure"})
	}
	return c.Next()
}

func (s *Server) list(c *fiber.Ctx) error {
	identity := c.Query("identity")
	s.mu.Lock()
	defer s.mu.Unlock()

	out := remote.ListResponse{Results: []remote.DeviceResource{}}
	if res := s.byIdentity(identity); res != nil {
		out.Results = append(out.Results, *res)
	}
	return c.JSON(out)
}

func (s *Server) create(c *fiber.Ctx) error {
	var res remote.DeviceResource
	if err := c.BodyParser(&res); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}
	if res.Identity == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": "identity is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byIdentity(res.Identity) != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"detail": "identity already exists"})
	}
	s.store(&res)
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) updateDevice(c *fiber.Ctx) error {
	var fields map[string]string
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.devices[c.Params("id")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "device not found"})
	}
	res.Set(fields)
	return c.JSON(res)
}

func (s *Server) addComponent(c *fiber.Ctx) error {
	var comp remote.ComponentResource
	if err := c.BodyParser(&comp); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.devices[c.Params("id")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "device not found"})
	}
	for _, existing := range res.Components {
		if existing.Kind == comp.Kind && existing.Key == comp.Key {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"detail": "component already exists"})
		}
	}
	comp.ID = s.id("cmp")
	res.Components = append(res.Components, comp)
	return c.Status(fiber.StatusCreated).JSON(comp)
}

func (s *Server) component(c *fiber.Ctx) (*remote.DeviceResource, int, error) {
	res, ok := s.devices[c.Params("id")]
	if !ok {
		return nil, -1, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "device not found"})
	}
	for i := range res.Components {
		if res.Components[i].ID == c.Params("cid") {
			return res, i, nil
		}
	}
	return nil, -1, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "component not found"})
}

func (s *Server) updateComponent(c *fiber.Ctx) error {
	var patch remote.ComponentPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, i, err := s.component(c)
	if res == nil {
		return err
	}
	if res.Components[i].Fields == nil {
		res.Components[i].Fields = make(map[string]string)
	}
	for k, v := range patch.Fields {
		res.Components[i].Fields[k] = v
	}
	return c.JSON(res.Components[i])
}

func (s *Server) removeComponent(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, i, err := s.component(c)
	if res == nil {
		return err
	}
	res.Components = append(res.Components[:i], res.Components[i+1:]...)
	return c.SendStatus(fiber.StatusNoContent)
}
