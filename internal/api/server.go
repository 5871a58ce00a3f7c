package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/auth"
	"github.com/nerrad567/smartaura-core/internal/automation"
	"github.com/nerrad567/smartaura-core/internal/dashboard"
	"github.com/nerrad567/smartaura-core/internal/eventlog"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/logging"
	"github.com/nerrad567/smartaura-core/internal/sensor"
	"github.com/nerrad567/smartaura-core/internal/voice"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SensorSource returns the latest sensor snapshot. Satisfied by *sensor.Cache.
type SensorSource interface {
	Latest() sensor.Snapshot
}

// Automation exposes the controller. Satisfied by *automation.Controller.
type Automation interface {
	Status() automation.Status
	Leave(source actuator.Source) []actuator.State
}

// TextAssistant handles typed assistant queries. Satisfied by *voice.Assistant.
type TextAssistant interface {
	HandleText(ctx context.Context, text string) voice.Outcome
	Session() *voice.Session
	Leave(source actuator.Source) []actuator.State
}

// EventLog reads the system event and Q/A logs. Satisfied by *eventlog.Log.
type EventLog interface {
	Events(ctx context.Context) ([]eventlog.Entry, error)
	QAs(ctx context.Context) ([]eventlog.QA, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Registry   *actuator.Registry
	Sensors    SensorSource
	Automation Automation
	Assistant  TextAssistant // nil when no assistant is configured
	Events     EventLog
	Users      *auth.Directory
	Hub        *Hub // If set, the server uses this hub instead of creating its own
	Version    string
}

// Server is the HTTP API server for SmartAura.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	registry   *actuator.Registry
	sensors    SensorSource
	automation Automation
	assistant  TextAssistant
	events     EventLog
	users      *auth.Directory
	version    string
	tickets    *ticketStore
	clock      func() time.Time
	server     *http.Server
	hub        *Hub
	ownHub     bool
	dashboard  http.Handler
	cancel     context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("actuator registry is required")
	}
	if deps.Sensors == nil {
		return nil, fmt.Errorf("sensor source is required")
	}
	if deps.Automation == nil {
		return nil, fmt.Errorf("automation controller is required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event log is required")
	}
	if deps.Security.AuthEnabled {
		if deps.Users == nil {
			return nil, fmt.Errorf("user directory is required when auth is enabled")
		}
		if deps.Security.JWT.Secret == "" {
			return nil, fmt.Errorf("jwt secret is required when auth is enabled")
		}
	}

	dash, err := dashboard.Handler(deps.Config.DashboardDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		registry:   deps.Registry,
		sensors:    deps.Sensors,
		automation: deps.Automation,
		assistant:  deps.Assistant,
		events:     deps.Events,
		users:      deps.Users,
		version:    deps.Version,
		tickets:    newTicketStore(),
		clock:      time.Now,
		hub:        deps.Hub,
		dashboard:  dash,
	}
	if s.hub == nil {
		s.hub = NewHub(deps.WS, deps.Logger)
		s.ownHub = true
	}
	return s, nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the HTTP listener in a background goroutine. The server
// can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.ownHub {
		go s.hub.Run(srvCtx)
	}
	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
