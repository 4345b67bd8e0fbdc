package container

import (
	"fmt"
	"net/http"

	"go-video-inspector/internal/analysis"
	"go-video-inspector/internal/config"
	"go-video-inspector/internal/factory"
	"go-video-inspector/internal/logger"
	"go-video-inspector/internal/mcp"
	"go-video-inspector/internal/observer"
	"go-video-inspector/internal/report"
	"go-video-inspector/internal/service"
	"go-video-inspector/internal/transport"
	"go-video-inspector/pkg/validation"
)

// Container holds all application dependencies. The resolved credential is
// injected here once and flows through constructors only.
type Container struct {
	config      *config.Config
	events      observer.Subject
	metrics     *observer.MetricsObserver
	client      *analysis.Client
	controller  *analysis.Controller
	service     service.VideoAnalysisService
	toolServer  *mcp.Server
	httpHandler http.Handler
}

// NewContainer wires the dependency graph for one process.
func NewContainer(cfg *config.Config, apiKey string) (*Container, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	client := analysis.NewClient(cfg.APIBaseURL, apiKey, cfg.RequestTimeout)

	uploader, err := factory.NewUploaderFactory().CreateUploader(cfg, client)
	if err != nil {
		return nil, err
	}

	controller := analysis.NewController(client, analysis.ControllerOptions{
		Interval:      cfg.PollInterval,
		MaxAttempts:   cfg.PollMaxAttempts,
		ProgressEvery: cfg.ProgressEveryAttempts,
		StatusURL:     cfg.StatusCheckURL,
	})

	validator := validation.NewVideoValidatorWithOptions(
		cfg.MaxVideoSizeBytes, validation.DefaultAllowedFormats())
	formatter := report.NewFormatter()

	analysisService := service.NewVideoAnalysisService(validator, uploader, controller, formatter, events)
	toolServer := mcp.NewServer(analysisService, logger.Logger)
	httpHandler := transport.NewHandler(toolServer, metrics)

	return &Container{
		config:      cfg,
		events:      events,
		metrics:     metrics,
		client:      client,
		controller:  controller,
		service:     analysisService,
		toolServer:  toolServer,
		httpHandler: httpHandler,
	}, nil
}

// ToolServer returns the tool protocol server
func (c *Container) ToolServer() *mcp.Server {
	return c.toolServer
}

// HTTPHandler returns the HTTP transport handler
func (c *Container) HTTPHandler() http.Handler {
	return c.httpHandler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
