package http_api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"

	"github.com/q3xlabs/q3x/client/api/http_api/router"
	"github.com/q3xlabs/q3x/client/config"
	"github.com/q3xlabs/q3x/client/services/node"
)

type RESTApiProvider struct {
	config       *config.HttpApiConfig
	echoInstance *echo.Echo
}

func NewRESTApi(config *config.Config, node node.NodeService) (*RESTApiProvider, error) {
	if config.HttpApiConfig == nil {
		return nil, errors.New("http api config is required")
	}

	p := &RESTApiProvider{
		config: config.HttpApiConfig,
	}

	p.echoInstance = echo.New()

	p.echoInstance.HideBanner = true
	p.echoInstance.HidePort = true
	p.echoInstance.Debug = config.HttpApiConfig.Debug

	p.echoInstance.HTTPErrorHandler = customHTTPErrorHandler

	// Middlewares

	p.echoInstance.Use(echo_middleware.Logger())
	p.echoInstance.Use(echo_middleware.Recover())

	p.echoInstance.Use(contextServiceMiddleware)

	router.SetRouter(p.echoInstance, node)

	return p, nil
}

// Start blocks until the server is stopped
func (p *RESTApiProvider) Start() error {
	if err := p.echoInstance.Start(p.config.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (p *RESTApiProvider) Stop(ctx context.Context) error {
	return p.echoInstance.Shutdown(ctx)
}

func (p *RESTApiProvider) Handler() http.Handler {
	return p.echoInstance
}
