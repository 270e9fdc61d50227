package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/config"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

// Module provides the Renderer to Fx.
var Module = fx.Provide(NewRenderer)

// Renderer holds response settings shared by all handlers.
type Renderer struct {
	exposeErrors bool
}

// NewRenderer reads response settings from cfg.
func NewRenderer(cfg config.Config) *Renderer {
	return &Renderer{exposeErrors: cfg.HTTP.ExposeErrors}
}

// For starts a Builder for one request.
func (r *Renderer) For(ctx echo.Context) *Builder {
	b := New(ctx)
	if r != nil {
		b.exposeErrors = r.exposeErrors
	}
	return b
}

// Builder helps construct consistent HTTP responses. Success bodies are the
// data itself; client errors are {"message": ...}; server errors are
// {"error": ...}.
type Builder struct {
	ctx          echo.Context
	status       int
	data         any
	err          error
	exposeErrors bool
}

// New instantiates a Builder for the provided request context. Server error
// bodies carry the full error text unless the Renderer says otherwise.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK, exposeErrors: true}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.ctx.JSON(b.status, b.data)
}

// ClientError is the body of a 4xx response.
type ClientError struct {
	Message string `json:"message"`
}

// ServerError is the body of a 5xx response.
type ServerError struct {
	Error string `json:"error"`
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}

	if status < http.StatusInternalServerError {
		return b.ctx.JSON(status, ClientError{Message: appErr.Message()})
	}

	text := appErr.Message()
	if b.exposeErrors {
		text = appErr.Error()
	}
	return b.ctx.JSON(status, ServerError{Error: text})
}
