package server

import (
	"net/http"

	"movielist/internal/conf"
	"movielist/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

type errorPage struct {
	Title   string
	Code    int
	Status  string
	Message string
}

// errorPageEncoder renders kratos errors as an HTML page with the error's status
func errorPageEncoder(renderer service.Renderer, logger log.Logger) khttp.EncodeErrorFunc {
	l := log.NewHelper(logger)
	return func(w http.ResponseWriter, r *http.Request, err error) {
		se := errors.FromError(err)
		code := int(se.Code)
		message := se.Message
		if code >= http.StatusInternalServerError {
			l.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
			if code == http.StatusInternalServerError {
				message = "something went wrong"
			}
		}

		page := &errorPage{
			Title:   http.StatusText(code),
			Code:    code,
			Status:  http.StatusText(code),
			Message: message,
		}
		if rerr := renderer.Render(w, code, "error.html", page); rerr != nil {
			l.Errorf("failed to render error page: %v", rerr)
			khttp.DefaultErrorEncoder(w, r, err)
		}
	}
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, svc *service.MovieListService, renderer service.Renderer, logger log.Logger) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			RequestIDMiddleware(),
			logging.Server(logger),
		),
		khttp.ErrorEncoder(errorPageEncoder(renderer, logger)),
	}
	if c.Http != nil {
		if c.Http.Network != "" {
			opts = append(opts, khttp.Network(c.Http.Network))
		}
		if c.Http.Addr != "" {
			opts = append(opts, khttp.Address(c.Http.Addr))
		}
		if c.Http.Timeout != nil {
			opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
		}
	}
	srv := khttp.NewServer(opts...)
	svc.RegisterHTTPRoutes(srv)
	return srv
}
