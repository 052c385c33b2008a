//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"movielist/internal/biz"
	"movielist/internal/conf"
	"movielist/internal/data"
	"movielist/internal/server"
	"movielist/internal/service"
	"movielist/internal/view"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.TMDB, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		view.ProviderSet,
		wire.Bind(new(service.Renderer), new(*view.Renderer)),
		newApp,
	))
}
