package rest

import (
	"github.com/autoperception/dataset-explorer/config"
	restEndpointV1 "github.com/autoperception/dataset-explorer/rest/endpoint/v1"
	"github.com/autoperception/dataset-explorer/types"
)

type RouteGenerator struct {
	deps   restEndpointV1.Dependencies
	config config.Config
}

func NewRouteGenerator(
	deps restEndpointV1.Dependencies,
	cfg config.Config,
) *RouteGenerator {
	return &RouteGenerator{
		deps:   deps,
		config: cfg,
	}
}

func (g *RouteGenerator) Routes(prefix string) []types.Route {
	return restEndpointV1.Routes(prefix, g.config, g.deps)
}
