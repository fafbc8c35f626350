package config

import (
	"time"

	"github.com/autoperception/dataset-explorer/log"
)

type Config interface {
	Naming() NamingConvention
	PopulationColumn() string
	DistinctValuesLimit() int
	RowLimit() int
	PresignExpiry() time.Duration
	Dashboards() Dashboards
	Logger() log.Logger
}
