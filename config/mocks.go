package config

import (
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/autoperception/dataset-explorer/log"
)

type ConfigMock struct {
	mock.Mock
}

func NewConfigMock() *ConfigMock {
	return &ConfigMock{}
}

func (o *ConfigMock) Default() *ConfigMock {
	o.On("Naming").Return(NewDefaultNaming())
	o.On("PopulationColumn").Return("population")
	o.On("DistinctValuesLimit").Return(100)
	o.On("RowLimit").Return(1000)
	o.On("PresignExpiry").Return(15 * time.Minute)
	o.On("Dashboards").Return(AllDashboards)
	o.On("Logger").Return(log.NewZapLogger(zap.NewExample()))
	return o
}

func (o *ConfigMock) Naming() NamingConvention {
	args := o.Called()
	return args.Get(0).(NamingConvention)
}

func (o *ConfigMock) PopulationColumn() string {
	args := o.Called()
	return args.String(0)
}

func (o *ConfigMock) DistinctValuesLimit() int {
	args := o.Called()
	return args.Int(0)
}

func (o *ConfigMock) RowLimit() int {
	args := o.Called()
	return args.Int(0)
}

func (o *ConfigMock) PresignExpiry() time.Duration {
	args := o.Called()
	return args.Get(0).(time.Duration)
}

func (o *ConfigMock) Dashboards() Dashboards {
	args := o.Called()
	return args.Get(0).(Dashboards)
}

func (o *ConfigMock) Logger() log.Logger {
	args := o.Called()
	return args.Get(0).(log.Logger)
}
