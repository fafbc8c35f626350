package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/autoperception/dataset-explorer/catalog"
	"github.com/autoperception/dataset-explorer/config"
	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/log"
	"github.com/autoperception/dataset-explorer/rest"
	restEndpointV1 "github.com/autoperception/dataset-explorer/rest/endpoint/v1"
	"github.com/autoperception/dataset-explorer/schema"
	"github.com/autoperception/dataset-explorer/types"
)

const (
	DefaultMetadataRefreshInterval = 10 * time.Minute
	DefaultPopulationColumn        = "population"
	DefaultDistinctValuesLimit     = 100
	DefaultRowLimit                = 1000
	DefaultPresignExpiry           = 15 * time.Minute
)

type Engine string

const (
	EngineAthena Engine = "athena"
	EngineDuckDb Engine = "duckdb"
)

func ParseEngine(value string) (Engine, error) {
	switch Engine(value) {
	case EngineAthena, EngineDuckDb:
		return Engine(value), nil
	default:
		return "", fmt.Errorf("unknown engine '%s', expected athena or duckdb", value)
	}
}

type ExplorerConfig struct {
	engine               Engine
	awsRegion            string
	awsAccessKeyID       string
	awsSecretAccessKey   string
	athenaWorkgroup      string
	athenaDatabase       string
	athenaOutputLocation string
	athenaPollInterval   time.Duration
	duckDbPath           string
	catalogTable         string
	workflowTable        string
	catalogFile          string
	populationColumn     string
	distinctValuesLimit  int
	rowLimit             int
	presignExpiry        time.Duration
	updateInterval       time.Duration
	naming               config.NamingConvention
	dashboards           config.Dashboards
	logger               log.Logger
}

func (cfg ExplorerConfig) Naming() config.NamingConvention {
	return cfg.naming
}

func (cfg ExplorerConfig) PopulationColumn() string {
	return cfg.populationColumn
}

func (cfg ExplorerConfig) DistinctValuesLimit() int {
	return cfg.distinctValuesLimit
}

func (cfg ExplorerConfig) RowLimit() int {
	return cfg.rowLimit
}

func (cfg ExplorerConfig) PresignExpiry() time.Duration {
	return cfg.presignExpiry
}

func (cfg ExplorerConfig) Dashboards() config.Dashboards {
	return cfg.dashboards
}

func (cfg ExplorerConfig) Logger() log.Logger {
	return cfg.logger
}

func (cfg ExplorerConfig) MetadataRefreshInterval() time.Duration {
	return cfg.updateInterval
}

func (cfg *ExplorerConfig) WithEngine(engine Engine) *ExplorerConfig {
	cfg.engine = engine
	return cfg
}

func (cfg *ExplorerConfig) WithAwsRegion(region string) *ExplorerConfig {
	cfg.awsRegion = region
	return cfg
}

// WithAwsStaticCredentials replaces the default credential chain
func (cfg *ExplorerConfig) WithAwsStaticCredentials(accessKeyID string, secretAccessKey string) *ExplorerConfig {
	cfg.awsAccessKeyID = accessKeyID
	cfg.awsSecretAccessKey = secretAccessKey
	return cfg
}

func (cfg *ExplorerConfig) WithAthena(workgroup string, database string, outputLocation string) *ExplorerConfig {
	cfg.athenaWorkgroup = workgroup
	cfg.athenaDatabase = database
	cfg.athenaOutputLocation = outputLocation
	return cfg
}

func (cfg *ExplorerConfig) WithAthenaPollInterval(pollInterval time.Duration) *ExplorerConfig {
	cfg.athenaPollInterval = pollInterval
	return cfg
}

func (cfg *ExplorerConfig) WithDuckDbPath(path string) *ExplorerConfig {
	cfg.duckDbPath = path
	return cfg
}

func (cfg *ExplorerConfig) WithCatalogTable(table string) *ExplorerConfig {
	cfg.catalogTable = table
	return cfg
}

func (cfg *ExplorerConfig) WithWorkflowTable(table string) *ExplorerConfig {
	cfg.workflowTable = table
	return cfg
}

func (cfg *ExplorerConfig) WithCatalogFile(path string) *ExplorerConfig {
	cfg.catalogFile = path
	return cfg
}

func (cfg *ExplorerConfig) WithPopulationColumn(column string) *ExplorerConfig {
	cfg.populationColumn = column
	return cfg
}

func (cfg *ExplorerConfig) WithDistinctValuesLimit(limit int) *ExplorerConfig {
	cfg.distinctValuesLimit = limit
	return cfg
}

func (cfg *ExplorerConfig) WithRowLimit(limit int) *ExplorerConfig {
	cfg.rowLimit = limit
	return cfg
}

func (cfg *ExplorerConfig) WithPresignExpiry(expiry time.Duration) *ExplorerConfig {
	cfg.presignExpiry = expiry
	return cfg
}

func (cfg *ExplorerConfig) WithMetadataRefreshInterval(updateInterval time.Duration) *ExplorerConfig {
	cfg.updateInterval = updateInterval
	return cfg
}

func (cfg *ExplorerConfig) WithNaming(naming config.NamingConvention) *ExplorerConfig {
	cfg.naming = naming
	return cfg
}

func (cfg *ExplorerConfig) WithDashboards(dashboards config.Dashboards) *ExplorerConfig {
	cfg.dashboards = dashboards
	return cfg
}

// NewEndpoint connects the query engine and the catalog stores
func (cfg ExplorerConfig) NewEndpoint(ctx context.Context) (*Endpoint, error) {
	var (
		awsCfg    aws.Config
		hasAws    = cfg.engine == EngineAthena || cfg.catalogTable != "" || cfg.awsRegion != ""
		session   db.Session
		presigner db.Presigner
		err       error
	)

	if hasAws {
		if awsCfg, err = cfg.loadAwsConfig(ctx); err != nil {
			return nil, err
		}
		presigner = db.NewS3Presigner(s3.NewFromConfig(awsCfg))
	}

	var (
		source    catalog.Source
		workflows catalog.WorkflowSource
	)
	switch {
	case cfg.catalogFile != "":
		fileSource, err := catalog.LoadFile(cfg.catalogFile)
		if err != nil {
			return nil, err
		}
		source, workflows = fileSource, fileSource
	case cfg.catalogTable != "":
		dynamoSource := catalog.NewDynamoDbSource(
			db.NewKeyValueStore(dynamodb.NewFromConfig(awsCfg)), cfg.catalogTable, cfg.workflowTable)
		source = dynamoSource
		if cfg.workflowTable != "" {
			workflows = dynamoSource
		}
	default:
		return nil, errors.New("either a catalog file or a catalog table is required")
	}

	options := db.NewQueryOptions()
	switch cfg.engine {
	case EngineAthena:
		session = db.NewAthenaSession(athena.NewFromConfig(awsCfg), cfg.athenaPollInterval)
		options.
			WithDatabase(cfg.athenaDatabase).
			WithOutputLocation(cfg.athenaOutputLocation)
		if cfg.athenaWorkgroup != "" {
			options.WithWorkgroup(cfg.athenaWorkgroup)
		}
	case EngineDuckDb:
		if session, err = db.NewDuckDbSession(cfg.duckDbPath); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown engine '%s'", cfg.engine)
	}

	return cfg.newEndpointWithDeps(session, options, source, workflows, presigner), nil
}

func (cfg ExplorerConfig) loadAwsConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.awsRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.awsRegion))
	}
	if cfg.awsAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.awsAccessKeyID, cfg.awsSecretAccessKey, "")))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func (cfg ExplorerConfig) newEndpointWithDeps(
	session db.Session,
	options *db.QueryOptions,
	source catalog.Source,
	workflowSource catalog.WorkflowSource,
	presigner db.Presigner,
) *Endpoint {
	dbClient := db.NewDbWithSession(session, options, cfg.logger)
	registry := catalog.NewRegistry(source, cfg.logger)
	cache := schema.NewCache(dbClient, cfg.distinctValuesLimit, cfg.logger)

	deps := restEndpointV1.Dependencies{
		Catalog:   registry,
		Metadata:  cache,
		Db:        dbClient,
		Presigner: presigner,
	}
	if workflowSource != nil {
		deps.Workflows = catalog.NewWorkflows(workflowSource)
	}

	return &Endpoint{
		session:      session,
		restRouteGen: rest.NewRouteGenerator(deps, cfg),
		updater:      schema.NewUpdater(cfg.updateInterval, cfg.logger, registry, cache),
		cache:        cache,
		logger:       cfg.logger,
	}
}

type Endpoint struct {
	session      db.Session
	restRouteGen *rest.RouteGenerator
	updater      *schema.Updater
	cache        *schema.Cache
	logger       log.Logger
	started      bool
}

func NewEndpointConfig(engine Engine) (*ExplorerConfig, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewEndpointConfigWithLogger(log.NewZapLogger(logger), engine), nil
}

func NewEndpointConfigWithLogger(logger log.Logger, engine Engine) *ExplorerConfig {
	return &ExplorerConfig{
		engine:              engine,
		populationColumn:    DefaultPopulationColumn,
		distinctValuesLimit: DefaultDistinctValuesLimit,
		rowLimit:            DefaultRowLimit,
		presignExpiry:       DefaultPresignExpiry,
		athenaPollInterval:  db.DefaultPollInterval,
		updateInterval:      DefaultMetadataRefreshInterval,
		naming:              config.NewDefaultNaming(),
		dashboards:          config.AllDashboards,
		logger:              logger,
	}
}

func (e *Endpoint) RoutesRest(prefix string) []types.Route {
	return e.restRouteGen.Routes(prefix)
}

// Start refreshes the catalog and metadata caches in the background
func (e *Endpoint) Start() {
	e.started = true
	go e.updater.Start()
}

// Close stops the refreshes and releases the query engine
func (e *Endpoint) Close() error {
	e.updater.Stop()
	if e.started {
		<-e.updater.Done()
	}

	hits, misses := e.cache.Stats()
	e.logger.Debug("endpoint closed", "cacheHits", hits, "cacheMisses", misses)

	if closer, ok := e.session.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
