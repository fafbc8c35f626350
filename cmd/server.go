package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	log2 "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autoperception/dataset-explorer/auth"
	"github.com/autoperception/dataset-explorer/config"
	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/endpoint"
	"github.com/autoperception/dataset-explorer/log"
	"github.com/autoperception/dataset-explorer/rest"
)

const defaultPathPrefix = "/api"

const shutdownTimeout = 10 * time.Second

// Environment variables prefixed with "EXPLORER_" can override settings e.g. "EXPLORER_PORT"
const envVarPrefix = "explorer"

var cfgFile string
var logger log.Logger

var serverCmd = &cobra.Command{
	Use:   os.Args[0] + " --engine [athena|duckdb] [--catalog-table TABLE|--catalog-file FILE] [OPTIONS]",
	Short: "Data exploration API for perception datasets",
	Args: func(cmd *cobra.Command, args []string) error {
		if _, err := endpoint.ParseEngine(viper.GetString("engine")); err != nil {
			return err
		}

		if viper.GetString("catalog-file") == "" && viper.GetString("catalog-table") == "" {
			return errors.New("either a catalog file or a catalog table is required")
		}

		if _, err := config.Enabled(getStringSlice("dashboards")...); err != nil {
			return err
		}

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		explorer := createEndpoint(ctx)
		explorer.Start()

		allowOrigin := viper.GetString("access-control-allow-origin")
		routes := explorer.RoutesRest(viper.GetString("path-prefix"))
		handler := auth.NewUserHandler(rest.NewRouter(routes, allowOrigin))
		handler = rest.WithCORS(maybeAddRequestLogging(handler), allowOrigin)

		listenAndServe(ctx, handler, viper.GetString("host"), viper.GetInt("port"))

		if err := explorer.Close(); err != nil {
			logger.Error("unable to close endpoint", "error", err)
		}
	},
}

// Execute starts the REST endpoint
func Execute() {
	zapLogger, err := log.NewProduction(false)
	if err != nil {
		log2.Fatalf("unable to initialize logger: %v", err)
	}

	logger = zapLogger

	flags := serverCmd.PersistentFlags()

	// General endpoint flags
	flags.StringVarP(&cfgFile, "config", "c", "", "config file")
	flags.String("host", "", "address to bind the endpoint to")
	flags.IntP("port", "p", 8080, "endpoint port")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("path-prefix", defaultPathPrefix, "prefix of the REST routes")
	flags.Bool("request-logging", false, "enable request logging")
	flags.String("access-control-allow-origin", "", "Access-Control-Allow-Origin header value")
	flags.StringSlice("dashboards", []string{"All"},
		"list of enabled dashboards. options: Catalog,Filter,Histogram,ConfusionMatrix,Frames,Workflows,All")

	// Query engine flags
	flags.String("engine", string(endpoint.EngineAthena), "query engine. options: athena,duckdb")
	flags.String("aws-region", "", "AWS region of the Athena, DynamoDB and S3 clients")
	flags.String("aws-access-key-id", "", "static AWS access key id, the default credential chain is used when empty")
	flags.String("aws-secret-access-key", "", "static AWS secret access key")
	flags.String("athena-workgroup", "", "Athena workgroup")
	flags.String("athena-database", "", "default Athena database")
	flags.String("athena-output-location", "", "S3 location of the Athena query results")
	flags.Duration("athena-poll-interval", db.DefaultPollInterval, "interval between Athena query status checks")
	flags.String("duckdb-path", "", "DuckDB database file, in-memory when empty")

	// Catalog flags
	flags.String("catalog-table", "", "DynamoDB table holding the dataset catalog")
	flags.String("workflow-table", "", "DynamoDB table holding the workflow statuses")
	flags.String("catalog-file", "", "YAML or JSON file holding the dataset catalog, used instead of the catalog table")

	// Dashboard flags
	flags.String("population-column", endpoint.DefaultPopulationColumn, "column holding the population split of a row")
	flags.Int("distinct-values-limit", endpoint.DefaultDistinctValuesLimit, "maximum number of values listed for a column")
	flags.Int("row-limit", endpoint.DefaultRowLimit, "maximum number of rows returned by a query")
	flags.Duration("presign-expiry", endpoint.DefaultPresignExpiry, "lifetime of the presigned frame urls")
	flags.Duration("metadata-refresh-interval", endpoint.DefaultMetadataRefreshInterval,
		"interval used to refresh the catalog and column metadata")

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "config" {
			_ = viper.BindPFlag(flag.Name, flags.Lookup(flag.Name))
		}
	})

	cobra.OnInitialize(initialize)

	viper.SetEnvPrefix(envVarPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := serverCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createEndpoint(ctx context.Context) *endpoint.Endpoint {
	engine, err := endpoint.ParseEngine(viper.GetString("engine"))
	if err != nil {
		logger.Fatal("invalid engine", "error", err)
	}

	dashboards, err := config.Enabled(getStringSlice("dashboards")...)
	if err != nil {
		logger.Fatal("invalid dashboards", "error", err)
	}

	refreshInterval := viper.GetDuration("metadata-refresh-interval")
	if refreshInterval <= 0 {
		refreshInterval = endpoint.DefaultMetadataRefreshInterval
	}

	cfg := endpoint.NewEndpointConfigWithLogger(logger, engine).
		WithAwsRegion(viper.GetString("aws-region")).
		WithAwsStaticCredentials(viper.GetString("aws-access-key-id"), viper.GetString("aws-secret-access-key")).
		WithAthena(
			viper.GetString("athena-workgroup"),
			viper.GetString("athena-database"),
			viper.GetString("athena-output-location")).
		WithAthenaPollInterval(viper.GetDuration("athena-poll-interval")).
		WithDuckDbPath(viper.GetString("duckdb-path")).
		WithCatalogTable(viper.GetString("catalog-table")).
		WithWorkflowTable(viper.GetString("workflow-table")).
		WithCatalogFile(viper.GetString("catalog-file")).
		WithPopulationColumn(viper.GetString("population-column")).
		WithDistinctValuesLimit(viper.GetInt("distinct-values-limit")).
		WithRowLimit(viper.GetInt("row-limit")).
		WithPresignExpiry(viper.GetDuration("presign-expiry")).
		WithMetadataRefreshInterval(refreshInterval).
		WithDashboards(dashboards)

	explorer, err := cfg.NewEndpoint(ctx)
	if err != nil {
		logger.Fatal("unable create new endpoint",
			"error", err)
	}

	return explorer
}

func maybeAddRequestLogging(handler http.Handler) http.Handler {
	if viper.GetBool("request-logging") {
		handler = log.NewLoggingHandler(handler, logger)
	}
	return handler
}

func initialize() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil {
			logger.Info("using config file",
				"file", viper.ConfigFileUsed())
		}
	}

	if viper.GetBool("debug") {
		zapLogger, err := log.NewProduction(true)
		if err != nil {
			log2.Fatalf("unable to initialize logger: %v", err)
		}
		logger = zapLogger
	}
}

func listenAndServe(ctx context.Context, handler http.Handler, host string, port int) {
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("unable to shutdown server", "error", err)
		}
	}()

	logger.Info("server listening",
		"host", host,
		"port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("unable to start server",
			"port", port,
			"error", err)
	}
}

func getStringSlice(key string) []string {
	value := viper.GetStringSlice(key)
	slice, err := toStringSlice(value)
	if err != nil {
		logger.Fatal("invalid string slice value for setting",
			"error", err,
			"key", key,
			"value", value)
	}
	return slice
}

func toStringSlice(slice []string) ([]string, error) {
	result := make([]string, 0)
	for _, entry := range slice {
		stringReader := strings.NewReader(entry)
		csvReader := csv.NewReader(stringReader)
		split, err := csvReader.Read()
		if err != nil {
			return nil, err
		}
		for _, part := range split {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result, nil
}
