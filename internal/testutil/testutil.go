package testutil

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/internal/testutil/fixtures"
	"github.com/autoperception/dataset-explorer/log"
)

var session *db.DuckDbSession

// IntegrationTestsEnabled reports whether the DuckDB backed suites should run
func IntegrationTestsEnabled() bool {
	return strings.ToUpper(os.Getenv("RUN_INTEGRATION_TESTS")) == "ON"
}

// SetupIntegrationTestFixture opens an in-memory DuckDB database with the
// perception fixture tables, then runs the extra queries.
func SetupIntegrationTestFixture(queries ...string) *db.DuckDbSession {
	var err error
	if session, err = db.NewDuckDbSession(""); err != nil {
		panic(err)
	}

	ctx := context.Background()
	for _, query := range append(fixtures.Perception(), queries...) {
		PanicIfError(session.Exec(ctx, query))
	}

	return session
}

func TearDownIntegrationTestFixture() {
	if session != nil {
		_ = session.Close()
		session = nil
	}
}

func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

func TestLogger() log.Logger {
	if strings.ToUpper(os.Getenv("TEST_TRACE")) == "ON" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log.NewZapLogger(logger)
	}

	return log.NewZapLogger(zap.NewNop())
}
