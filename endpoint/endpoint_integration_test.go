package endpoint

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/autoperception/dataset-explorer/catalog"
	"github.com/autoperception/dataset-explorer/db"
	. "github.com/autoperception/dataset-explorer/internal/testutil"
	"github.com/autoperception/dataset-explorer/internal/testutil/fixtures"
	"github.com/autoperception/dataset-explorer/schema"
)

var session *db.DuckDbSession

var _ = Describe("Endpoint", func() {
	BeforeEach(func() {
		if !IntegrationTestsEnabled() {
			Skip("Integration tests are not enabled")
		}
	})

	Describe("Refresh()", func() {
		It("Should pick up columns added after the first probe", func() {
			ctx := context.Background()
			path := fixtures.Database + ".refreshed"
			Expect(session.Exec(ctx, "CREATE TABLE "+path+" (a INTEGER)")).To(Succeed())
			defer func() {
				_ = session.Exec(ctx, "DROP TABLE "+path)
			}()

			source := catalog.NewFileSource([]catalog.Dataset{
				{Name: "dump_a", Tables: map[string]string{"refreshed": path}},
			}, nil)
			endpoint := NewEndpointConfigWithLogger(TestLogger(), EngineDuckDb).
				newEndpointWithDeps(session, nil, source, nil, nil)

			table := schema.NewTable("refreshed").WithPath("dump_a", path)
			columns, err := endpoint.cache.Columns(ctx, table, "dump_a")
			Expect(err).ToNot(HaveOccurred())
			Expect(columns).To(HaveLen(1))
			Expect(columns["a"].Type).To(Equal(schema.TypeNumber))

			Expect(session.Exec(ctx, "ALTER TABLE "+path+" ADD COLUMN b VARCHAR")).To(Succeed())
			Expect(endpoint.cache.Refresh(ctx)).To(Succeed())

			columns, err = endpoint.cache.Columns(ctx, table, "dump_a")
			Expect(err).ToNot(HaveOccurred())
			Expect(columns).To(HaveLen(2))
			Expect(columns["b"].Type).To(Equal(schema.TypeString))
		})
	})
})

var _ = BeforeSuite(func() {
	if !IntegrationTestsEnabled() {
		return
	}

	session = SetupIntegrationTestFixture()
})

var _ = AfterSuite(func() {
	TearDownIntegrationTestFixture()
})

func TestEndpoint(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Endpoint integration test suite")
}
