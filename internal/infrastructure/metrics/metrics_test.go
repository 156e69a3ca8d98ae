package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/infrastructure/metrics"
)

func TestCollector_Workflows(t *testing.T) {
	c := metrics.New(false)

	c.WorkflowFinished("provision_tenant", nil)
	c.WorkflowFinished("provision_tenant", domain.ErrSlugTaken)
	c.WorkflowFinished("provision_tenant", errors.New("x"))
	c.CompensationRan("provision_tenant", "identity", nil)

	n, err := testutil.GatherAndCount(c.Registry(), "seedor_workflows_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = testutil.GatherAndCount(c.Registry(), "seedor_compensations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	c := metrics.New(false)
	app := fiber.New()
	app.Use(c.Middleware())
	app.Get("/ping/:id", func(ctx *fiber.Ctx) error { return ctx.SendString("pong") })
	app.Get("/metrics", c.Handler())

	for _, id := range []string{"1", "2", "3"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// una sola serie para la ruta parametrizada
	n, err := testutil.GatherAndCount(c.Registry(), "seedor_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `seedor_http_requests_total{method="GET",route="/ping/:id",status="200"} 3`)
}
