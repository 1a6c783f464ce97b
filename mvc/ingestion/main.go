package ingestion

import (
	"net/http"

	"github.com/labstack/echo"

	"variation-commons/api/contexts"
)

func VariantSourcesIngest(c echo.Context) error {
	ac := c.(*contexts.ApiContext)
	return c.JSON(http.StatusOK, ac.IngestionService.IngestManifests(ac.Manifests))
}

func GetAllVariantSourceIngestionRequests(c echo.Context) error {
	ac := c.(*contexts.ApiContext)
	return c.JSON(http.StatusOK, ac.IngestionService.GetRequests())
}
