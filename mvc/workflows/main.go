package workflows

import (
	"net/http"

	"github.com/labstack/echo"

	w "variation-commons/api/workflows"
)

func WorkflowsGet(c echo.Context) error {
	return c.JSON(http.StatusOK, w.WORKFLOW_VARIANT_SOURCE_SCHEMA)
}
