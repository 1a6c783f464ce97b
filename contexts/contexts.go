package contexts

import (
	"github.com/labstack/echo"

	"variation-commons/api/models"
	"variation-commons/api/services"
	"variation-commons/api/services/sources"
)

type (
	// ApiContext carries the configuration and service singletons into
	// every route.
	ApiContext struct {
		echo.Context
		Config           *models.Config
		IngestionService *services.IngestionService
		SourceService    *sources.SourceService

		// set by middleware
		FileId    string
		StudyId   string
		Manifests []string
	}
)
