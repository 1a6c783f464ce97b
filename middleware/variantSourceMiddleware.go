package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo"

	"variation-commons/api/contexts"
	errorDtos "variation-commons/api/models/dtos/errors"
)

/*
Echo middleware to ensure both `fileId` and `studyId` HTTP query parameters
were provided
*/
func MandateFileIdAndStudyIdAttributes(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ac := c.(*contexts.ApiContext)

		fileId := strings.TrimSpace(c.QueryParam("fileId"))
		if len(fileId) == 0 {
			return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest("Missing 'fileId' query parameter"))
		}

		studyId := strings.TrimSpace(c.QueryParam("studyId"))
		if len(studyId) == 0 {
			return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest("Missing 'studyId' query parameter"))
		}

		ac.FileId = fileId
		ac.StudyId = studyId
		return next(ac)
	}
}

/*
Echo middleware to ensure a comma-separated `manifests` HTTP query parameter
was provided
*/
func MandateManifestsAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ac := c.(*contexts.ApiContext)

		manifests := []string{}
		for _, m := range strings.Split(c.QueryParam("manifests"), ",") {
			if m = strings.TrimSpace(m); len(m) > 0 {
				manifests = append(manifests, m)
			}
		}
		if len(manifests) == 0 {
			return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest("Missing 'manifests' query parameter"))
		}

		ac.Manifests = manifests
		return next(ac)
	}
}
