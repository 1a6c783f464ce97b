package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo"
	"github.com/labstack/gommon/log"

	"variation-commons/api/contexts"
	"variation-commons/api/models"
	"variation-commons/api/models/dtos"
	errorDtos "variation-commons/api/models/dtos/errors"
	"variation-commons/api/repositories"
	"variation-commons/api/services/writer"
)

// VariantSourcesPost writes a JSON array of variant sources.
func VariantSourcesPost(c echo.Context) error {
	ac := c.(*contexts.ApiContext)

	var batch []*models.VariantSource
	if err := json.NewDecoder(c.Request().Body).Decode(&batch); err != nil {
		return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest(
			fmt.Sprintf("Request body must be a JSON array of variant sources: %v", err)))
	}

	summary, err := ac.IngestionService.IngestSources(c.Request().Context(), batch)

	status := writeStatus(err)
	response := dtos.WriteResponseDTO{
		Status:       status,
		Message:      http.StatusText(status),
		Written:      summary.Written,
		Duplicates:   summary.Duplicates,
		NotAttempted: summary.NotAttempted,
		Errors:       generalErrors(err),
	}
	if status >= http.StatusInternalServerError {
		log.Errorf("[variant-sources] write failed: %v", err)
	}
	return c.JSON(status, response)
}

func VariantSourcesGetByFileId(c echo.Context) error {
	ac := c.(*contexts.ApiContext)

	vs, err := ac.SourceService.GetVariantSource(c.Request().Context(), ac.FileId, ac.StudyId)
	if err != nil {
		return readError(c, err, fmt.Sprintf("No variant source for fileId %s and studyId %s", ac.FileId, ac.StudyId))
	}

	return c.JSON(http.StatusOK, dtos.VariantSourceResponseDTO{
		Status:  http.StatusOK,
		Message: "Success",
		Result:  vs,
	})
}

func VariantSourcesDelete(c echo.Context) error {
	ac := c.(*contexts.ApiContext)

	deleted, err := ac.SourceService.DeleteVariantSource(c.Request().Context(), ac.FileId, ac.StudyId)
	if err != nil {
		return readError(c, err, "")
	}
	if deleted == 0 {
		return c.JSON(http.StatusNotFound, errorDtos.CreateSimpleNotFound(
			fmt.Sprintf("No variant source for fileId %s and studyId %s", ac.FileId, ac.StudyId)))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Success",
		"deleted": deleted,
	})
}

func VariantSourcesGetIndexes(c echo.Context) error {
	ac := c.(*contexts.ApiContext)

	infos, err := ac.SourceService.ListIndexes(c.Request().Context())
	if err != nil {
		return readError(c, err, "")
	}

	return c.JSON(http.StatusOK, dtos.IndexesResponseDTO{
		Status:  http.StatusOK,
		Message: "Success",
		Results: infos,
	})
}

// writeStatus picks the response code for a Write outcome. Validation and
// store failures outrank duplicates, which only affect their own records.
// An index conflict needs an operator, so it is not reported as retryable.
func writeStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, writer.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, writer.ErrIndexConflict):
		return http.StatusInternalServerError
	case errors.Is(err, writer.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, writer.ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func generalErrors(err error) []dtos.GeneralError {
	if err == nil {
		return nil
	}

	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	out := make([]dtos.GeneralError, 0, len(errs))
	for _, e := range errs {
		ge := dtos.GeneralError{Message: e.Error()}

		var ref *writer.RecordRef
		var validationErr *writer.ValidationError
		var duplicateErr *writer.DuplicateKeyError
		var unavailableErr *writer.StoreUnavailableError
		switch {
		case errors.As(e, &validationErr):
			ref = &validationErr.RecordRef
		case errors.As(e, &duplicateErr):
			ref = &duplicateErr.RecordRef
		case errors.As(e, &unavailableErr):
			ref = &unavailableErr.RecordRef
		}
		if ref != nil && ref.Index >= 0 {
			index := ref.Index
			ge.Index = &index
			ge.FileId = ref.FileId
			ge.StudyId = ref.StudyId
		}
		out = append(out, ge)
	}
	return out
}

func readError(c echo.Context, err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorDtos.CreateSimpleNotFound(notFoundMessage))
	case errors.Is(err, repositories.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorDtos.CreateSimpleServiceUnavailable(err.Error()))
	default:
		log.Errorf("[variant-sources] %v", err)
		return c.JSON(http.StatusInternalServerError, errorDtos.CreateSimpleInternalServerError(err.Error()))
	}
}
