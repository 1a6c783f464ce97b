package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variation-commons/api/models"
	"variation-commons/api/models/dtos"
	"variation-commons/api/models/indexes"
	"variation-commons/api/models/ingest"
	"variation-commons/api/repositories/memory"
	"variation-commons/api/services"
	"variation-commons/api/services/sources"
	"variation-commons/api/services/writer"
)

const smallStudy = `[{
	"fileId": "1",
	"fileName": "CHICKEN_SNPS_LAYER",
	"studyId": "1",
	"studyName": "small",
	"studyType": "COLLECTION",
	"aggregation": "NONE",
	"samplesPosition": {"EUnothing": 1, "NA.dot": 2, "JP-dash": 3},
	"metadata": {"fileformat": "VCFv4.1", "header": "##fileformat=VCFv4.1"}
}]`

func newTestServer(t *testing.T) (*echo.Echo, *memory.VariantSourceCollection, string) {
	manifests := t.TempDir()

	cfg := &models.Config{}
	cfg.SemVer = "0.1.0"
	cfg.Store.Backend = models.StoreBackendMemory
	cfg.Api.ManifestPath = manifests
	cfg.Api.FileProcessingConcurrencyLevel = 2

	store := memory.NewVariantSourceCollection()
	iz := services.NewIngestionService(writer.NewVariantSourceWriter(store), cfg)
	t.Cleanup(iz.Stop)
	return newServer(cfg, iz, sources.NewSourceService(store)), store, manifests
}

func do(e *echo.Echo, method string, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServiceInfo(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/service-info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "0.1.0", info["version"])
	assert.Equal(t, models.StoreBackendMemory, info["storeBackend"])

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/workflows", "").Code)
}

func TestPostThenGetVariantSource(t *testing.T) {
	e, store, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/variant-sources", smallStudy)
	require.Equal(t, http.StatusCreated, rec.Code)

	var written dtos.WriteResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &written))
	assert.Equal(t, 1, written.Written)
	assert.Empty(t, written.Errors)

	require.Len(t, store.Documents(), 1)
	assert.Equal(t, map[string]int{"EUnothing": 1, "NA£dot": 2, "JP-dash": 3}, store.Documents()[0].Samples)

	rec = do(e, http.MethodGet, "/variant-sources/get/by/fileId?fileId=1&studyId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var found dtos.VariantSourceResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.NotNil(t, found.Result)
	assert.Equal(t, map[string]int{"EUnothing": 1, "NA.dot": 2, "JP-dash": 3}, found.Result.SamplesPosition)
	assert.False(t, found.Result.Date.IsZero())
}

func TestPostDuplicateIsConflict(t *testing.T) {
	e, store, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/variant-sources", smallStudy).Code)

	again := strings.Replace(smallStudy, "CHICKEN_SNPS_LAYER", "OTHER_NAME", 1)
	rec := do(e, http.MethodPost, "/variant-sources", again)
	require.Equal(t, http.StatusConflict, rec.Code)

	var written dtos.WriteResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &written))
	assert.Equal(t, 0, written.Written)
	assert.Equal(t, 1, written.Duplicates)
	require.Len(t, written.Errors, 1)
	require.NotNil(t, written.Errors[0].Index)
	assert.Equal(t, 0, *written.Errors[0].Index)
	assert.Equal(t, "1", written.Errors[0].FileId)

	require.Len(t, store.Documents(), 1)
	assert.Equal(t, "CHICKEN_SNPS_LAYER", store.Documents()[0].FileName)
}

func TestPostIsDoneInRequestsOnReturn(t *testing.T) {
	e, _, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/variant-sources", smallStudy).Code)

	rec := do(e, http.MethodGet, "/variant-sources/ingestion/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var requests []ingest.IngestRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &requests))
	require.Len(t, requests, 1)
	assert.Equal(t, ingest.Done, requests[0].State)
	assert.Equal(t, 1, requests[0].Written)
}

func TestPostOverConflictingIndex(t *testing.T) {
	e, store, _ := newTestServer(t)
	require.NoError(t, store.EnsureUniqueIndex(context.Background(), indexes.IndexSpec{
		Name: indexes.UNIQUE_FILE_INDEX_NAME,
		Keys: []indexes.IndexKey{{Field: indexes.FILENAME_FIELD, Order: 1}},
	}))

	rec := do(e, http.MethodPost, "/variant-sources", smallStudy)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var written dtos.WriteResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &written))
	assert.Equal(t, 1, written.NotAttempted)
	require.Len(t, written.Errors, 1)
	assert.Nil(t, written.Errors[0].Index)
	assert.Contains(t, written.Errors[0].Message, "conflict")
	assert.Empty(t, store.Documents())
}

func TestPostInvalidBatch(t *testing.T) {
	e, store, _ := newTestServer(t)

	missingStudy := strings.Replace(smallStudy, `"studyId": "1"`, `"studyId": ""`, 1)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/variant-sources", missingStudy).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/variant-sources", `{"not":"an array"}`).Code)
	assert.Empty(t, store.Documents())
}

func TestMissingQueryParameters(t *testing.T) {
	e, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/variant-sources/get/by/fileId?fileId=1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/variant-sources?studyId=1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/variant-sources/ingestion/run?manifests=,", "").Code)
}

func TestGetAndDeleteMissing(t *testing.T) {
	e, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/variant-sources/get/by/fileId?fileId=9&studyId=9", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/variant-sources?fileId=9&studyId=9", "").Code)
}

func TestDeleteAllowsRewrite(t *testing.T) {
	e, store, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/variant-sources", smallStudy).Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/variant-sources?fileId=1&studyId=1", "").Code)
	assert.Empty(t, store.Documents())
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/variant-sources", smallStudy).Code)
}

func TestIndexesAfterFirstWrite(t *testing.T) {
	e, _, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/variant-sources", smallStudy).Code)

	rec := do(e, http.MethodGet, "/variant-sources/indexes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response dtos.IndexesResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	names := []string{}
	for _, info := range response.Results {
		names = append(names, info.Name)
		if info.Name == indexes.UNIQUE_FILE_INDEX_NAME {
			assert.True(t, info.Unique)
			assert.True(t, info.Background)
		}
	}
	assert.ElementsMatch(t, []string{indexes.DEFAULT_ID_INDEX_NAME, indexes.UNIQUE_FILE_INDEX_NAME}, names)
}

func TestIngestionRun(t *testing.T) {
	e, store, manifests := newTestServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(manifests, "small.json"),
		[]byte(`{"variantSources":`+smallStudy+`}`), 0o644))

	rec := do(e, http.MethodGet, "/variant-sources/ingestion/run?manifests=small.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var queued []ingest.IngestResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queued))
	require.Len(t, queued, 1)
	assert.Equal(t, ingest.Queued, queued[0].State)

	require.Eventually(t, func() bool {
		rec := do(e, http.MethodGet, "/variant-sources/ingestion/requests", "")
		var requests []ingest.IngestRequest
		if err := json.Unmarshal(rec.Body.Bytes(), &requests); err != nil || len(requests) != 1 {
			return false
		}
		return requests[0].State == ingest.Done
	}, 5*time.Second, 10*time.Millisecond)

	assert.Len(t, store.Documents(), 1)
}
