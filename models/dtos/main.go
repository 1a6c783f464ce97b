package dtos

import (
	"time"

	"variation-commons/api/models"
	"variation-commons/api/models/indexes"
)

type GeneralErrorResponseDto struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors"`
}

type GeneralError struct {
	Message string `json:"message"`
	FileId  string `json:"fileId,omitempty"`
	StudyId string `json:"studyId,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

type WriteResponseDTO struct {
	Status       int            `json:"status"`
	Message      string         `json:"message"`
	Written      int            `json:"written"`
	Duplicates   int            `json:"duplicates"`
	NotAttempted int            `json:"notAttempted"`
	Errors       []GeneralError `json:"errors,omitempty"`
}

type VariantSourceResponseDTO struct {
	Status  int                   `json:"status"`
	Message string                `json:"message"`
	Result  *models.VariantSource `json:"result,omitempty"`
}

type IndexesResponseDTO struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Results []indexes.IndexInfo `json:"results"`
}
