package triage

import (
	"PanicButton/pkg/response"
	"net/http"
)

var (
	ErrEmptyTranscript      = response.NewError(http.StatusBadRequest, "transcript is required")
	ErrIncidentNotFound     = response.NewError(http.StatusNotFound, "incident not found")
	ErrAssessmentNotReady   = response.NewError(http.StatusConflict, "please wait for the analysis to complete before saving")
	ErrDestinationRequired  = response.NewError(http.StatusBadRequest, "emergency contact destination is required")
	ErrInvalidDestination   = response.NewError(http.StatusBadRequest, "destination must be a phone number or an email address")
	ErrClassificationFailed = response.NewError(http.StatusBadGateway, "classification failed")
	ErrDeliveryFailed       = response.NewError(http.StatusBadGateway, "message delivery failed")
	ErrInvalidAudioFile     = response.NewError(http.StatusBadRequest, "invalid audio file")
	ErrAudioTooLarge        = response.NewError(http.StatusRequestEntityTooLarge, "audio file too large")
	ErrArchiveNotFound      = response.NewError(http.StatusNotFound, "archive not found")
	ErrInvalidArchiveName   = response.NewError(http.StatusBadRequest, "invalid archive name")
	ErrSessionBusy          = response.NewError(http.StatusConflict, "a recording is already in progress")
	ErrSessionNotRecording  = response.NewError(http.StatusConflict, "no recording in progress")
	ErrInvalidLocation      = response.NewError(http.StatusBadRequest, "location coordinates are out of range")
)
