package ui

import (
	"github.com/desertthunder/cratedig/internal/models"
)

// searchDoneMsg reports a finished multi-platform search.
type searchDoneMsg struct {
	response *models.SearchResponse
}

// downloadDoneMsg reports a finished download attempt.
type downloadDoneMsg struct {
	response *models.DownloadResponse
	err      error
}
