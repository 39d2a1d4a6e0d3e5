// package formatter provides functions to export search results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// ResultsToCSV converts a SearchResponse to CSV format with columns: ID, Title, Artist, Platform, Duration, BPM, URL
func ResultsToCSV(response *models.SearchResponse) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Platform", "Duration", "BPM", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range response.Results {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Source.String(),
			strconv.Itoa(track.Duration),
			formatBPM(track.BPM),
			track.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultsToMarkdown converts a SearchResponse to Markdown format
func ResultsToMarkdown(response *models.SearchResponse) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Search: %s\n\n", response.Query))
	buf.WriteString(fmt.Sprintf("**Results**: %d\n\n", response.TotalResults))

	buf.WriteString("## Tracks\n\n")
	for i, track := range response.Results {
		duration := shared.FormatDuration(track.Duration)
		bpmPart := ""
		if track.BPM != nil {
			bpmPart = fmt.Sprintf(" @ %s BPM", formatBPM(track.BPM))
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s, %s]%s\n", i+1, track.Artist, track.Title, track.Source, duration, bpmPart))
	}

	return buf.Bytes(), nil
}

// ResultsToText converts a SearchResponse to plain text format
func ResultsToText(response *models.SearchResponse) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Query: %s\n", response.Query))
	buf.WriteString(fmt.Sprintf("Results: %d\n\n", response.TotalResults))

	for i, track := range response.Results {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s (%s)\n", i+1, track.Source, track.Artist, track.Title, track.ID))
	}

	return buf.Bytes(), nil
}

// ToResultsJSON generates an indented JSON representation of the response
func ToResultsJSON(response *models.SearchResponse) ([]byte, error) {
	return shared.MarshalJSON(response, true)
}

// WriteCSVExport writes search results to {base}.csv.
//
// Defaults to "results" as the base filename.
func WriteCSVExport(response *models.SearchResponse, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = "results"
	}

	csvData, err := ResultsToCSV(response)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	outFile := baseFilepath + ".csv"
	if err := os.WriteFile(outFile, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return outFile, nil
}

func formatBPM(bpm *float64) string {
	if bpm == nil {
		return ""
	}
	return strconv.FormatFloat(*bpm, 'f', -1, 64)
}
