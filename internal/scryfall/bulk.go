package scryfall

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// bulkDownloadTimeout bounds the catalog download; past it the caller gets a
// hard failure with no partial-result semantics.
const bulkDownloadTimeout = 30 * time.Second

// FindBulkData returns the bulk data entry of the given type (e.g.
// "default_cards"), or an error if the catalog does not list it.
func (l *BulkDataList) FindBulkData(bulkType string) (*BulkData, error) {
	for i := range l.Data {
		if l.Data[i].Type == bulkType {
			return &l.Data[i], nil
		}
	}
	return nil, fmt.Errorf("%s bulk data not found", bulkType)
}

// DownloadBulkFile downloads a bulk data file into dataDir, reusing an
// existing download younger than maxAge. Returns the local file path.
func (c *Client) DownloadBulkFile(ctx context.Context, bulkInfo *BulkData, dataDir string, maxAge time.Duration) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	fileName := filepath.Base(bulkInfo.DownloadURI)
	filePath := filepath.Join(dataDir, fileName)

	if maxAge > 0 {
		if info, err := os.Stat(filePath); err == nil && time.Since(info.ModTime()) < maxAge {
			return filePath, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, bulkDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bulkInfo.DownloadURI, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download bulk file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(dataDir, "bulk-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	return filePath, nil
}

// StreamBulkCards streams every printing in a bulk catalog file through fn.
// The file is a single JSON array; cards are decoded one at a time so the
// whole catalog never lives in memory. Returning an error from fn aborts
// the scan.
func StreamBulkCards(ctx context.Context, filePath string, fn func(card *Card) error) (processed int, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open bulk file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(filePath, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return 0, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	dec := json.NewDecoder(reader)

	// Opening bracket of the card array.
	if _, err := dec.Token(); err != nil {
		return 0, fmt.Errorf("failed to read bulk file header: %w", err)
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		var card Card
		if err := dec.Decode(&card); err != nil {
			return processed, fmt.Errorf("failed to parse card %d: %w", processed+1, err)
		}
		processed++

		if err := fn(&card); err != nil {
			return processed, err
		}
	}

	// Closing bracket.
	if _, err := dec.Token(); err != nil {
		return processed, fmt.Errorf("failed to read bulk file trailer: %w", err)
	}

	return processed, nil
}
