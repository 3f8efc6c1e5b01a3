package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"bakesales/internal/ingest"
	"bakesales/internal/sales"
)

// downloadConcurrency bounds parallel file downloads per batch.
const downloadConcurrency = 4

var exportNamePattern = regexp.MustCompile(`\d{8}`)

// File is one remote export file in the sales folder.
type File struct {
	ID   string
	Name string
}

// Client lists and downloads POS export files from a Google Drive folder
// shared with the service account.
type Client struct {
	svc    *drive.Service
	logger *slog.Logger
}

// NewClient builds a Drive client from service-account credentials JSON.
func NewClient(ctx context.Context, credentialsJSON []byte, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{
		svc:    svc,
		logger: logger.With(slog.String("component", "drive_client")),
	}, nil
}

// NewClientFromFile builds a Drive client from a credentials file on disk.
func NewClientFromFile(ctx context.Context, credentialsPath string, logger *slog.Logger) (*Client, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return NewClient(ctx, data, logger)
}

// ListExports lists the spreadsheet files in the folder whose names carry an
// 8-digit date run, ordered by name. Files without the date pattern are not
// daily exports and are skipped.
func (c *Client) ListExports(ctx context.Context, folderID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and "+
		"(mimeType='application/vnd.openxmlformats-officedocument.spreadsheetml.sheet' "+
		"or mimeType='application/vnd.ms-excel' or mimeType='text/csv') "+
		"and trashed=false", folderID)

	var files []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Context(ctx).
			Q(query).
			Fields("nextPageToken, files(id, name)").
			OrderBy("name").
			PageSize(1000)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files in folder: %w", err)
		}

		for _, f := range list.Files {
			if !exportNamePattern.MatchString(f.Name) {
				continue
			}
			files = append(files, File{ID: f.Id, Name: f.Name})
		}

		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	c.logger.Debug("listed export files",
		slog.String("folder_id", folderID),
		slog.Int("count", len(files)))
	return files, nil
}

// FilterByDateRange keeps the files whose filename date falls in the
// inclusive [start, end] range.
func FilterByDateRange(files []File, start, end time.Time) []File {
	var filtered []File
	for _, f := range files {
		date, ok := sales.DateFromFilename(f.Name)
		if !ok {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered
}

// Download fetches one file's content.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

// FetchRange lists the folder, narrows to the date range, and downloads the
// matching files concurrently. Source order follows the listing order so the
// batch stays deterministic.
func (c *Client) FetchRange(ctx context.Context, folderID string, start, end time.Time) ([]ingest.Source, error) {
	files, err := c.ListExports(ctx, folderID)
	if err != nil {
		return nil, err
	}
	files = FilterByDateRange(files, start, end)
	if len(files) == 0 {
		return nil, nil
	}

	sources := make([]ingest.Source, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			data, err := c.Download(gctx, f.ID)
			if err != nil {
				return err
			}
			sources[i] = ingest.Source{Name: f.Name, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("fetched export batch",
		slog.String("folder_id", folderID),
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Int("files", len(sources)))
	return sources, nil
}
