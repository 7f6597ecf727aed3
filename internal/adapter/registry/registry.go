// Package registry downloads the static incident registries and exposes
// them as row sequences: GASPAR (natural disasters, a zipped CSV) and BASOL
// (polluted soils, a spreadsheet).
package registry

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

// GasparMember is the CSV file read from the GASPAR archive.
const GasparMember = "catnat_gaspar.csv"

// Sources are the download URLs of the registries.
type Sources struct {
	Gaspar string
	Basol  string
}

// Loader fetches registry files over HTTP.
type Loader struct {
	sources    Sources
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a Loader. Registry files are large, so timeout should be
// generous.
func NewLoader(sources Sources, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		sources:    sources,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Rows downloads dataset and returns its rows, header excluded.
func (l *Loader) Rows(ctx context.Context, dataset domain.RegistryDataset) (domain.Rows, error) {
	switch dataset.Name {
	case domain.GASPAR.Name:
		data, err := l.download(ctx, l.sources.Gaspar)
		if err != nil {
			return nil, err
		}
		return GasparRows(data)
	case domain.BASOL.Name:
		data, err := l.download(ctx, l.sources.Basol)
		if err != nil {
			return nil, err
		}
		return BasolRows(data)
	default:
		return nil, fmt.Errorf("unknown registry %q", dataset.Name)
	}
}

// Server errors and transport failures are retried with a doubling backoff.
const (
	downloadAttempts = 3
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 5 * time.Second
)

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		data, err := l.fetch(ctx, url)
		if err == nil || attempt == downloadAttempts || !retryable(err) {
			return data, err
		}
		l.logger.Warn("registry download failed, retrying", "url", url, "attempt", attempt, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func retryable(err error) bool {
	var svcErr *domain.ExternalServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ExternalServiceError{
			Endpoint:   url,
			StatusCode: resp.StatusCode,
			Reason:     resp.Status,
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	l.logger.Info("downloaded registry", "url", url, "bytes", len(data))
	return data, nil
}

// GasparRows reads the semicolon separated disaster list out of a GASPAR
// archive. The header row is skipped. The sequence can be ranged over more
// than once.
func GasparRows(archive []byte) (domain.Rows, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open gaspar archive: %w", err)
	}
	if _, err := fs.Stat(zr, GasparMember); err != nil {
		return nil, fmt.Errorf("open gaspar archive: %w", err)
	}
	return func(yield func([]string, error) bool) {
		member, err := zr.Open(GasparMember)
		if err != nil {
			yield(nil, fmt.Errorf("open %s: %w", GasparMember, err))
			return
		}
		defer member.Close()

		r := csv.NewReader(member)
		r.Comma = ';'
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		if _, err := r.Read(); err != nil {
			if !errors.Is(err, io.EOF) {
				yield(nil, fmt.Errorf("gaspar header: %w", err))
			}
			return
		}
		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("gaspar row: %w", err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}, nil
}

// BasolRows reads the active sheet of a BASOL workbook. The header row is
// skipped.
func BasolRows(workbook []byte) (domain.Rows, error) {
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		return nil, fmt.Errorf("open basol workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, &domain.MalformedDatasetError{Dataset: domain.BASOL.Name, Reason: "no active worksheet"}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("basol sheet %s: %w", sheet, err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return func(yield func([]string, error) bool) {
		for _, cells := range rows {
			if !yield(cells, nil) {
				return
			}
		}
	}, nil
}
