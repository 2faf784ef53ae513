// Package storage retrieves query result artifacts from S3.
//
// Athena writes the full result set of a query to
// <output-location>/<query-execution-id>.csv. Downloading that object avoids
// the row limit of a single GetQueryResults page.
package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/czabriskie/simple-glue-athena/pkg/models"
	"github.com/czabriskie/simple-glue-athena/pkg/services"
)

// DownloadAPI is the subset of the s3 download manager used by the
// result downloader.
type DownloadAPI interface {
	Download(ctx context.Context, w io.WriterAt, params *s3.GetObjectInput, optFns ...func(*manager.Downloader)) (int64, error)
}

// ResultDownloader fetches a query's result artifact from S3 and parses it
// into a ResultTable.
type ResultDownloader struct {
	api    DownloadAPI
	logger services.Logger
}

// NewResultDownloader creates a new result downloader.
func NewResultDownloader(api DownloadAPI, logger services.Logger) *ResultDownloader {
	return &ResultDownloader{api: api, logger: logger}
}

// NewS3Downloader builds a real download manager for the given region using
// the default AWS credential chain.
func NewS3Downloader(ctx context.Context, region string) (*manager.Downloader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return manager.NewDownloader(s3.NewFromConfig(cfg)), nil
}

// Download fetches the CSV artifact for handle under outputLocation and
// parses it. The first CSV record supplies column names; short records are
// right-padded with empty strings.
func (d *ResultDownloader) Download(ctx context.Context, outputLocation string, handle models.ExecutionHandle) (*models.ResultTable, error) {
	bucket, prefix, err := parseS3URI(outputLocation)
	if err != nil {
		return nil, err
	}
	key := path.Join(prefix, string(handle)+".csv")

	d.logger.Debug("downloading result artifact", "bucket", bucket, "key", key)

	buf := &writeAtBuffer{buf: &bytes.Buffer{}}
	n, err := d.api.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(dl *manager.Downloader) {
		// Parts must arrive in order for the append-only buffer.
		dl.Concurrency = 1
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("result artifact downloaded", "bucket", bucket, "key", key, "bytes", n)
	return parseResultCSV(buf.buf)
}

// parseResultCSV flattens a result CSV into a table the same way the API
// fetch path does.
func parseResultCSV(r io.Reader) (*models.ResultTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse result csv: %w", err)
	}
	if len(records) == 0 {
		return &models.ResultTable{}, nil
	}

	columns := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		for len(rec) < len(columns) {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}
	return &models.ResultTable{Columns: columns, Rows: rows}, nil
}

// parseS3URI splits s3://bucket/prefix into bucket and prefix.
func parseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in s3 URI: %q", uri)
	}
	return bucket, prefix, nil
}

// writeAtBuffer implements io.WriterAt over an append-only buffer. Offsets
// are ignored; only valid with sequential single-part downloads.
type writeAtBuffer struct {
	buf *bytes.Buffer
}

func (w *writeAtBuffer) WriteAt(p []byte, off int64) (int, error) {
	return w.buf.Write(p)
}
