package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDownloadAPI implements DownloadAPI
type mockDownloadAPI func(ctx context.Context, w io.WriterAt, params *s3.GetObjectInput, optFns ...func(*manager.Downloader)) (int64, error)

func (m mockDownloadAPI) Download(ctx context.Context, w io.WriterAt, params *s3.GetObjectInput, optFns ...func(*manager.Downloader)) (int64, error) {
	return m(ctx, w, params, optFns...)
}

// noopLogger implements services.Logger
type noopLogger struct{}

func (noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

func TestDownload(t *testing.T) {
	body := "fl_date,flight_count\n2024-01-01,120\n2024-01-02,98\n"
	var captured *s3.GetObjectInput
	api := mockDownloadAPI(func(ctx context.Context, w io.WriterAt, params *s3.GetObjectInput, optFns ...func(*manager.Downloader)) (int64, error) {
		captured = params
		n, err := w.WriteAt([]byte(body), 0)
		return int64(n), err
	})

	d := NewResultDownloader(api, noopLogger{})
	table, err := d.Download(context.Background(), "s3://is3600-cam/query_results/", "qid-1")
	require.NoError(t, err)

	assert.Equal(t, "is3600-cam", aws.ToString(captured.Bucket))
	assert.Equal(t, "query_results/qid-1.csv", aws.ToString(captured.Key))
	assert.Equal(t, []string{"fl_date", "flight_count"}, table.Columns)
	assert.Equal(t, [][]string{{"2024-01-01", "120"}, {"2024-01-02", "98"}}, table.Rows)
}

func TestDownload_Error(t *testing.T) {
	sentinel := fmt.Errorf("access denied")
	api := mockDownloadAPI(func(ctx context.Context, w io.WriterAt, params *s3.GetObjectInput, optFns ...func(*manager.Downloader)) (int64, error) {
		return 0, sentinel
	})

	d := NewResultDownloader(api, noopLogger{})
	_, err := d.Download(context.Background(), "s3://bucket/prefix/", "qid-1")
	assert.Same(t, sentinel, err)
}

func TestDownload_BadURI(t *testing.T) {
	d := NewResultDownloader(nil, noopLogger{})
	_, err := d.Download(context.Background(), "https://bucket/prefix", "qid-1")
	assert.Error(t, err)
}

func TestParseResultCSV(t *testing.T) {
	table, err := parseResultCSV(strings.NewReader("a,b\n\"1,5\",x\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.Equal(t, [][]string{{"1,5", "x"}}, table.Rows)
}

func TestParseResultCSV_ShortRowsPadded(t *testing.T) {
	table, err := parseResultCSV(strings.NewReader("a,b,c\nval1,val2\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"val1", "val2", ""}}, table.Rows)
}

func TestParseResultCSV_Empty(t *testing.T) {
	table, err := parseResultCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{"s3://bucket/query_results/", "bucket", "query_results/", false},
		{"s3://bucket", "bucket", "", false},
		{"s3://", "", "", true},
		{"gs://bucket/prefix", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := parseS3URI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}
