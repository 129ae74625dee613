// Package publish uploads the gallery artifact to Cloud Storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
	"github.com/klauspost/compress/gzip"
	"google.golang.org/api/option"

	"portfolio-be/config"
	"portfolio-be/gallery"
)

const contentType = "application/json"

type openFunc func(ctx context.Context) io.WriteCloser

// Bucket publishes the dataset as a single object.
type Bucket struct {
	client   *storage.Client
	bucket   string
	object   string
	gzip     bool
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
	open     openFunc
}

// New connects to Cloud Storage using the configured credentials file, or the
// ambient credentials when none is set.
func New(ctx context.Context, conf config.OutputConfig, logger *slog.Logger) (*Bucket, error) {
	if conf.Bucket == "" {
		return nil, errors.New("output.bucket is not set")
	}

	var opts []option.ClientOption
	if conf.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	b := newBucket(conf, logger)
	b.client = client
	b.open = func(ctx context.Context) io.WriteCloser {
		w := client.Bucket(b.bucket).Object(b.object).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "public, max-age=300"
		if b.gzip {
			w.ContentEncoding = "gzip"
		}
		return w
	}
	return b, nil
}

func newBucket(conf config.OutputConfig, logger *slog.Logger) *Bucket {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := conf.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Bucket{
		bucket:   conf.Bucket,
		object:   conf.Object,
		gzip:     conf.Gzip,
		attempts: uint(attempts),
		delay:    time.Second,
		logger:   logger,
	}
}

func (b *Bucket) Name() string {
	return "gs://" + b.bucket + "/" + b.object
}

// Publish uploads the encoded dataset, retrying transient failures.
func (b *Bucket) Publish(ctx context.Context, d gallery.Dataset) error {
	data, err := Encode(d, b.gzip)
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			w := b.open(ctx)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					b.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(b.attempts),
		retry.Delay(b.delay),
		retry.MaxDelay(time.Minute),
		retry.MaxJitter(b.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			b.logger.Info("Retrying upload after error", "attempt", n, "object", b.Name(), "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("upload after retries: %w", err)
	}

	b.logger.Info("Gallery uploaded", "object", b.Name(), "bytes", len(data), "gzip", b.gzip)
	return nil
}

// Close releases the storage client.
func (b *Bucket) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Encode marshals the dataset, gzip-compressed when compress is set.
func Encode(d gallery.Dataset, compress bool) ([]byte, error) {
	raw, err := gallery.Marshal(d)
	if err != nil {
		return nil, err
	}
	if !compress {
		return raw, nil
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress gallery: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress gallery: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte, compressed bool) (gallery.Dataset, error) {
	if compressed {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("decompress gallery: %w", err)
		}
	}
	return gallery.Unmarshal(data)
}
