package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/config"
)

const payloadContentType = "application/json"

// PayloadArchive stores raw marketplace responses under
// {prefix}/raw/{productionID}/q{quantity}/{unix_ms}.json.
type PayloadArchive struct {
	store  ObjectStorage
	prefix string
	clock  clock.Clock
}

// NewPayloadArchive wraps store. prefix may be empty.
func NewPayloadArchive(store ObjectStorage, prefix string, clk clock.Clock) *PayloadArchive {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &PayloadArchive{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		clock:  clk,
	}
}

// NewPayloadArchiveFromConfig builds an S3-backed archive, or returns nil when archiving is disabled.
func NewPayloadArchiveFromConfig(ctx context.Context, cfg *config.ArchiveConfig, clk clock.Clock) (*PayloadArchive, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	store, err := NewS3Storage(&S3Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return NewPayloadArchive(store, cfg.Prefix, clk), nil
}

// Key returns the object key for a payload fetched at at.
func (a *PayloadArchive) Key(productionID string, quantity int, at time.Time) string {
	key := fmt.Sprintf("raw/%s/q%d/%d.json", productionID, quantity, at.UnixMilli())
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

// Save uploads body and returns its URL.
func (a *PayloadArchive) Save(ctx context.Context, productionID string, quantity int, body []byte) (string, error) {
	key := a.Key(productionID, quantity, a.clock.Now())
	if err := a.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), payloadContentType); err != nil {
		return "", fmt.Errorf("failed to archive payload %s: %w", key, err)
	}
	return a.store.GetURL(key), nil
}
