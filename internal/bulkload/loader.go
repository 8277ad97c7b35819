// Package bulkload implements the bulk ingestion pipeline described in
// SPEC_FULL.md §4.9: discover the upstream bulk catalog, conditionally
// download and decode it, transform each record, and upsert in batches.
// Grounded on original_source's bulk loader referenced from
// background/bulk_refresh.rs.
package bulkload

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"

	"github.com/tetrabit/cardcache/internal/card"
	"github.com/tetrabit/cardcache/internal/logging"
	"github.com/tetrabit/cardcache/internal/retry"
	"github.com/tetrabit/cardcache/internal/store"
	"github.com/tetrabit/cardcache/internal/upstream"
)

const (
	batchSize          = 500
	progressEvery      = 5000
	minSuccessfulCards = 1000
	maxLoggedFailures  = 10
	failureWarnRatio   = 0.10
)

// Upstream is the subset of upstream.Client the loader depends on.
type Upstream interface {
	BulkData(ctx context.Context) ([]upstream.BulkDataEntry, error)
	Download(ctx context.Context, downloadURI string) ([]byte, error)
}

// Loader runs the bulk ingestion pipeline against a Store, gated by a
// configurable staleness window.
type Loader struct {
	store        store.Store
	upstream     Upstream
	bulkDataType string
	cacheTTL     time.Duration
	retryPolicy  retry.Policy
	log          logr.Logger
}

// New builds a Loader. bulkDataType selects which entry of the upstream
// bulk catalog to use (default "default_cards"); cacheTTL is the staleness
// window ShouldLoad checks against.
func New(st store.Store, up Upstream, bulkDataType string, cacheTTL time.Duration, log logr.Logger) *Loader {
	return &Loader{
		store:        st,
		upstream:     up,
		bulkDataType: bulkDataType,
		cacheTTL:     cacheTTL,
		retryPolicy:  retry.Default(),
		log:          log.WithValues(logging.FieldComponent, "bulkload"),
	}
}

// ShouldLoad reports whether a fresh load is due: true on a cold store, or
// once the most recent import is older than the configured TTL.
func (l *Loader) ShouldLoad(ctx context.Context) (bool, error) {
	any, err := l.store.AnyCards(ctx)
	if err != nil {
		return false, err
	}
	if !any {
		return true, nil
	}
	last, err := l.store.LastImportTimestamp(ctx)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return time.Since(*last) >= l.cacheTTL, nil
}

// CheckUpstreamUpdated fetches the upstream bulk catalog and reports
// whether the selected entry's updated_at is strictly newer than our last
// import, or whether we have no prior import at all.
func (l *Loader) CheckUpstreamUpdated(ctx context.Context) (bool, error) {
	entry, err := l.selectBulkEntry(ctx)
	if err != nil {
		return false, err
	}
	last, err := l.store.LastImportTimestamp(ctx)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return entry.UpdatedAt.After(*last), nil
}

func (l *Loader) selectBulkEntry(ctx context.Context) (*upstream.BulkDataEntry, error) {
	entries, err := l.upstream.BulkData(ctx)
	if err != nil {
		return nil, fmt.Errorf("bulkload: fetch bulk catalog: %w", err)
	}
	var available []string
	for i := range entries {
		available = append(available, entries[i].Type)
		if entries[i].Type == l.bulkDataType {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("bulkload: no bulk entry of type %q found, available types: %v", l.bulkDataType, available)
}

// Result summarizes one completed Load.
type Result struct {
	Successful int
	Failed     int
	Total      int
	Source     string
}

// Load runs the full discover/download/decode/transform/upsert pipeline
// unconditionally.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	entry, err := l.selectBulkEntry(ctx)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = l.retryPolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		b, err := l.upstream.Download(ctx, entry.DownloadURI)
		if err != nil {
			l.log.V(1).Info("bulk download attempt failed", "attempt", attempt, logging.FieldCause, err.Error())
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulkload: download %s: %w", entry.DownloadURI, err)
	}

	records, decodeErr := decodeRecords(body)
	if decodeErr != nil {
		return nil, fmt.Errorf("bulkload: decode bulk payload: %w", decodeErr)
	}

	result, err := l.transformAndUpsert(ctx, records, entry.Type)
	if err != nil {
		return nil, err
	}

	if result.Successful < minSuccessfulCards {
		return nil, fmt.Errorf("bulkload: integrity guard tripped: only %d cards imported (minimum %d)", result.Successful, minSuccessfulCards)
	}
	if result.Total > 0 && float64(result.Failed)/float64(result.Total) > failureWarnRatio {
		l.log.Info("bulk load failure rate exceeded warning threshold",
			"failed", result.Failed, "total", result.Total)
	}

	if err := l.store.RecordImport(ctx, result.Successful, entry.Type); err != nil {
		return nil, fmt.Errorf("bulkload: record import: %w", err)
	}
	return result, nil
}

// ForceLoad is an unconditional Load, exposed for the admin reload endpoint.
func (l *Loader) ForceLoad(ctx context.Context) (*Result, error) {
	return l.Load(ctx)
}

// decodeRecords parses raw as a JSON array of card records, falling back to
// gzip decompression if the first attempt fails to parse (SPEC_FULL.md
// §4.9 step 3).
func decodeRecords(raw []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	firstErr := json.Unmarshal(raw, &records)
	if firstErr == nil {
		return records, nil
	}

	gz, gzErr := gzip.NewReader(bytes.NewReader(raw))
	if gzErr != nil {
		return nil, fmt.Errorf("plain decode failed (%v); gzip decode unavailable: %w", firstErr, gzErr)
	}
	defer gz.Close()
	decompressed, readErr := io.ReadAll(gz)
	if readErr != nil {
		return nil, fmt.Errorf("plain decode failed (%v); gzip read failed: %w", firstErr, readErr)
	}
	if err := json.Unmarshal(decompressed, &records); err != nil {
		return nil, fmt.Errorf("plain decode failed (%v); gzip decode also failed: %w", firstErr, err)
	}
	return records, nil
}

// transformAndUpsert projects each raw record into a Card, batches
// successful ones into upsert calls of batchSize, and tracks fail counts.
func (l *Loader) transformAndUpsert(ctx context.Context, records []json.RawMessage, source string) (*Result, error) {
	res := &Result{Total: len(records), Source: source}
	batch := make([]card.Card, 0, batchSize)
	loggedFailures := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.store.UpsertCards(ctx, batch); err != nil {
			return fmt.Errorf("bulkload: upsert batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, raw := range records {
		c, err := upstream.DecodeCard(raw)
		if err != nil {
			res.Failed++
			if loggedFailures < maxLoggedFailures {
				loggedFailures++
				l.log.V(1).Info("skipping undecodable bulk record", logging.FieldCause, err.Error())
			}
			continue
		}

		batch = append(batch, c)
		res.Successful++

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if res.Successful%progressEvery == 0 {
			l.log.Info("bulk load progress", "imported", res.Successful, "total", res.Total)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return res, nil
}
