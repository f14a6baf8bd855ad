package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-globe/internal/globe"
)

// recordNamespace seeds the name-based ids given to records without one, so
// the same record keeps its id across polls.
var recordNamespace = uuid.MustParse("5f0c2b8e-3a51-4b8e-9a3e-6c73676c6f62")

// RecordsResult contains the result of a records fetch.
type RecordsResult struct {
	Records   []globe.PlotRecord
	FetchedAt time.Time
	Duration  time.Duration
	Error     error
}

// FetchRecords retrieves and parses a records document.
func (f *Fetcher) FetchRecords(ctx context.Context, source string) RecordsResult {
	start := time.Now()
	result := RecordsResult{FetchedAt: start}

	raw, err := f.Fetch(ctx, source)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	recs, err := ParseRecords(raw)
	if err != nil {
		result.Error = fmt.Errorf("parse records: %w", err)
		return result
	}
	result.Records = recs
	return result
}

// ParseRecords decodes a JSON array of plot records, or an object holding
// one under "records". Records with no id get a deterministic UUID derived
// from their content; unknown statuses become white.
func ParseRecords(data []byte) ([]globe.PlotRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptySource
	}

	var recs []globe.PlotRecord
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("decode records array: %w", err)
		}
	} else {
		var doc struct {
			Records []globe.PlotRecord `json:"records"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode records document: %w", err)
		}
		recs = doc.Records
	}
	if recs == nil {
		recs = []globe.PlotRecord{}
	}

	// Every id present in the input is reserved up front so a generated
	// "#n" suffix never lands on an id a later record carries.
	reserved := make(map[string]bool, len(recs))
	for i := range recs {
		rec := &recs[i]
		if rec.ID == "" {
			rec.ID = derivedID(*rec)
		}
		reserved[rec.ID] = true
	}

	used := make(map[string]bool, len(recs))
	next := make(map[string]int)
	for i := range recs {
		rec := &recs[i]
		if used[rec.ID] {
			base := rec.ID
			for {
				next[base]++
				id := base + "#" + strconv.Itoa(next[base])
				if !reserved[id] && !used[id] {
					rec.ID = id
					break
				}
			}
		}
		used[rec.ID] = true
		if !rec.Status.Valid() {
			rec.Status = globe.StatusWhite
		}
	}
	return recs, nil
}

func derivedID(rec globe.PlotRecord) string {
	key := strconv.FormatFloat(rec.Lat, 'f', 6, 64) + "," +
		strconv.FormatFloat(rec.Lng, 'f', 6, 64) + "," + rec.Label
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}
