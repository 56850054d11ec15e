// Package collect implements offset-based page collection against a counted
// record source, plus id-based deduplication of the concatenated result.
package collect

import (
	"fmt"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/record"
)

// PageFunc fetches one page of records. offset is the absolute position of
// the first record wanted, limit how many records this page should carry.
type PageFunc func(offset, limit int) ([]record.Record, error)

// Collect gathers up to totalCount records from fetch, pageLimit records at
// a time. It returns the concatenated records and the number of pages
// fetched. A page returning fewer records than requested means the source is
// exhausted; collection stops there with a warning, not an error. A fetch
// error aborts the whole collection immediately.
func Collect(totalCount, pageLimit int, fetch PageFunc) ([]record.Record, int, error) {
	if pageLimit <= 0 {
		return nil, 0, fmt.Errorf("collect: page limit must be positive, got %d", pageLimit)
	}
	if totalCount <= 0 {
		return nil, 0, nil
	}

	if totalCount <= pageLimit {
		page, err := fetch(0, totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("collect: page at offset 0: %w", err)
		}
		return page, 1, nil
	}

	var all []record.Record
	pages := 0
	offset := 0
	for offset < totalCount {
		limit := pageLimit
		if remaining := totalCount - offset; remaining < limit {
			limit = remaining
		}

		page, err := fetch(offset, limit)
		if err != nil {
			return nil, pages, fmt.Errorf("collect: page at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		pages++
		offset += limit

		if len(page) < limit {
			utils.Log.Warnf("collect: short page at offset %d (%d of %d records), source exhausted", offset-limit, len(page), limit)
			break
		}
	}

	return all, pages, nil
}

// Dedupe removes records whose id was already seen, keeping first-seen
// order. Records without a usable id are always kept: a missing id is not a
// collision. The second return value is the number of duplicates dropped.
func Dedupe(records []record.Record) ([]record.Record, int) {
	if len(records) == 0 {
		return records, 0
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		key, ok := rec.Key()
		if !ok {
			out = append(out, rec)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	return out, len(records) - len(out)
}
