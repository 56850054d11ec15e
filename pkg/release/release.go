// Package release decides which platform "owns" each game: the one where the
// game's earliest known release happened. Games that shipped on several
// platforms get exactly one owner, so catalogue selection can prefer a
// platform's own launches over ports.
package release

import (
	"github.com/retroprint/labelforge/pkg/record"
)

// PlatformGames pairs one platform with the games collected for it.
type PlatformGames struct {
	PlatformID   int64
	PlatformName string
	Games        []record.Record
}

// Entry is what the ownership map knows about one game.
type Entry struct {
	EarliestDate string `json:"earliest_date,omitempty"`
	PlatformID   int64  `json:"platform_id"`
	PlatformName string `json:"platform_name"`
	GameName     string `json:"game_name"`
}

// Map assigns each game, keyed by record.Record.Key, to its owning
// platform. Built once per run, read-only afterwards.
type Map map[string]Entry

// EarliestDate returns a game's earliest known release date as a
// YYYY-MM-DD string, and false when the game carries no date at all.
// first_release_date wins when present; otherwise the lexicographic minimum
// over release_dates[].date is used (valid for ISO dates).
func EarliestDate(game record.Record) (string, bool) {
	if d := game.Str("first_release_date"); d != "" {
		return d, true
	}

	earliest := ""
	for _, rd := range game.Maps("release_dates") {
		d := rd.Str("date")
		if d == "" {
			continue
		}
		if earliest == "" || d < earliest {
			earliest = d
		}
	}
	return earliest, earliest != ""
}

// Build walks every platform's game list and keeps, per game id, the
// platform offering the earliest date. An existing entry is replaced only
// when the challenger has a date and the holder does not, when the
// challenger's date is strictly earlier, or when the dates are equal and the
// challenger's platform id is strictly lower. The id tie-break makes the
// result independent of input order. Games without a usable id cannot be
// tracked and are skipped.
func Build(platforms []PlatformGames) Map {
	m := make(Map)
	for _, pg := range platforms {
		for _, game := range pg.Games {
			gameKey, ok := game.Key()
			if !ok {
				continue
			}

			date, hasDate := EarliestDate(game)
			challenger := Entry{
				PlatformID:   pg.PlatformID,
				PlatformName: pg.PlatformName,
				GameName:     game.Name(),
			}
			if hasDate {
				challenger.EarliestDate = date
			}

			holder, exists := m[gameKey]
			if !exists || replaces(challenger, holder) {
				m[gameKey] = challenger
			}
		}
	}
	return m
}

// replaces reports whether the challenger entry beats the current holder.
func replaces(challenger, holder Entry) bool {
	switch {
	case challenger.EarliestDate != "" && holder.EarliestDate == "":
		return true
	case challenger.EarliestDate == "":
		return false
	case challenger.EarliestDate < holder.EarliestDate:
		return true
	case challenger.EarliestDate == holder.EarliestDate:
		return challenger.PlatformID < holder.PlatformID
	default:
		return false
	}
}

// IsFirstRelease reports whether the given platform owns the game. Untracked
// games answer true: a game the resolver never saw must not be silently
// demoted to duplicate.
func (m Map) IsFirstRelease(gameKey string, platformID int64) bool {
	entry, ok := m[gameKey]
	if !ok {
		return true
	}
	return entry.PlatformID == platformID
}
