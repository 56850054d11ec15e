// Package logo picks a single platform logo out of the regional platform
// versions IGDB returns. PAL consoles are what most collections here are
// built around, so European releases are preferred, then Japanese launch
// hardware, then whatever shipped first anywhere.
package logo

import (
	"sort"
	"strings"

	"github.com/retroprint/labelforge/pkg/record"
)

// noDateSentinel makes candidates without a release date sort after every
// real ISO date. Missing-date-sorts-last is a deliberate policy, not an
// accident of string comparison.
const noDateSentinel = "9999-12-31"

// Candidate is one (logo, release date, region) combination flattened out of
// a platform version.
type Candidate struct {
	Logo        record.Record
	Date        string
	Region      string
	VersionName string
}

// Flatten walks platform_info versions and produces dated candidates plus a
// fallback list for versions that carry a logo but no release dates.
func Flatten(platformInfo record.Record) (candidates, fallback []Candidate) {
	for _, version := range platformInfo.Maps("versions") {
		versionLogo := version.Map("platform_logo")
		if versionLogo == nil || versionLogo.Str("image_id") == "" {
			continue
		}

		releases := version.Maps("platform_version_release_dates")
		if len(releases) == 0 {
			fallback = append(fallback, Candidate{
				Logo:        versionLogo,
				Region:      "unknown",
				VersionName: versionName(version),
			})
			continue
		}

		for _, rel := range releases {
			candidates = append(candidates, Candidate{
				Logo:        versionLogo,
				Date:        rel.Str("date"),
				Region:      strings.ToLower(rel.Map("release_region").Str("region")),
				VersionName: versionName(version),
			})
		}
	}
	return candidates, fallback
}

// SelectBest applies the region/date preference policy: earliest Europe
// release, else earliest Japan release, else earliest release overall, else
// the first undated fallback. nil means no logo exists, which callers treat
// as "render without a logo", not as an error.
func SelectBest(candidates, fallback []Candidate) record.Record {
	for _, region := range []string{"europe", "japan"} {
		if best, ok := earliestIn(candidates, region); ok {
			return best.Logo
		}
	}
	if best, ok := earliestIn(candidates, ""); ok {
		return best.Logo
	}
	if len(fallback) > 0 {
		return fallback[0].Logo
	}
	return nil
}

// earliestIn returns the earliest-dated candidate in the given region tier.
// An empty region means "any region". Ties keep input order.
func earliestIn(candidates []Candidate, region string) (Candidate, bool) {
	var tier []Candidate
	for _, c := range candidates {
		if region == "" || c.Region == region {
			tier = append(tier, c)
		}
	}
	if len(tier) == 0 {
		return Candidate{}, false
	}
	sort.SliceStable(tier, func(i, j int) bool {
		return sortDate(tier[i].Date) < sortDate(tier[j].Date)
	})
	return tier[0], true
}

// SortVersionsChronologically orders platform versions by their earliest
// release date, undated versions last. Used by the catalogue renderer so a
// platform's hardware revisions read oldest-first.
func SortVersionsChronologically(versions []record.Record) []record.Record {
	sorted := make([]record.Record, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return earliestVersionDate(sorted[i]) < earliestVersionDate(sorted[j])
	})
	return sorted
}

func earliestVersionDate(version record.Record) string {
	earliest := noDateSentinel
	for _, rel := range version.Maps("platform_version_release_dates") {
		if d := sortDate(rel.Str("date")); d < earliest {
			earliest = d
		}
	}
	return earliest
}

func sortDate(d string) string {
	if d == "" {
		return noDateSentinel
	}
	return d
}

func versionName(version record.Record) string {
	if n := version.Name(); n != "" {
		return n
	}
	return "unknown"
}
