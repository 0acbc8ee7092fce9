// Package grouping partitions catalog records into sibling groups: uploads
// that carry the same broadcast content under different video ids, such as a
// members-only stream and its public mirror.
package grouping

import (
	"log"
	"sort"
	"strings"
	"unicode"

	"livemarks/youtube"
)

// liveWindowTolerance is the maximum broadcast start delta between two
// uploads of the same live event. Mirrored streams start within a couple of
// seconds of each other; unrelated streams on the same day do not.
const liveWindowTolerance = 10.0

// Group is one sibling set. Records are ordered by publish time; the first
// record is the primary whose transcript and analysis the siblings reuse.
type Group struct {
	Records []youtube.VideoRecord
}

// Primary returns the record whose transcript is fetched and segmented on
// behalf of the whole group.
func (g Group) Primary() youtube.VideoRecord {
	return g.Records[0]
}

// VideoIDs returns the ids of all members in order.
func (g Group) VideoIDs() []string {
	ids := make([]string, len(g.Records))
	for i, rec := range g.Records {
		ids[i] = rec.VideoID
	}
	return ids
}

// Partition splits records into sibling groups. Records with a live window
// are matched by broadcast start proximity plus identical normalized titles;
// records without one fall back to calendar-day bucketing. Every input
// record lands in exactly one group, and groups come back in chronological
// order of their primary.
func Partition(records []youtube.VideoRecord) []Group {
	var live, plain []youtube.VideoRecord
	for _, rec := range records {
		if rec.Live != nil {
			live = append(live, rec)
		} else {
			plain = append(plain, rec)
		}
	}

	groups := groupByLiveWindow(live)
	groups = append(groups, groupByCalendarDay(plain)...)

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Primary().PublishedAt.Before(groups[j].Primary().PublishedAt)
	})
	return groups
}

// groupByLiveWindow matches records whose broadcasts started within
// liveWindowTolerance of each other and whose normalized titles are equal.
// Each record is compared against the seed of its group only; assignment is
// final within a single pass.
func groupByLiveWindow(records []youtube.VideoRecord) []Group {
	ordered := sortedByPublish(records)
	used := make([]bool, len(ordered))

	var groups []Group
	for i, seed := range ordered {
		if used[i] {
			continue
		}
		used[i] = true
		group := Group{Records: []youtube.VideoRecord{seed}}
		seedTitle := NormalizeTitle(seed.Title)

		for j := i + 1; j < len(ordered); j++ {
			if used[j] {
				continue
			}
			candidate := ordered[j]
			delta := candidate.Live.Start.Sub(seed.Live.Start).Seconds()
			if delta < 0 {
				delta = -delta
			}
			if delta >= liveWindowTolerance {
				continue
			}
			if NormalizeTitle(candidate.Title) != seedTitle {
				continue
			}
			used[j] = true
			group.Records = append(group.Records, candidate)
		}
		groups = append(groups, group)
	}
	return groups
}

// groupByCalendarDay buckets records by publish date (UTC) and merges records
// within a bucket whose normalized titles are equal or where one title is a
// prefix of the other. Prefix-only merges are logged: two genuinely distinct
// streams with nested titles on the same day would be over-merged here, and
// the log line is the operator's signal.
func groupByCalendarDay(records []youtube.VideoRecord) []Group {
	ordered := sortedByPublish(records)

	buckets := make(map[string][]youtube.VideoRecord)
	var dayOrder []string
	for _, rec := range ordered {
		day := rec.PublishedAt.UTC().Format("2006-01-02")
		if _, seen := buckets[day]; !seen {
			dayOrder = append(dayOrder, day)
		}
		buckets[day] = append(buckets[day], rec)
	}

	var groups []Group
	for _, day := range dayOrder {
		bucket := buckets[day]
		used := make([]bool, len(bucket))

		for i, seed := range bucket {
			if used[i] {
				continue
			}
			used[i] = true
			group := Group{Records: []youtube.VideoRecord{seed}}
			seedTitle := NormalizeTitle(seed.Title)

			for j := i + 1; j < len(bucket); j++ {
				if used[j] {
					continue
				}
				title := NormalizeTitle(bucket[j].Title)
				if !titlesMatch(seedTitle, title) {
					continue
				}
				if seedTitle != title {
					log.Printf("grouping: prefix match on %s: %q ~ %q (%s, %s)",
						day, seed.Title, bucket[j].Title, seed.VideoID, bucket[j].VideoID)
				}
				used[j] = true
				group.Records = append(group.Records, bucket[j])
			}
			groups = append(groups, group)
		}
	}
	return groups
}

// titlesMatch reports whether two normalized titles identify the same
// broadcast: equal, or one a prefix of the other.
func titlesMatch(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// NormalizeTitle lowercases the title, strips decorative symbols and emoji,
// and collapses runs of whitespace. Channel tooling tags mirrored uploads
// with pictographs, so symbol stripping is what makes the titles comparable.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.In(r, unicode.So, unicode.Sk, unicode.Cs, unicode.Co):
			// decorative symbol, dropped
		case r == 0xFE0F || r == 0x200D:
			// variation selector / zero-width joiner from emoji sequences
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

func sortedByPublish(records []youtube.VideoRecord) []youtube.VideoRecord {
	ordered := make([]youtube.VideoRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PublishedAt.Before(ordered[j].PublishedAt)
	})
	return ordered
}
