package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// ActivitySnapshot is the reduction of a set of friend profiles into
// deduplicated id-sets plus provenance. It is rebuilt wholesale on every
// aggregation trigger, never patched incrementally.
type ActivitySnapshot struct {
	FavoriteMovies []string `json:"favorite_movies"`
	FavoritePeople []string `json:"favorite_people"`
	Watching       []string `json:"watching"`
	Watched        []string `json:"watched"`
	Plan           []string `json:"plan"`

	// LikedBy maps a movie id to the names of friends who favorited it,
	// for "liked by N friends" surfaces.
	LikedBy map[string][]string `json:"liked_by"`

	Contributors []UserSummary `json:"contributors"`
}

// BuildSnapshot unions the given friend profiles into an ActivitySnapshot.
// The reduction is a commutative set union: output does not depend on the
// order profiles are supplied in. Watch statuses outside the three known
// buckets are ignored. The snapshot is not filtered against the viewer's own
// favorites; that happens at rail-assembly time.
func BuildSnapshot(profiles []Profile) ActivitySnapshot {
	movieSet := map[string]struct{}{}
	personSet := map[string]struct{}{}
	buckets := map[WatchStatus]map[string]struct{}{
		WatchStatusWatching: {},
		WatchStatusWatched:  {},
		WatchStatusPlan:     {},
	}
	likedBy := map[string]map[string]struct{}{}

	contributors := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		contributors = append(contributors, p.User)

		name := p.User.Username
		if p.User.FullName != "" {
			name = p.User.FullName
		}

		for _, id := range p.FavoriteMovies {
			if id == "" {
				continue
			}
			movieSet[id] = struct{}{}
			if likedBy[id] == nil {
				likedBy[id] = map[string]struct{}{}
			}
			likedBy[id][name] = struct{}{}
		}
		for _, id := range p.FavoritePeople {
			if id != "" {
				personSet[id] = struct{}{}
			}
		}
		for id, status := range p.WatchStatuses {
			if id == "" {
				continue
			}
			if bucket, ok := buckets[status]; ok {
				bucket[id] = struct{}{}
			}
		}
	}

	sort.Slice(contributors, func(i, j int) bool { return contributors[i].ID < contributors[j].ID })

	snap := ActivitySnapshot{
		FavoriteMovies: sortedKeys(movieSet),
		FavoritePeople: sortedKeys(personSet),
		Watching:       sortedKeys(buckets[WatchStatusWatching]),
		Watched:        sortedKeys(buckets[WatchStatusWatched]),
		Plan:           sortedKeys(buckets[WatchStatusPlan]),
		LikedBy:        make(map[string][]string, len(likedBy)),
		Contributors:   contributors,
	}
	for id, names := range likedBy {
		snap.LikedBy[id] = sortedKeys(names)
	}
	return snap
}

// ContentKey returns a stable key for an id set: duplicates collapse and
// order is irrelevant, so unrelated reorderings do not produce a new key.
func ContentKey(ids []string) string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Strings(uniq)

	sum := sha1.Sum([]byte(strings.Join(uniq, ",")))
	return hex.EncodeToString(sum[:])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
