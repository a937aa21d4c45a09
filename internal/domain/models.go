package domain

import (
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type User struct {
	ID          string
	Email       string
	Username    string
	FullName    string
	Status      UserStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

type UserWithPassword struct {
	User
	PasswordHash string
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// WatchStatus buckets a movie/series on a user's profile. "none" is not
// stored; it is the client-side way to clear an entry.
type WatchStatus string

const (
	WatchStatusWatching WatchStatus = "watching"
	WatchStatusWatched  WatchStatus = "watched"
	WatchStatusPlan     WatchStatus = "plan"
	WatchStatusNone     WatchStatus = "none"
)

var watchStatusAliases = map[string]WatchStatus{
	"watching":      WatchStatusWatching,
	"watch":         WatchStatusWatching,
	"watched":       WatchStatusWatched,
	"completed":     WatchStatusWatched,
	"finished":      WatchStatusWatched,
	"plan":          WatchStatusPlan,
	"planned":       WatchStatusPlan,
	"plan_to_watch": WatchStatusPlan,
	"want":          WatchStatusPlan,
	"wishlist":      WatchStatusPlan,
	"none":          WatchStatusNone,
	"":              WatchStatusNone,
}

// NormalizeWatchStatus maps client-supplied status spellings onto the
// canonical buckets. The second return is false for unknown values.
func NormalizeWatchStatus(raw string) (WatchStatus, bool) {
	st, ok := watchStatusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return st, ok
}

// MovieComment is a user's free-text note on a title. An empty text never
// persists; clearing removes the entry.
type MovieComment struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RatingMin = 1
	RatingMax = 5

	CommentMaxLen = 2000
)

// ListType says what a custom list holds.
type ListType string

const (
	ListTypeMovies ListType = "movies"
	ListTypePeople ListType = "people"
)

// NormalizeListType maps a client-supplied type onto the known kinds; blank
// and unknown values fall back to movies, matching how legacy list documents
// were repaired on read.
func NormalizeListType(raw string) ListType {
	if ListType(strings.ToLower(strings.TrimSpace(raw))) == ListTypePeople {
		return ListTypePeople
	}
	return ListTypeMovies
}

type ListItem struct {
	EntityID string    `json:"entity_id"`
	AddedAt  time.Time `json:"added_at"`
}

// CustomList is a user-curated collection of movies or people.
type CustomList struct {
	ID          string     `json:"list_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        ListType   `json:"type"`
	IsPublic    bool       `json:"is_public"`
	Items       []ListItem `json:"items"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LegacyComment keeps the exported comment shape; the timestamp stays a raw
// string because legacy documents carry several formats.
type LegacyComment struct {
	Text      string `json:"text"`
	UpdatedAt string `json:"updated_at"`
}

// LegacyUserRecord is a user document exported from the previous system.
// Friend entries may be bare ids or embedded objects, see FriendRef.
type LegacyUserRecord struct {
	LegacyID       string                   `json:"_id"`
	Username       string                   `json:"username"`
	FullName       string                   `json:"name"`
	Email          string                   `json:"email"`
	Friends        []FriendRef              `json:"friends"`
	FavoriteMovies []string                 `json:"favorites_movies"`
	FavoritePeople []string                 `json:"favorites_people"`
	WatchStatuses  map[string]string        `json:"watch_statuses"`
	MovieRatings   map[string]float64       `json:"movie_ratings"`
	MovieComments  map[string]LegacyComment `json:"movie_comments"`
}

// Profile is the snapshot of a user that the activity aggregator and the
// profile endpoints work with: identity plus friend list, favorites,
// watch statuses, ratings and comments.
type Profile struct {
	User           UserSummary             `json:"user"`
	Friends        []UserSummary           `json:"friends"`
	FavoriteMovies []string                `json:"favorites_movies"`
	FavoritePeople []string                `json:"favorites_people"`
	WatchStatuses  map[string]WatchStatus  `json:"watch_statuses"`
	Ratings        map[string]int          `json:"movie_ratings"`
	Comments       map[string]MovieComment `json:"movie_comments"`
}
