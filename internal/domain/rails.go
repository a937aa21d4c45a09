package domain

import "fmt"

// Rail categories understood by the catalog recommendations endpoint.
const (
	RailNew               = "new"
	RailPopular           = "popular"
	RailTopRanked         = "top-ranked"
	RailCriticFavorites   = "critic-favorites"
	RailActorFavorite     = "actor-favorite"
	RailAwardsWins        = "awards-wins"
	RailAwardsNominations = "awards-nominations"
	RailLikedByFriends    = "liked-by-friends"
)

func RailTopOfYear(year int) string        { return fmt.Sprintf("top-%d", year) }
func RailTopOfYearPopular(year int) string { return fmt.Sprintf("top-%d-popular", year) }

// DefaultRailCategories is the rail order shown on the home page.
func DefaultRailCategories(year int) []string {
	return []string{
		RailNew,
		RailTopOfYear(year),
		RailTopOfYearPopular(year),
		RailPopular,
		RailTopRanked,
		RailCriticFavorites,
		RailActorFavorite,
		RailAwardsWins,
		RailAwardsNominations,
		RailLikedByFriends,
	}
}

// RailRequiresViewer reports whether a category is personalised and needs a
// signed-in viewer. Without one it renders a locked state, distinguishable
// from "no data yet".
func RailRequiresViewer(category string) bool {
	return category == RailActorFavorite || category == RailLikedByFriends
}

type RailItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"`
	Type    string   `json:"type,omitempty"`
	Poster  string   `json:"poster,omitempty"`
	Rating  float64  `json:"rating,omitempty"`
	LikedBy []string `json:"liked_by,omitempty"`
}

type Rail struct {
	Category       string     `json:"category"`
	Items          []RailItem `json:"items"`
	SignInRequired bool       `json:"sign_in_required,omitempty"`
	Message        string     `json:"message,omitempty"`
}
