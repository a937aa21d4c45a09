package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reelmates/internal/auth"
	"reelmates/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing    func(context.Context) error
	RedisPing func(context.Context) error

	Auth         *service.AuthService
	Friends      *service.FriendsService
	Users        *service.UsersService
	Profile      *service.ProfileService
	Lists        *service.ListsService
	Activity     *service.ActivityService
	Rails        *service.RailsService
	ImportToken  string
	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:       logger,
		isProd:       opts.IsProd,
		dbPing:       opts.DBPing,
		redisPing:    opts.RedisPing,
		authSvc:      opts.Auth,
		friendsSvc:   opts.Friends,
		usersSvc:     opts.Users,
		profileSvc:   opts.Profile,
		listsSvc:     opts.Lists,
		activitySvc:  opts.Activity,
		railsSvc:     opts.Rails,
		importToken:  opts.ImportToken,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		loginLimiter: newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.authSvc == nil {
		apiMux.HandleFunc("POST /v1/auth/register", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/login", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/logout", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/users/me", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
		apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
		apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))
		apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))

		if api.usersSvc != nil {
			apiMux.HandleFunc("GET /v1/users/search", api.requireAuth(api.handleUsersSearch))
		}
		if api.profileSvc != nil {
			apiMux.HandleFunc("GET /v1/users/{id}", api.requireAuth(api.handleUsersGet))
			apiMux.HandleFunc("PUT /v1/users/me/favorites/movies/{id}", api.requireAuth(api.handleFavoriteMovieAdd))
			apiMux.HandleFunc("DELETE /v1/users/me/favorites/movies/{id}", api.requireAuth(api.handleFavoriteMovieRemove))
			apiMux.HandleFunc("PUT /v1/users/me/favorites/people/{id}", api.requireAuth(api.handleFavoritePersonAdd))
			apiMux.HandleFunc("DELETE /v1/users/me/favorites/people/{id}", api.requireAuth(api.handleFavoritePersonRemove))
			apiMux.HandleFunc("PUT /v1/users/me/watch-status/{movieID}", api.requireAuth(api.handleWatchStatusSet))
			apiMux.HandleFunc("PUT /v1/users/me/ratings/{movieID}", api.requireAuth(api.handleRatingSet))
			apiMux.HandleFunc("PUT /v1/users/me/comments/{movieID}", api.requireAuth(api.handleCommentSet))
			apiMux.HandleFunc("POST /v1/admin/import/users", api.handleImportUsers)
		}
		if api.listsSvc != nil {
			apiMux.HandleFunc("GET /v1/users/me/lists", api.requireAuth(api.handleListsOverview))
			apiMux.HandleFunc("POST /v1/users/me/lists", api.requireAuth(api.handleListCreate))
			apiMux.HandleFunc("PUT /v1/users/me/lists/{listID}", api.requireAuth(api.handleListUpdate))
			apiMux.HandleFunc("DELETE /v1/users/me/lists/{listID}", api.requireAuth(api.handleListDelete))
			apiMux.HandleFunc("PUT /v1/users/me/lists/{listID}/items/{entityID}", api.requireAuth(api.handleListItemAdd))
			apiMux.HandleFunc("DELETE /v1/users/me/lists/{listID}/items/{entityID}", api.requireAuth(api.handleListItemRemove))
		}
		if api.friendsSvc != nil {
			apiMux.HandleFunc("GET /v1/friends", api.requireAuth(api.handleFriendsOverview))
			apiMux.HandleFunc("POST /v1/friends/requests", api.requireAuth(api.handleFriendsSendRequest))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/accept", api.requireAuth(api.handleFriendsAccept))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/refuse", api.requireAuth(api.handleFriendsRefuse))
			apiMux.HandleFunc("POST /v1/friends/requests/to/{userID}/cancel", api.requireAuth(api.handleFriendsCancel))
			apiMux.HandleFunc("DELETE /v1/friends/{userID}", api.requireAuth(api.handleFriendsUnfriend))
			apiMux.HandleFunc("GET /v1/users/{id}/relationship", api.requireAuth(api.handleUsersRelationship))
		}
		if api.activitySvc != nil {
			apiMux.HandleFunc("GET /v1/activity/snapshot", api.requireAuth(api.handleActivitySnapshot))
		}
		if api.railsSvc != nil {
			apiMux.HandleFunc("GET /v1/rails", api.optionalAuth(api.handleRails))
		}
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing    func(context.Context) error
	redisPing func(context.Context) error

	authSvc      *service.AuthService
	friendsSvc   *service.FriendsService
	usersSvc     *service.UsersService
	profileSvc   *service.ProfileService
	listsSvc     *service.ListsService
	activitySvc  *service.ActivityService
	railsSvc     *service.RailsService
	importToken  string
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if a.dbPing != nil {
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}
	if a.redisPing != nil {
		if err := a.redisPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("redis down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
