package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/league-stages/internal/httputil"
	"github.com/go-chi/chi/v5"
)

type ContextKey string

const LeagueKey ContextKey = "league"

// RequireLeague reads the league from the {league} route parameter, falling back to the league
// query parameter, and puts it in the request context. Requests without a league are rejected.
func RequireLeague(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		league := chi.URLParam(r, "league")
		if league == "" {
			league = r.URL.Query().Get("league")
		}
		league = strings.TrimSpace(league)
		if league == "" {
			httputil.BadRequest(w, "A league is required", nil)
			return
		}

		ctx := context.WithValue(r.Context(), LeagueKey, league)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetLeagueFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(LeagueKey)
	if val == nil {
		return "", false
	}

	league, ok := val.(string)
	return league, ok
}
