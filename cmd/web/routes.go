package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/httputil"
	"github.com/AdamBeresnev/league-stages/internal/middleware"
	"github.com/AdamBeresnev/league-stages/internal/service"
	"github.com/AdamBeresnev/league-stages/internal/store"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/AdamBeresnev/league-stages/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type teamRequest struct {
	Name   *string `json:"name"`
	League *string `json:"league"`
}

type pouleRequest struct {
	Name   *string     `json:"name"`
	League string      `json:"league"`
	Teams  []uuid.UUID `json:"teams"`
}

type matchRequest struct {
	Date   *time.Time        `json:"date"`
	Scores map[uuid.UUID]int `json:"scores"`
}

type scoreRequest struct {
	Score *int `json:"score"`
}

type bracketRequest struct {
	League string `json:"league"`
	Amount int    `json:"amount"`
}

type assignRequest struct {
	ID   uuid.UUID `json:"id"`
	Slot int       `json:"slot"`
}

// uuidParam parses a route parameter, answering 400 itself when it is not a valid id.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func newRouter(database *sqlx.DB, allowedOrigins []string) http.Handler {
	teamStore := store.NewTeamStore()
	pouleStore := store.NewPouleStore()
	bracketStore := store.NewBracketStore()

	teamService := service.NewTeamService(database, teamStore, bracketStore)
	pouleService := service.NewPouleService(database, pouleStore, teamStore)
	bracketService := service.NewBracketService(database, bracketStore, teamStore)
	matchService := service.NewMatchService(database, bracketStore, teamStore)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.With(middleware.RequireLeague).Get("/leagues/{league}", func(w http.ResponseWriter, r *http.Request) {
		league, _ := middleware.GetLeagueFromContext(r.Context())

		poules, err := pouleService.ListPoules(r.Context(), league)
		if err != nil {
			httputil.InternalServerError(w, "Failed to get poules", err)
			return
		}

		var bracket *views.BracketData
		roots, err := bracketService.GetBracket(r.Context(), league)
		switch {
		case err == nil:
			data := views.PrepareBracketData(roots)
			bracket = &data
		case !errors.Is(err, tournament.ErrNoBracket):
			httputil.InternalServerError(w, "Failed to get bracket", err)
			return
		}

		views.Render(w, r, views.LeaguePage(league, poules, bracket))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				teams, err := teamService.ListTeams(r.Context(), r.URL.Query().Get("league"))
				if err != nil {
					httputil.Error(w, "Failed to get teams", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, teams)
			})

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var body teamRequest
				if err := httputil.ReadJSON(w, r, &body); err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}
				if body.Name == nil || body.League == nil {
					httputil.BadRequest(w, "name and league are required", nil)
					return
				}

				team, err := teamService.CreateTeam(r.Context(), *body.Name, *body.League)
				if err != nil {
					httputil.Error(w, "Failed to create team", err)
					return
				}
				httputil.WriteJSON(w, http.StatusCreated, team)
			})

			r.Get("/{teamID}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "teamID")
				if !ok {
					return
				}
				team, err := teamService.GetTeam(r.Context(), id)
				if err != nil {
					httputil.Error(w, "Failed to get team", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, team)
			})

			r.Patch("/{teamID}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "teamID")
				if !ok {
					return
				}
				var body teamRequest
				if err := httputil.ReadJSON(w, r, &body); err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}

				team, err := teamService.UpdateTeam(r.Context(), id, service.TeamUpdate{Name: body.Name, League: body.League})
				if err != nil {
					httputil.Error(w, "Failed to update team", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, team)
			})

			r.Delete("/{teamID}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "teamID")
				if !ok {
					return
				}
				if err := teamService.DeleteTeam(r.Context(), id); err != nil {
					httputil.Error(w, "Failed to delete team", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
		})

		r.Route("/poules", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				poules, err := pouleService.ListPoules(r.Context(), r.URL.Query().Get("league"))
				if err != nil {
					httputil.Error(w, "Failed to get poules", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, poules)
			})

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var body pouleRequest
				if err := httputil.ReadJSON(w, r, &body); err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}

				input := service.PouleInput{League: body.League, TeamIDs: body.Teams}
				if body.Name != nil {
					input.Name = *body.Name
				}
				poule, err := pouleService.CreatePoule(r.Context(), input)
				if err != nil {
					httputil.Error(w, "Failed to create poule", err)
					return
				}
				httputil.WriteJSON(w, http.StatusCreated, poule)
			})

			// Registered matches of a league, newest first
			r.With(middleware.RequireLeague).Get("/matches", func(w http.ResponseWriter, r *http.Request) {
				league, _ := middleware.GetLeagueFromContext(r.Context())

				count := 0
				if raw := r.URL.Query().Get("count"); raw != "" {
					n, err := strconv.Atoi(raw)
					if err != nil {
						httputil.BadRequest(w, "Invalid count", err)
						return
					}
					count = n
				}

				matches, err := pouleService.RecentMatches(r.Context(), league, count)
				if err != nil {
					httputil.Error(w, "Failed to get matches", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, matches)
			})

			r.Route("/{pouleID}", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					id, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					poule, err := pouleService.GetPoule(r.Context(), id)
					if err != nil {
						httputil.Error(w, "Failed to get poule", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, poule)
				})

				r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
					id, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					var body pouleRequest
					if err := httputil.ReadJSON(w, r, &body); err != nil {
						httputil.BadRequest(w, err.Error(), err)
						return
					}

					poule, err := pouleService.UpdatePoule(r.Context(), id, service.PouleUpdate{Name: body.Name, TeamIDs: body.Teams})
					if err != nil {
						httputil.Error(w, "Failed to update poule", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, poule)
				})

				r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					id, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					if err := pouleService.DeletePoule(r.Context(), id); err != nil {
						httputil.Error(w, "Failed to delete poule", err)
						return
					}
					w.WriteHeader(http.StatusNoContent)
				})

				r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
					id, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					matches, err := pouleService.ListPouleMatches(r.Context(), id)
					if err != nil {
						httputil.Error(w, "Failed to get poule matches", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, matches)
				})

				r.Get("/matches/{matchID}", func(w http.ResponseWriter, r *http.Request) {
					pouleID, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					match, err := pouleService.GetPouleMatch(r.Context(), pouleID, matchID)
					if err != nil {
						httputil.Error(w, "Failed to get poule match", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, match)
				})

				r.Patch("/matches/{matchID}", func(w http.ResponseWriter, r *http.Request) {
					pouleID, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					var body matchRequest
					if err := httputil.ReadJSON(w, r, &body); err != nil {
						httputil.BadRequest(w, err.Error(), err)
						return
					}

					match, err := pouleService.UpdatePouleMatch(r.Context(), pouleID, matchID, service.MatchResult{Date: body.Date, Scores: body.Scores})
					if err != nil {
						httputil.Error(w, "Failed to update poule match", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, match)
				})

				r.Patch("/matches/{matchID}/teams/{teamID}", func(w http.ResponseWriter, r *http.Request) {
					pouleID, ok := uuidParam(w, r, "pouleID")
					if !ok {
						return
					}
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					teamID, ok := uuidParam(w, r, "teamID")
					if !ok {
						return
					}
					var body scoreRequest
					if err := httputil.ReadJSON(w, r, &body); err != nil {
						httputil.BadRequest(w, err.Error(), err)
						return
					}

					match, err := pouleService.UpdatePouleMatchTeamScore(r.Context(), pouleID, matchID, teamID, body.Score)
					if err != nil {
						httputil.Error(w, "Failed to update score", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, match)
				})
			})
		})

		r.Route("/bracket", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var body bracketRequest
				if err := httputil.ReadJSON(w, r, &body); err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}

				if err := bracketService.CreateBracket(r.Context(), body.League, body.Amount); err != nil {
					httputil.Error(w, "Failed to create bracket", err)
					return
				}
				w.WriteHeader(http.StatusCreated)
			})

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					match, err := matchService.GetMatch(r.Context(), matchID)
					if err != nil {
						httputil.Error(w, "Failed to get bracket match", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, match)
				})

				r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					var body matchRequest
					if err := httputil.ReadJSON(w, r, &body); err != nil {
						httputil.BadRequest(w, err.Error(), err)
						return
					}

					match, err := matchService.UpdateMatch(r.Context(), matchID, service.MatchResult{Date: body.Date, Scores: body.Scores})
					if err != nil {
						httputil.Error(w, "Failed to update bracket match", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, match)
				})

				r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					var body assignRequest
					if err := httputil.ReadJSON(w, r, &body); err != nil {
						httputil.BadRequest(w, err.Error(), err)
						return
					}

					match, err := matchService.AssignTeam(r.Context(), matchID, body.ID, body.Slot)
					if err != nil {
						httputil.Error(w, "Failed to assign team", err)
						return
					}
					httputil.WriteJSON(w, http.StatusCreated, match)
				})

				r.Patch("/teams/{teamID}", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := uuidParam(w, r, "matchID")
					if !ok {
						return
					}
					teamID, ok := uuidParam(w, r, "teamID")
					if !ok {
						return
					}
					var body scoreRequest
					if err := httputil.ReadJSON(w, r, &body); err != nil {
						httputil.BadRequest(w, err.Error(), err)
						return
					}

					match, err := matchService.UpdateTeamScore(r.Context(), matchID, teamID, body.Score)
					if err != nil {
						httputil.Error(w, "Failed to update score", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, match)
				})
			})

			r.Route("/leagues/{league}", func(r chi.Router) {
				r.Use(middleware.RequireLeague)

				r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
					league, _ := middleware.GetLeagueFromContext(r.Context())

					roots, err := bracketService.GetBracket(r.Context(), league)
					if err != nil {
						httputil.Error(w, "Failed to get bracket", err)
						return
					}
					httputil.WriteJSON(w, http.StatusOK, roots)
				})

				r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					league, _ := middleware.GetLeagueFromContext(r.Context())

					if err := bracketService.DeleteBracket(r.Context(), league); err != nil {
						httputil.Error(w, "Failed to delete bracket", err)
						return
					}
					w.WriteHeader(http.StatusNoContent)
				})
			})
		})
	})

	return r
}
