package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/opendota-tools/internal/opendota"
	"github.com/radieske/opendota-tools/internal/wards"
)

// Source é a parte da OpenDota que a API consulta
type Source interface {
	GetMatch(ctx context.Context, matchID int64) (*opendota.Match, error)
	GetTeams(ctx context.Context) ([]json.RawMessage, error)
	GetTeam(ctx context.Context, teamID int64) (json.RawMessage, error)
	GetTeamMatches(ctx context.Context, teamID int64, limit int) ([]json.RawMessage, error)
}

// limites de /api/teams/{id}/matches
const (
	defaultTeamMatches = 30
	maxTeamMatches     = 100
)

// API expõe times, extração de wards e replay_url via REST para o front do heatmap
type API struct {
	Log      *zap.Logger
	OpenDota Source
	Requests *prometheus.CounterVec // labels: route, code; opcional
}

// NewRequestCounter cria o contador usado por API.Requests
func NewRequestCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ward_service_requests_total", Help: "requisições por rota e status"},
		[]string{"route", "code"},
	)
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.count)
	r.Use(withCORS)

	r.Get("/api/teams", a.listTeams)                    // lista de times
	r.Get("/api/teams/{id}", a.getTeam)                 // detalhes do time
	r.Get("/api/teams/{id}/matches", a.listTeamMatches) // ?limit=N, 1..100, default 30
	r.Get("/api/heatmap", a.getHeatmap)                 // ?match_id=N
	r.Get("/api/matches/{id}/wards", a.getWards)        // lista de WardRecord
	r.Get("/api/matches/{id}/replay", a.getReplay)      // replay_url da partida
	return r
}

type replayResponse struct {
	MatchID   int64  `json:"match_id"`
	ReplayURL string `json:"replay_url"`
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *API) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := a.OpenDota.GetTeams(r.Context())
	if err != nil {
		a.upstreamError(w, err, zap.String("resource", "teams"))
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (a *API) getTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "invalid team id")
	if !ok {
		return
	}
	team, err := a.OpenDota.GetTeam(r.Context(), id)
	if err != nil {
		a.upstreamError(w, err, zap.Int64("team_id", id))
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// listTeamMatches devolve as últimas partidas do time; limit fora de 1..100 cai no default
func (a *API) listTeamMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "invalid team id")
	if !ok {
		return
	}
	limit := defaultTeamMatches
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= maxTeamMatches {
		limit = n
	}

	matches, err := a.OpenDota.GetTeamMatches(r.Context(), id, limit)
	if err != nil {
		a.upstreamError(w, err, zap.Int64("team_id", id))
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// getHeatmap retorna duração e wards da partida informada em match_id
func (a *API) getHeatmap(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("match_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing match_id")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match_id")
		return
	}

	m, ok := a.fetch(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wards.Heatmap(id, m))
}

// getWards retorna só a lista de wards, no mesmo formato do ward-extractor
func (a *API) getWards(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "invalid match id")
	if !ok {
		return
	}
	m, ok := a.fetch(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wards.Extract(id, m))
}

// getReplay retorna replay_url; 404 quando a OpenDota não tem o replay
func (a *API) getReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "invalid match id")
	if !ok {
		return
	}
	m, ok := a.fetch(w, r, id)
	if !ok {
		return
	}
	u, ok := m.Replay()
	if !ok {
		writeError(w, http.StatusNotFound, "no replay url")
		return
	}
	writeJSON(w, http.StatusOK, replayResponse{MatchID: id, ReplayURL: u})
}

func idParam(w http.ResponseWriter, r *http.Request, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, msg)
		return 0, false
	}
	return id, true
}

// fetch busca a partida e já responde o erro quando falha
func (a *API) fetch(w http.ResponseWriter, r *http.Request, id int64) (*opendota.Match, bool) {
	m, err := a.OpenDota.GetMatch(r.Context(), id)
	if err != nil {
		a.upstreamError(w, err, zap.Int64("match_id", id))
		return nil, false
	}
	return m, true
}

// upstreamError repassa 404 da OpenDota; o resto vira 502 com mensagem fixa.
// URL e corpo da resposta upstream ficam só no log.
func (a *API) upstreamError(w http.ResponseWriter, err error, fields ...zap.Field) {
	a.Log.Warn("opendota request failed", append(fields, zap.Error(err))...)
	var apiErr *opendota.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusBadGateway, "upstream unavailable")
}

// count registra rota (padrão chi) e status de cada requisição
func (a *API) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if a.Requests == nil {
			return
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
