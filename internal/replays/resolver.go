package replays

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNoSelection    = errors.New("either --match-id or --pro-matches is required")
	ErrBothSelections = errors.New("--match-id and --pro-matches are mutually exclusive")
)

// Lookup é o subconjunto da API OpenDota usado na resolução
type Lookup interface {
	GetProMatchIDs(ctx context.Context, limit int) ([]int64, error)
	GetReplayURL(ctx context.Context, matchID int64) (string, bool, error)
}

// Selection escolhe de onde vêm os match_id: um id explícito ou as N últimas partidas pro
type Selection struct {
	MatchID    int64
	ProMatches int
}

// Validate exige exatamente um seletor; ProMatches <= 0 conta como ausente
func (s Selection) Validate() error {
	switch {
	case s.MatchID != 0 && s.ProMatches > 0:
		return ErrBothSelections
	case s.MatchID == 0 && s.ProMatches <= 0:
		return ErrNoSelection
	}
	return nil
}

// Ref associa uma partida à URL do seu replay
type Ref struct {
	MatchID int64
	URL     string
}

// SleepFunc aguarda d ou até o contexto ser cancelado
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep é a SleepFunc padrão
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Resolver busca replay_url partida a partida, com pausa fixa antes de cada chamada.
// Falha em um item é logada e não interrompe o lote.
type Resolver struct {
	API   Lookup
	Log   *zap.Logger
	Out   io.Writer     // stdout: uma URL por linha
	Delay time.Duration // pausa antes de cada chamada
	Sleep SleepFunc

	// WithIDs imprime "match_id\turl" em vez de só a URL (modo download)
	WithIDs bool

	OnResolved func(Ref)    // métricas/sinks
	OnMissing  func(int64)  // métricas
	OnError    func(string) // métricas por fase
}

// MatchIDs monta a lista de partidas. Erro na busca de proMatches é fatal para o chamador.
func (r *Resolver) MatchIDs(ctx context.Context, sel Selection) ([]int64, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.MatchID != 0 {
		return []int64{sel.MatchID}, nil
	}

	ids, err := r.API.GetProMatchIDs(ctx, sel.ProMatches)
	if err != nil {
		if r.OnError != nil {
			r.OnError("pro_matches")
		}
		return nil, fmt.Errorf("fetch pro matches: %w", err)
	}
	r.Log.Info("pro matches fetched", zap.Int("limit", sel.ProMatches), zap.Int("count", len(ids)))
	return ids, nil
}

// Resolve percorre ids em ordem e retorna as refs com replay_url
func (r *Resolver) Resolve(ctx context.Context, ids []int64) []Ref {
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	refs := make([]Ref, 0, len(ids))
	for _, id := range ids {
		if err := sleep(ctx, r.Delay); err != nil {
			r.Log.Warn("resolve interrupted", zap.Error(err))
			break
		}

		url, ok, err := r.API.GetReplayURL(ctx, id)
		if err != nil {
			r.Log.Error("replay lookup failed", zap.Int64("match_id", id), zap.Error(err))
			if r.OnError != nil {
				r.OnError("lookup")
			}
			continue
		}
		if !ok {
			r.Log.Warn("no replay url", zap.Int64("match_id", id))
			if r.OnMissing != nil {
				r.OnMissing(id)
			}
			continue
		}

		ref := Ref{MatchID: id, URL: url}
		refs = append(refs, ref)
		r.print(ref)
		if r.OnResolved != nil {
			r.OnResolved(ref)
		}
	}
	return refs
}

func (r *Resolver) print(ref Ref) {
	if r.Out == nil {
		return
	}
	if r.WithIDs {
		fmt.Fprintf(r.Out, "%d\t%s\n", ref.MatchID, ref.URL)
		return
	}
	fmt.Fprintln(r.Out, ref.URL)
}
