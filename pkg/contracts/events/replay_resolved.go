package events

import "time"

// Evento publicado no tópico "replay_resolved" para cada partida com replay_url
type ReplayResolved struct {
	MatchID    int64     `json:"match_id"`
	ReplayURL  string    `json:"replay_url"`
	ResolvedAt time.Time `json:"resolved_at"`
}
