package opendota

// Campos opcionais são ponteiros: a OpenDota omite ou manda null para partidas
// não parseadas, e "ausente" precisa ser diferente de zero.

// Match é o subconjunto de GET /matches/{id} usado pelas ferramentas
type Match struct {
	MatchID   int64    `json:"match_id"`
	Duration  *int     `json:"duration"`
	ReplayURL *string  `json:"replay_url"`
	Players   []Player `json:"players"`
}

type Player struct {
	PlayerSlot *int       `json:"player_slot"`
	ObsLog     []LogEntry `json:"obs_log"`
	SenLog     []LogEntry `json:"sen_log"`
}

// LogEntry é uma entrada de obs_log/sen_log
type LogEntry struct {
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	Time *float64 `json:"time"`
}

// ProMatch é um item de GET /proMatches
type ProMatch struct {
	MatchID int64 `json:"match_id"`
}

// Slot retorna player_slot ou 0 quando ausente
func (p Player) Slot() int {
	if p.PlayerSlot == nil {
		return 0
	}
	return *p.PlayerSlot
}

// Replay retorna replay_url; ok=false quando ausente, null ou vazio
func (m *Match) Replay() (string, bool) {
	if m == nil || m.ReplayURL == nil || *m.ReplayURL == "" {
		return "", false
	}
	return *m.ReplayURL, true
}
