package events

// Valores aceitos em WardRecord.WardType
const (
	WardObserver = "observer"
	WardSentry   = "sentry"
)

// Times derivados do player_slot
const (
	TeamRadiant int32 = 2
	TeamDire    int32 = 3
)

// ObserverWardMaxDurationSec é o tempo máximo de vida de um observer (segundos)
const ObserverWardMaxDurationSec = 360

// SentryWardMaxDurationSec é o tempo máximo de vida de um sentry (segundos)
const SentryWardMaxDurationSec = 420

// WardRecord é o registro consumido pela ferramenta de heatmap.
// Nomes e ordem dos campos fazem parte do contrato, não alterar.
type WardRecord struct {
	MatchID     int64   `json:"match_id"`
	TeamID      int32   `json:"team_id"`   // 2=radiant 3=dire
	WardType    string  `json:"ward_type"` // "observer" | "sentry"
	PosX        float64 `json:"pos_x"`
	PosY        float64 `json:"pos_y"`
	GameTimeSec float64 `json:"game_time_sec"`
	DurationSec float64 `json:"duration_sec"` // sempre 0 quando vem da OpenDota
	IsDenied    bool    `json:"is_denied"`
	RegionTag   string  `json:"region_tag"`
}

// DurationRatio retorna DurationSec sobre a vida máxima do tipo de ward, limitado a [0,1]
func (w *WardRecord) DurationRatio() float64 {
	max := ObserverWardMaxDurationSec
	if w.WardType == WardSentry {
		max = SentryWardMaxDurationSec
	}
	r := w.DurationSec / float64(max)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// HeatmapPayload é a resposta de /api/heatmap do ward-service
type HeatmapPayload struct {
	DurationSec int          `json:"duration_sec"`
	Wards       []WardRecord `json:"wards"`
}
