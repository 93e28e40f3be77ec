package wards

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/radieske/opendota-tools/internal/opendota"
	"github.com/radieske/opendota-tools/pkg/contracts/events"
)

// slots a partir de 128 pertencem ao dire
const direSlotStart = 128

// TeamForSlot converte player_slot no team_id usado pelo heatmap
func TeamForSlot(slot int) int32 {
	if slot < direSlotStart {
		return events.TeamRadiant
	}
	return events.TeamDire
}

// Extract normaliza obs_log e sen_log de todos os jogadores em WardRecords.
// Ordem: jogadores na ordem da API; por jogador, observers antes de sentries.
// Entradas sem x ou y são ignoradas; sem time viram 0. Nunca retorna nil.
func Extract(matchID int64, m *opendota.Match) []events.WardRecord {
	records := make([]events.WardRecord, 0)
	if m == nil {
		return records
	}

	for _, p := range m.Players {
		team := TeamForSlot(p.Slot())
		records = appendLog(records, matchID, team, events.WardObserver, p.ObsLog)
		records = appendLog(records, matchID, team, events.WardSentry, p.SenLog)
	}
	return records
}

func appendLog(dst []events.WardRecord, matchID int64, team int32, wardType string, log []opendota.LogEntry) []events.WardRecord {
	for _, e := range log {
		if e.X == nil || e.Y == nil {
			continue
		}
		var t float64
		if e.Time != nil {
			t = *e.Time
		}
		dst = append(dst, events.WardRecord{
			MatchID:     matchID,
			TeamID:      team,
			WardType:    wardType,
			PosX:        *e.X,
			PosY:        *e.Y,
			GameTimeSec: t,
		})
	}
	return dst
}

// Heatmap monta o payload do /api/heatmap; duração inválida vira 3600s
func Heatmap(matchID int64, m *opendota.Match) events.HeatmapPayload {
	d := 0
	if m != nil && m.Duration != nil {
		d = *m.Duration
	}
	if d <= 0 {
		d = 3600
	}
	return events.HeatmapPayload{DurationSec: d, Wards: Extract(matchID, m)}
}

// WriteJSON escreve os registros como JSON compacto seguido de '\n'
func WriteJSON(w io.Writer, records []events.WardRecord) error {
	if records == nil {
		records = []events.WardRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal wards: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write wards: %w", err)
	}
	return nil
}
