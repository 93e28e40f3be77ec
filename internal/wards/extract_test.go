package wards

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/radieske/opendota-tools/internal/opendota"
	"github.com/radieske/opendota-tools/pkg/contracts/events"
)

func decodeMatch(t *testing.T, raw string) *opendota.Match {
	t.Helper()
	var m opendota.Match
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal match: %v", err)
	}
	return &m
}

func TestExtract_SingleObserver(t *testing.T) {
	m := decodeMatch(t, `{"players":[{"player_slot":1,"obs_log":[{"x":100,"y":200,"time":30}]}]}`)

	got := Extract(42, m)
	want := []events.WardRecord{{
		MatchID:     42,
		TeamID:      2,
		WardType:    "observer",
		PosX:        100,
		PosY:        200,
		GameTimeSec: 30,
	}}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("unexpected records: %+v", got)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, got); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	const wantJSON = `[{"match_id":42,"team_id":2,"ward_type":"observer","pos_x":100,"pos_y":200,"game_time_sec":30,"duration_sec":0,"is_denied":false,"region_tag":""}]` + "\n"
	if buf.String() != wantJSON {
		t.Fatalf("unexpected json:\n got %s\nwant %s", buf.String(), wantJSON)
	}
}

func TestExtract_TeamFromSlot(t *testing.T) {
	cases := []struct {
		slot int
		want int32
	}{
		{0, 2}, {4, 2}, {127, 2}, {128, 3}, {132, 3}, {255, 3},
	}
	for _, c := range cases {
		if got := TeamForSlot(c.slot); got != c.want {
			t.Errorf("TeamForSlot(%d) = %d, want %d", c.slot, got, c.want)
		}
	}

	m := decodeMatch(t, `{"players":[
		{"player_slot":3,"obs_log":[{"x":1,"y":1}],"sen_log":[{"x":2,"y":2}]},
		{"player_slot":130,"obs_log":[{"x":3,"y":3}],"sen_log":[{"x":4,"y":4}]},
		{"sen_log":[{"x":5,"y":5}]}
	]}`)
	recs := Extract(7, m)
	if len(recs) != 5 {
		t.Fatalf("expected 5 records, got %d", len(recs))
	}
	wantTeams := []int32{2, 2, 3, 3, 2}
	for i, r := range recs {
		if r.TeamID != wantTeams[i] {
			t.Errorf("record %d: team %d, want %d", i, r.TeamID, wantTeams[i])
		}
	}
}

func TestExtract_OrderObserverBeforeSentry(t *testing.T) {
	m := decodeMatch(t, `{"players":[
		{"player_slot":0,"sen_log":[{"x":10,"y":10}],"obs_log":[{"x":1,"y":1},{"x":2,"y":2}]},
		{"player_slot":128,"obs_log":[{"x":3,"y":3}],"sen_log":[{"x":20,"y":20}]}
	]}`)
	recs := Extract(1, m)

	want := []struct {
		typ string
		x   float64
	}{
		{"observer", 1}, {"observer", 2}, {"sentry", 10}, {"observer", 3}, {"sentry", 20},
	}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, w := range want {
		if recs[i].WardType != w.typ || recs[i].PosX != w.x {
			t.Errorf("record %d: got %s@%v, want %s@%v", i, recs[i].WardType, recs[i].PosX, w.typ, w.x)
		}
	}
}

func TestExtract_OnlyObserverLogs(t *testing.T) {
	m := decodeMatch(t, `{"players":[
		{"player_slot":0,"obs_log":[{"x":1,"y":1},{"x":2,"y":2,"time":-15}]},
		{"player_slot":129,"obs_log":[{"x":3,"y":3,"time":600}],"sen_log":null}
	]}`)
	for _, r := range Extract(9, m) {
		if r.WardType != events.WardObserver {
			t.Fatalf("expected only observer wards, got %+v", r)
		}
	}
}

func TestExtract_SkipsMissingCoordinates(t *testing.T) {
	m := decodeMatch(t, `{"players":[
		{"player_slot":0,"obs_log":[{"y":1,"time":5},{"x":2,"time":6},{"x":null,"y":3}],"sen_log":[{"time":9}]}
	]}`)
	recs := Extract(5, m)
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %+v", recs)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, recs); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}

func TestExtract_MissingTimeDefaultsToZero(t *testing.T) {
	m := decodeMatch(t, `{"players":[{"player_slot":2,"sen_log":[{"x":7.5,"y":8.25}]}]}`)
	recs := Extract(3, m)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].GameTimeSec != 0 {
		t.Fatalf("expected game_time_sec 0, got %v", recs[0].GameTimeSec)
	}
	if recs[0].PosX != 7.5 || recs[0].PosY != 8.25 {
		t.Fatalf("coordinates not copied verbatim: %+v", recs[0])
	}
}

func TestExtract_NoPlayers(t *testing.T) {
	for _, raw := range []string{`{}`, `{"players":null}`, `{"players":[]}`} {
		recs := Extract(1, decodeMatch(t, raw))
		if recs == nil || len(recs) != 0 {
			t.Fatalf("%s: expected empty non-nil slice, got %#v", raw, recs)
		}
	}
	if recs := Extract(1, nil); recs == nil {
		t.Fatal("nil match should yield empty slice")
	}
}

func TestExtract_ConstantFields(t *testing.T) {
	m := decodeMatch(t, `{"players":[{"player_slot":200,"obs_log":[{"x":1,"y":2,"time":3}],"sen_log":[{"x":4,"y":5,"time":6}]}]}`)
	for _, r := range Extract(11, m) {
		if r.MatchID != 11 || r.DurationSec != 0 || r.IsDenied || r.RegionTag != "" {
			t.Fatalf("unexpected constant fields: %+v", r)
		}
	}
}

func TestHeatmap_DurationFallback(t *testing.T) {
	p := Heatmap(1, decodeMatch(t, `{"duration":0,"players":[]}`))
	if p.DurationSec != 3600 {
		t.Fatalf("expected fallback 3600, got %d", p.DurationSec)
	}
	if p.Wards == nil {
		t.Fatal("wards should never be nil")
	}

	p = Heatmap(1, decodeMatch(t, `{"duration":2412,"players":[{"obs_log":[{"x":1,"y":1}]}]}`))
	if p.DurationSec != 2412 || len(p.Wards) != 1 {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestDurationRatio(t *testing.T) {
	cases := []struct {
		rec  events.WardRecord
		want float64
	}{
		{events.WardRecord{WardType: "observer", DurationSec: 180}, 0.5},
		{events.WardRecord{WardType: "sentry", DurationSec: 210}, 0.5},
		{events.WardRecord{WardType: "observer", DurationSec: 9000}, 1},
		{events.WardRecord{WardType: "sentry"}, 0},
	}
	for _, c := range cases {
		if got := c.rec.DurationRatio(); got != c.want {
			t.Errorf("%s %v: got %v, want %v", c.rec.WardType, c.rec.DurationSec, got, c.want)
		}
	}
}
