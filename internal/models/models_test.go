package models

import (
	"testing"
	"time"
)

func TestLineState_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state LineState
	}{
		{"available", Available()},
		{"taken", Taken("u-100", now)},
		{"blacked out", BlackedOut("admin", now)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var line BidLine
			line.ApplyState(tt.state)

			got, err := line.State()
			if err != nil {
				t.Fatalf("State() error: %v", err)
			}
			if got.Status() != tt.state.Status() {
				t.Errorf("status = %s, want %s", got.Status(), tt.state.Status())
			}
			wantActor, wantAt, wantOK := tt.state.Actor()
			actor, at, ok := got.Actor()
			if actor != wantActor || !at.Equal(wantAt) || ok != wantOK {
				t.Errorf("actor = (%q, %v, %v), want (%q, %v, %v)",
					actor, at, ok, wantActor, wantAt, wantOK)
			}
		})
	}
}

func TestLineState_DetectsInconsistentRows(t *testing.T) {
	by := "u-100"
	at := time.Now()

	tests := []struct {
		name string
		line BidLine
	}{
		{"available with actor", BidLine{ID: 1, Status: StatusAvailable, TakenBy: &by}},
		{"taken without actor", BidLine{ID: 2, Status: StatusTaken}},
		{"taken without time", BidLine{ID: 3, Status: StatusTaken, TakenBy: &by}},
		{"blacked out without actor", BidLine{ID: 4, Status: StatusBlackedOut, TakenAt: &at}},
		{"unknown status", BidLine{ID: 5, Status: "PENDING"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.line.State(); err == nil {
				t.Error("State() = nil error, want consistency error")
			}
		})
	}
}

func TestLineState_ColumnsClearActorOnAvailable(t *testing.T) {
	cols := Available().Columns()
	if cols["taken_by"] != nil || cols["taken_at"] != nil {
		t.Errorf("Columns() = %v, want nil actor fields", cols)
	}

	cols = Taken("u-7", time.Now()).Columns()
	if cols["taken_by"] != "u-7" {
		t.Errorf("taken_by = %v, want u-7", cols["taken_by"])
	}
}
