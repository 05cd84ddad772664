package entity

import (
	"testing"

	"heroworld/pkg/tetra"
)

func TestAttackEncodeDecodeRoundTrip(t *testing.T) {
	a := Attack{AttackerID: 1, TargetID: 2, AttackerKind: 1, TargetKind: 2, Tile: tetra.ID{Area: 3, Sub: 4, LOD: 5}, Timestamp: 1000, Flags: 1}
	buf := make([]byte, AttackPayloadSize)
	a.Encode(buf)
	got := DecodeAttack(buf)
	if got != a {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, a)
	}
}

func TestAttackResultEncodeDecodeRoundTrip(t *testing.T) {
	r := AttackResult{AttackerID: 1, TargetID: 2, Damage: 30, Outcome: OutcomeCritical, RemainingHealth: 70, Tile: tetra.ID{Area: 1}, Timestamp: 555, Flags: 2, CriticalMultiplier: 150}
	buf := make([]byte, AttackResultPayloadSize)
	r.Encode(buf)
	got := DecodeAttackResult(buf)
	if got != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestPresentationEncodeDecodeRoundTrip(t *testing.T) {
	p := Presentation{EntityID: 9, Tile: tetra.ID{Area: 2, Sub: 3, LOD: 4}, Kind: 1, Faction: 2, Flags: 0, Timestamp: 42}
	copy(p.Name[:], "Orc")
	buf := make([]byte, PresentationPayloadSize)
	p.Encode(buf)
	got := DecodePresentation(buf)
	if got != p {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestRewardEncodeDecodeRoundTrip(t *testing.T) {
	r := Reward{HeroID: 4, ResourceType: 2, Amount: 500, ExperienceGain: 25, Flags: 1}
	buf := make([]byte, RewardPayloadSize)
	r.Encode(buf)
	got := DecodeReward(buf)
	if got != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestChatEntryEncodeDecodeRoundTrip(t *testing.T) {
	c := ChatEntry{SenderID: 1, Channel: 2, Timestamp: 99, Text: "hello region"}
	buf := make([]byte, ChatEntryPayloadSize)
	c.Encode(buf)
	got := DecodeChatEntry(buf)
	if got.SenderID != c.SenderID || got.Channel != c.Channel || got.Text != c.Text {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestChatEntryTruncatesOverlongText(t *testing.T) {
	long := make([]byte, ChatTextCap+50)
	for i := range long {
		long[i] = 'x'
	}
	c := ChatEntry{Text: string(long)}
	buf := make([]byte, ChatEntryPayloadSize)
	c.Encode(buf)
	got := DecodeChatEntry(buf)
	if len(got.Text) != ChatTextCap {
		t.Errorf("expected text truncated to %d bytes, got %d", ChatTextCap, len(got.Text))
	}
}

func TestServerStatusEncodeDecodeRoundTrip(t *testing.T) {
	s := ServerStatus{TickRateHz: 10, ConnectedHeroes: 42, ActiveMobs: 7, ActiveBattles: 1, QueueDepthHero: 3, QueueDepthMob: 4, QueueDepthTile: 5, QueueDepthTower: 6, QueueDepthChat: 2, UptimeMinutes: 1234}
	buf := make([]byte, ServerStatusPayloadSize)
	s.Encode(buf)
	got := DecodeServerStatus(buf)
	if got != s {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, s)
	}
}

func TestPayloadSizeIsPositiveForEveryDataType(t *testing.T) {
	cases := []struct {
		name string
		dt   DataType
	}{
		{"hero", DataHero}, {"mob", DataMob}, {"tile", DataTile}, {"tower", DataTower},
		{"presentation", DataPresentation}, {"attack", DataAttack}, {"attackresult", DataAttackResult},
		{"reward", DataReward}, {"chat", DataChatMessage}, {"status", DataServerStatus},
	}
	for _, c := range cases {
		if PayloadSize(c.dt) <= 0 {
			t.Errorf("%s: expected positive payload size", c.name)
		}
	}
	if PayloadSize(NoData) != 0 {
		t.Errorf("expected NoData payload size 0")
	}
}
