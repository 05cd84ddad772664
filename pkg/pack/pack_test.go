package pack

import (
	"testing"

	"heroworld/pkg/entity"
	"heroworld/pkg/tetra"
)

func TestBuilderRoundTrip(t *testing.T) {
	hero := entity.NewHero(1, "Ann", 0, tetra.ID{Area: 1})
	heroBuf := make([]byte, entity.HeroPayloadSize)
	hero.Encode(heroBuf)

	reward := entity.Reward{HeroID: 1, ResourceType: 2, Amount: 10, ExperienceGain: 5}
	rewardBuf := make([]byte, entity.RewardPayloadSize)
	reward.Encode(rewardBuf)

	b := NewBuilder(7, 12345)
	if err := b.Add(Entry{Type: entity.DataHero, Payload: heroBuf}); err != nil {
		t.Fatalf("add hero: %v", err)
	}
	if err := b.Add(Entry{Type: entity.DataReward, Payload: rewardBuf}); err != nil {
		t.Fatalf("add reward: %v", err)
	}

	frame, err := b.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(frame) > MaxFrameBytes {
		t.Fatalf("frame exceeds max size: %d", len(frame))
	}

	packetID, timestamp, raw, err := Unpack(frame)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if packetID != 7 || timestamp != 12345 {
		t.Errorf("header mismatch: got packetID=%d timestamp=%d", packetID, timestamp)
	}

	r := NewReader(raw)
	first, ok, err := r.Next()
	if err != nil || !ok || first.Type != entity.DataHero {
		t.Fatalf("expected hero entry first, got %+v ok=%v err=%v", first, ok, err)
	}
	second, ok, err := r.Next()
	if err != nil || !ok || second.Type != entity.DataReward {
		t.Fatalf("expected reward entry second, got %+v ok=%v err=%v", second, ok, err)
	}
	_, ok, err = r.Next()
	if err != nil || ok {
		t.Fatalf("expected stream exhausted after NoData terminator")
	}
}

func TestAddRejectsWrongSizePayload(t *testing.T) {
	b := NewBuilder(1, 1)
	if err := b.Add(Entry{Type: entity.DataHero, Payload: []byte{1, 2, 3}}); err == nil {
		t.Error("expected error for undersized payload")
	}
}

func TestReaderErrorsOnTruncatedPayload(t *testing.T) {
	raw := []byte{byte(entity.DataHero), 1, 2, 3} // too short for HeroPayloadSize
	r := NewReader(raw)
	_, ok, err := r.Next()
	if err == nil || ok {
		t.Errorf("expected truncation error, got ok=%v err=%v", ok, err)
	}
}
