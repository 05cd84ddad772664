package entity

import (
	"encoding/binary"

	"heroworld/pkg/tetra"
)

// AttackOutcome classifies how an attack resolved.
type AttackOutcome uint8

const (
	OutcomeMiss AttackOutcome = iota
	OutcomeBlock
	OutcomeNormal
	OutcomeCritical
)

// EntityKind tags which table an Attack's AttackerID/TargetID indexes
// into, so one generic Attack payload can carry hero-vs-mob, mob-vs-hero,
// hero-vs-tile and hero/mob-vs-tower combat alike.
const (
	KindHero uint8 = iota + 1
	KindMob
	KindTile
	KindTower
)

// AttackFlagMissed, set by the client on the originating command, short
// circuits resolution straight to OutcomeMiss regardless of stats.
// AttackFlagWindup marks a wind-up/projectile command. The flag is carried
// on the wire only: the dispatcher's attack handlers do not consult it and
// resolve every attack command immediately. Delayed resolution happens
// only for attacks passed to dispatch.Dispatcher.ScheduleDelayed.
const (
	AttackFlagMissed uint8 = 1 << iota
	AttackFlagWindup
)

// Attack is the wire form of an attack command once accepted by the
// dispatcher: who struck whom, where, and when. Used both for immediate
// resolution and as the payload scheduled into package delayed.
type Attack struct {
	AttackerID   uint32
	TargetID     uint32
	AttackerKind uint8
	TargetKind   uint8
	Tile         tetra.ID
	Timestamp    uint32
	Flags        uint8
}

// Encode writes the fixed AttackPayloadSize wire form.
func (a Attack) Encode(dst []byte) {
	_ = dst[AttackPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], a.AttackerID)
	off += 4
	binary.LittleEndian.PutUint32(dst[off:], a.TargetID)
	off += 4
	dst[off] = a.AttackerKind
	off++
	dst[off] = a.TargetKind
	off++
	a.Tile.Encode(dst[off:])
	off += tetra.WireSize
	binary.LittleEndian.PutUint32(dst[off:], a.Timestamp)
	off += 4
	dst[off] = a.Flags
	off++
	_ = off // off == AttackPayloadSize
}

// DecodeAttack reads a AttackPayloadSize wire form.
func DecodeAttack(src []byte) Attack {
	_ = src[AttackPayloadSize-1]
	var a Attack
	off := 0
	a.AttackerID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	a.TargetID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	a.AttackerKind = src[off]
	off++
	a.TargetKind = src[off]
	off++
	a.Tile = tetra.Decode(src[off:])
	off += tetra.WireSize
	a.Timestamp = binary.LittleEndian.Uint32(src[off:])
	off += 4
	a.Flags = src[off]
	return a
}

// AttackResult is the wire form of a resolved attack, broadcast to
// everyone subscribed to the region it happened in.
type AttackResult struct {
	AttackerID         uint32
	TargetID           uint32
	Damage             uint16
	Outcome            AttackOutcome
	RemainingHealth    uint16
	Tile               tetra.ID
	Timestamp          uint32
	Flags              uint8
	CriticalMultiplier uint16 // fixed-point x100; 100 means no bonus
}

// Encode writes the fixed AttackResultPayloadSize wire form.
func (r AttackResult) Encode(dst []byte) {
	_ = dst[AttackResultPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], r.AttackerID)
	off += 4
	binary.LittleEndian.PutUint32(dst[off:], r.TargetID)
	off += 4
	binary.LittleEndian.PutUint16(dst[off:], r.Damage)
	off += 2
	dst[off] = uint8(r.Outcome)
	off++
	binary.LittleEndian.PutUint16(dst[off:], r.RemainingHealth)
	off += 2
	r.Tile.Encode(dst[off:])
	off += tetra.WireSize
	binary.LittleEndian.PutUint32(dst[off:], r.Timestamp)
	off += 4
	dst[off] = r.Flags
	off++
	binary.LittleEndian.PutUint16(dst[off:], r.CriticalMultiplier)
	off += 2
	_ = off // off == AttackResultPayloadSize
}

// DecodeAttackResult reads a AttackResultPayloadSize wire form.
func DecodeAttackResult(src []byte) AttackResult {
	_ = src[AttackResultPayloadSize-1]
	var r AttackResult
	off := 0
	r.AttackerID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	r.TargetID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	r.Damage = binary.LittleEndian.Uint16(src[off:])
	off += 2
	r.Outcome = AttackOutcome(src[off])
	off++
	r.RemainingHealth = binary.LittleEndian.Uint16(src[off:])
	off += 2
	r.Tile = tetra.Decode(src[off:])
	off += tetra.WireSize
	r.Timestamp = binary.LittleEndian.Uint32(src[off:])
	off += 4
	r.Flags = src[off]
	off++
	r.CriticalMultiplier = binary.LittleEndian.Uint16(src[off:])
	return r
}

// Presentation announces an entity entering a client's visible set
// (spawn, enter-region, or first subscription snapshot).
type Presentation struct {
	EntityID  uint32
	Tile      tetra.ID
	Kind      uint8
	Faction   uint8
	Flags     uint8
	Timestamp uint32
	Name      [5]byte
}

// Encode writes the fixed PresentationPayloadSize wire form.
func (p Presentation) Encode(dst []byte) {
	_ = dst[PresentationPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], p.EntityID)
	off += 4
	p.Tile.Encode(dst[off:])
	off += tetra.WireSize
	dst[off] = p.Kind
	off++
	dst[off] = p.Faction
	off++
	dst[off] = p.Flags
	off++
	binary.LittleEndian.PutUint32(dst[off:], p.Timestamp)
	off += 4
	copy(dst[off:], p.Name[:])
	off += len(p.Name)
	_ = off // off == PresentationPayloadSize
}

// DecodePresentation reads a PresentationPayloadSize wire form.
func DecodePresentation(src []byte) Presentation {
	_ = src[PresentationPayloadSize-1]
	var p Presentation
	off := 0
	p.EntityID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	p.Tile = tetra.Decode(src[off:])
	off += tetra.WireSize
	p.Kind = src[off]
	off++
	p.Faction = src[off]
	off++
	p.Flags = src[off]
	off++
	p.Timestamp = binary.LittleEndian.Uint32(src[off:])
	off += 4
	copy(p.Name[:], src[off:off+len(p.Name)])
	return p
}

// Reward is a resource/experience grant resulting from an action
// (extraction, kill credit, quest completion).
type Reward struct {
	HeroID         uint32
	ResourceType   uint8
	Amount         uint32
	ExperienceGain uint16
	Flags          uint8
}

// Encode writes the fixed RewardPayloadSize wire form.
func (r Reward) Encode(dst []byte) {
	_ = dst[RewardPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], r.HeroID)
	off += 4
	dst[off] = r.ResourceType
	off++
	binary.LittleEndian.PutUint32(dst[off:], r.Amount)
	off += 4
	binary.LittleEndian.PutUint16(dst[off:], r.ExperienceGain)
	off += 2
	dst[off] = r.Flags
	off++
	_ = off // off == RewardPayloadSize
}

// DecodeReward reads a RewardPayloadSize wire form.
func DecodeReward(src []byte) Reward {
	_ = src[RewardPayloadSize-1]
	var r Reward
	off := 0
	r.HeroID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	r.ResourceType = src[off]
	off++
	r.Amount = binary.LittleEndian.Uint32(src[off:])
	off += 4
	r.ExperienceGain = binary.LittleEndian.Uint16(src[off:])
	off += 2
	r.Flags = src[off]
	return r
}

// ChatTextCap is the maximum chat text length, fixed so ChatEntry is a
// constant-size wire payload.
const ChatTextCap = 403

// ChatEntry is one chat message broadcast to a channel (region or
// faction, per the router's channel field).
type ChatEntry struct {
	SenderID  uint32
	Channel   uint8
	Timestamp uint32
	Text      string // truncated to ChatTextCap on Encode
}

// Encode writes the fixed ChatEntryPayloadSize wire form, truncating Text
// to ChatTextCap bytes and recording the truncated length.
func (c ChatEntry) Encode(dst []byte) {
	_ = dst[ChatEntryPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], c.SenderID)
	off += 4
	dst[off] = c.Channel
	off++
	binary.LittleEndian.PutUint32(dst[off:], c.Timestamp)
	off += 4
	text := c.Text
	if len(text) > ChatTextCap {
		text = text[:ChatTextCap]
	}
	binary.LittleEndian.PutUint16(dst[off:], uint16(len(text)))
	off += 2
	n := copy(dst[off:off+ChatTextCap], text)
	for i := off + n; i < off+ChatTextCap; i++ {
		dst[i] = 0
	}
	off += ChatTextCap
	_ = off // off == ChatEntryPayloadSize
}

// DecodeChatEntry reads a ChatEntryPayloadSize wire form.
func DecodeChatEntry(src []byte) ChatEntry {
	_ = src[ChatEntryPayloadSize-1]
	var c ChatEntry
	off := 0
	c.SenderID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	c.Channel = src[off]
	off++
	c.Timestamp = binary.LittleEndian.Uint32(src[off:])
	off += 4
	n := binary.LittleEndian.Uint16(src[off:])
	off += 2
	if int(n) > ChatTextCap {
		n = ChatTextCap
	}
	c.Text = string(src[off : off+int(n)])
	return c
}

// ServerStatus is the periodic dashboard payload: ten uint16 gauges
// describing tick health and per-subsystem backpressure.
type ServerStatus struct {
	TickRateHz       uint16
	ConnectedHeroes  uint16
	ActiveMobs       uint16
	ActiveBattles    uint16
	QueueDepthHero   uint16
	QueueDepthMob    uint16
	QueueDepthTile   uint16
	QueueDepthTower  uint16
	QueueDepthChat   uint16
	UptimeMinutes    uint16
}

// Encode writes the fixed ServerStatusPayloadSize wire form.
func (s ServerStatus) Encode(dst []byte) {
	_ = dst[ServerStatusPayloadSize-1]
	fields := [...]uint16{
		s.TickRateHz, s.ConnectedHeroes, s.ActiveMobs, s.ActiveBattles,
		s.QueueDepthHero, s.QueueDepthMob, s.QueueDepthTile, s.QueueDepthTower,
		s.QueueDepthChat, s.UptimeMinutes,
	}
	for i, v := range fields {
		binary.LittleEndian.PutUint16(dst[i*2:], v)
	}
}

// DecodeServerStatus reads a ServerStatusPayloadSize wire form.
func DecodeServerStatus(src []byte) ServerStatus {
	_ = src[ServerStatusPayloadSize-1]
	var fields [10]uint16
	for i := range fields {
		fields[i] = binary.LittleEndian.Uint16(src[i*2:])
	}
	return ServerStatus{
		TickRateHz:      fields[0],
		ConnectedHeroes: fields[1],
		ActiveMobs:      fields[2],
		ActiveBattles:   fields[3],
		QueueDepthHero:  fields[4],
		QueueDepthMob:   fields[5],
		QueueDepthTile:  fields[6],
		QueueDepthTower: fields[7],
		QueueDepthChat:  fields[8],
		UptimeMinutes:   fields[9],
	}
}
