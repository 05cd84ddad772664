// Package dispatch runs the tick loop: once per TickMillis it drains
// every subsystem lane in a fixed order (hero, mob, tile, tower,
// battle, chat) so within one tick a hero's movement always resolves
// before a mob reacts to it, and so on down the chain.
package dispatch

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"heroworld/pkg/delayed"
	"heroworld/pkg/entity"
	"heroworld/pkg/netio"
	"heroworld/pkg/persist"
	"heroworld/pkg/protocol"
	"heroworld/pkg/queue"
	"heroworld/pkg/tetra"
)

// resolutionOrder is the fixed per-tick subsystem draw order. Hero goes
// first so a movement or action this tick is visible to mob AI and tile
// resolution in the same tick; chat goes last since it never depends on
// or feeds combat state.
var resolutionOrder = [...]queue.Subsystem{
	queue.Hero, queue.Mob, queue.Tile, queue.Tower, queue.Battle, queue.Chat,
}

// laneBudget caps how many commands one lane drains per tick, so a flood
// on one subsystem can't starve the others within a single 100ms slot.
const laneBudget = 256

// World is the storage surface the dispatcher needs: lookup by id for
// every entity kind a command can touch, plus the one mutation (mob
// spawn) dispatch can't express through an existing entity method. A
// concrete implementation (backed by the region-locked maps the spec
// describes) is supplied by the caller; dispatch itself stays
// storage-agnostic so it can be unit tested against a fake.
type World interface {
	Hero(id uint32) (*entity.Hero, bool)
	Mob(id uint32) (*entity.Mob, bool)
	Tile(id tetra.ID) (*entity.Tile, bool)
	Tower(id tetra.ID) (*entity.Tower, bool)
	Battle(id uint32) (*entity.Battle, bool)
	SpawnMob(kind uint8, level uint8, maxHealth uint16, at tetra.ID) *entity.Mob
}

// Dispatcher drains the fixed-order lane set once per tick and emits
// resolved deltas for the packer/subscriber layers to fan out.
type Dispatcher struct {
	lanes     *queue.Router
	scheduler *delayed.Scheduler
	world     World
	rng       *rand.Rand
	tick      uint64

	heroQueue  *persist.Queue
	tileQueue  *persist.Queue
	towerQueue *persist.Queue

	// Results, Presentations, Rewards and ChatEntries are refilled each
	// Tick call for the caller to pack and fan out; callers must read
	// them before the next Tick call overwrites them.
	Results       []entity.AttackResult
	Presentations []entity.Presentation
	Rewards       []entity.Reward
	ChatEntries   []entity.ChatEntry

	onTick func()
}

// OnTick registers a callback invoked at the end of every Tick, once
// Results/Presentations/Rewards/ChatEntries for that tick are final —
// the caller's hook is expected to pack and fan them out before the
// next Tick call overwrites the slices. Only one callback is kept; a
// later call replaces the previous one.
func (d *Dispatcher) OnTick(fn func()) {
	d.onTick = fn
}

// NewDispatcher wires a dispatcher against an existing lane router,
// delayed-command scheduler and world view. The three persist queues may
// be nil (as in tests that don't exercise persistence); a nil queue's
// MarkDirty calls are simply skipped.
func NewDispatcher(lanes *queue.Router, scheduler *delayed.Scheduler, world World, heroQueue, tileQueue, towerQueue *persist.Queue) *Dispatcher {
	return &Dispatcher{
		lanes:      lanes,
		scheduler:  scheduler,
		world:      world,
		rng:        rand.New(rand.NewSource(1)),
		heroQueue:  heroQueue,
		tileQueue:  tileQueue,
		towerQueue: towerQueue,
	}
}

// Run ticks the dispatcher every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick drains every lane once, in resolutionOrder, then resolves any
// delayed commands due this tick.
func (d *Dispatcher) Tick() {
	d.tick++
	d.Results = d.Results[:0]
	d.Presentations = d.Presentations[:0]
	d.Rewards = d.Rewards[:0]
	d.ChatEntries = d.ChatEntries[:0]

	for _, sub := range resolutionOrder {
		commands := d.lanes.Lane(sub).Dequeue(laneBudget)
		for _, cmd := range commands {
			d.dispatchOne(sub, cmd)
		}
	}

	for _, job := range d.scheduler.Due(d.tick) {
		d.resolveAttack(job.Attack)
	}

	if d.onTick != nil {
		d.onTick()
	}
}

// sessionHeroID extracts the acting hero id from the session a command
// arrived on, for commands whose payload doesn't itself carry an actor.
func sessionHeroID(cmd queue.Command) (uint32, bool) {
	sess, ok := cmd.Session.(*netio.Session)
	if !ok || sess == nil {
		return 0, false
	}
	return sess.HeroID, true
}

// dispatchOne decodes and resolves exactly one already-lane-sorted
// command. Every tag protocol.Router can route is handled here; a tag
// with no case below is logged rather than silently discarded, since a
// client that believes a command was accepted when it was dropped is
// the harder bug to track down.
func (d *Dispatcher) dispatchOne(sub queue.Subsystem, cmd queue.Command) {
	tag := protocol.Tag(cmd.Kind)
	switch tag {
	case protocol.TagHeroMovement:
		d.handleHeroMovement(cmd)
	case protocol.TagResourceExtraction:
		d.handleResourceExtraction(cmd)
	case protocol.TagRespawn:
		d.handleRespawn(cmd)
	case protocol.TagCharacterAction:
		d.handleCharacterAction(cmd)
	case protocol.TagGreet:
		d.handleGreet(cmd)
	case protocol.TagActivateBuff:
		d.handleActivateBuff(cmd)
	case protocol.TagEnterTower:
		d.handleEnterTower(cmd)
	case protocol.TagExitTower:
		d.handleExitTower(cmd)
	case protocol.TagCraftCard:
		d.handleCraftCard(cmd)
	case protocol.TagInventoryRequest:
		d.handleInventoryRequest(cmd)
	case protocol.TagSellItem:
		d.handleSellItem(cmd)
	case protocol.TagBuyItem:
		d.handleBuyItem(cmd)
	case protocol.TagUseItem:
		d.handleUseItem(cmd)
	case protocol.TagEquipItem:
		d.handleEquipItem(cmd)
	case protocol.TagHeroAttacksHero:
		d.handleAttack(cmd, entity.KindHero, entity.KindHero)
	case protocol.TagDisconnect:
		d.handleDisconnect(cmd)

	case protocol.TagSpawnMob:
		d.handleSpawnMob(cmd)
	case protocol.TagMobMoves:
		d.handleMobMoves(cmd)
	case protocol.TagControlMob:
		d.handleControlMob(cmd)
	case protocol.TagAttackMob:
		d.handleAttack(cmd, entity.KindHero, entity.KindMob)
	case protocol.TagCastMobFromHero, protocol.TagCastMobFromMob:
		d.handleControlMob(cmd)
	case protocol.TagMobAttacksHero:
		d.handleAttack(cmd, entity.KindMob, entity.KindHero)

	case protocol.TagLayFoundation:
		d.handleLayFoundation(cmd)
	case protocol.TagBuild:
		d.handleBuild(cmd)
	case protocol.TagBuildWall:
		d.handleBuildWall(cmd)
	case protocol.TagTileAttacksWalker:
		d.handleAttack(cmd, entity.KindTile, entity.KindHero)

	case protocol.TagAttackTower:
		d.handleAttack(cmd, entity.KindHero, entity.KindTower)
	case protocol.TagRepairTower:
		d.handleRepairTower(cmd)

	case protocol.TagBattleJoin:
		d.handleBattleJoin(cmd)
	case protocol.TagBattleTurn:
		d.handleBattleTurn(cmd)

	case protocol.TagChatMessage:
		d.handleChatMessage(cmd)

	default:
		log.Printf("dispatch: %s lane received unrecognized tag %d, dropped", sub, tag)
	}
}

// --- hero lane ---

const heroMovementPayloadSize = tetra.WireSize + 4 + 6 + 4

func (d *Dispatcher) handleHeroMovement(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < heroMovementPayloadSize {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	off := 0
	second := tetra.Decode(cmd.Payload[off:])
	off += tetra.WireSize
	vertex := int32(binary.LittleEndian.Uint32(cmd.Payload[off:]))
	off += 4
	var path [6]uint8
	copy(path[:], cmd.Payload[off:off+6])
	off += 6
	motionTime := binary.LittleEndian.Uint32(cmd.Payload[off:])
	if hero.Move(second, vertex, path, motionTime) {
		d.markHeroDirty(hero)
	}
}

func (d *Dispatcher) handleResourceExtraction(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < tetra.WireSize+4 {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	tileID := tetra.Decode(cmd.Payload)
	requested := binary.LittleEndian.Uint32(cmd.Payload[tetra.WireSize:])
	tile, ok := d.world.Tile(tileID)
	if !ok || tile.ResourceAmount == 0 {
		return
	}
	granted := requested
	if granted > tile.ResourceAmount {
		granted = tile.ResourceAmount
	}
	tile.ResourceAmount -= granted
	tile.Version++
	d.markTileDirty(tile)

	xp := granted / 10
	hero.GrantExperience(xp)
	d.markHeroDirty(hero)

	d.Rewards = append(d.Rewards, entity.Reward{
		HeroID:         hero.ID,
		ResourceType:   tile.ResourceType,
		Amount:         granted,
		ExperienceGain: uint16(xp),
	})
}

func (d *Dispatcher) handleRespawn(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < tetra.WireSize {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	hero.Respawn(tetra.Decode(cmd.Payload))
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleCharacterAction(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < 5 {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	action := entity.Action(cmd.Payload[0])
	timestamp := binary.LittleEndian.Uint32(cmd.Payload[1:])
	hero.SetAction(action, timestamp)
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleGreet(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	// A greet carries no state change of its own; it re-announces the
	// greeter so newly-visible clients get a presentation frame without
	// waiting for the hero's next actual mutation.
	var name [5]byte
	copy(name[:], hero.Name[:])
	d.Presentations = append(d.Presentations, entity.Presentation{
		EntityID:  hero.ID,
		Tile:      hero.Tile,
		Kind:      entity.KindHero,
		Faction:   hero.Faction,
		Flags:     uint8(hero.Flags),
		Timestamp: uint32(time.Now().UnixMilli()),
		Name:      name,
	})
}

const activateBuffPayloadSize = 1 + 1 + 4 + 1 + 4

func (d *Dispatcher) handleActivateBuff(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < activateBuffPayloadSize {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	off := 0
	id := cmd.Payload[off]
	off++
	stat := entity.StatKind(cmd.Payload[off])
	off++
	amount := int32(binary.LittleEndian.Uint32(cmd.Payload[off:]))
	off += 4
	hits := cmd.Payload[off]
	off++
	durationMs := binary.LittleEndian.Uint32(cmd.Payload[off:])

	hero.Buffs.Apply(entity.Buff{
		ID:             id,
		Stat:           stat,
		Amount:         amount,
		Hits:           hits,
		ExpirationTime: uint32(time.Now().UnixMilli()) + durationMs,
	})
	hero.Version++
	d.markHeroDirty(hero)
}

const towerGatePayloadSize = tetra.WireSize

func (d *Dispatcher) handleEnterTower(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < towerGatePayloadSize {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	tileID := tetra.Decode(cmd.Payload)
	if !TowerActive(tileID.Area, tileID.Sub, nowMinutes()) {
		hero.Flags |= entity.FlagTryingEnterTower
		hero.Version++
		d.markHeroDirty(hero)
		return
	}
	hero.Flags &^= entity.FlagTryingEnterTower
	hero.Flags |= entity.FlagInsideTower
	hero.Version++
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleExitTower(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	hero.Flags &^= entity.FlagInsideTower
	hero.Flags &^= entity.FlagTryingEnterTower
	hero.Version++
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleCraftCard(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok || len(cmd.Payload) < 1 {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	cardID := cmd.Payload[0]
	if err := hero.EquipCard(cardID); err != nil {
		log.Printf("dispatch: craft card for hero %d rejected: %v", heroID, err)
		return
	}
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleInventoryRequest(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	// No state changes hands on a request; the hero is only re-marked
	// dirty for the persistence queue, which writes on its own flush
	// cadence and skips the hero if its encoded form is unchanged. No
	// inventory frame is sent back to the client.
	d.markHeroDirty(hero)
}

const inventoryTradePayloadSize = 1 + 2

func (d *Dispatcher) handleSellItem(cmd queue.Command) {
	d.handleInventoryRemove(cmd, func(h *entity.Hero, slot uint8, amount uint16) bool {
		return h.Items.Remove(slot, amount)
	})
}

func (d *Dispatcher) handleBuyItem(cmd queue.Command) {
	if len(cmd.Payload) < 1+1+2 {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	itemID := cmd.Payload[0]
	slot := cmd.Payload[1]
	amount := binary.LittleEndian.Uint16(cmd.Payload[2:])
	if !hero.Items.Add(itemID, slot, amount, entity.ItemInventoryCap) {
		log.Printf("dispatch: buy item for hero %d rejected, inventory full", heroID)
		return
	}
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleUseItem(cmd queue.Command) {
	d.handleInventoryRemove(cmd, func(h *entity.Hero, slot uint8, amount uint16) bool {
		return h.Items.Remove(slot, amount)
	})
}

func (d *Dispatcher) handleInventoryRemove(cmd queue.Command, apply func(*entity.Hero, uint8, uint16) bool) {
	if len(cmd.Payload) < inventoryTradePayloadSize {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	slot := cmd.Payload[0]
	amount := binary.LittleEndian.Uint16(cmd.Payload[1:])
	if !apply(hero, slot, amount) {
		return
	}
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleEquipItem(cmd queue.Command) {
	if len(cmd.Payload) < 1 {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	slot := cmd.Payload[0]
	row, found := hero.Weapons.Find(slot)
	if !found {
		return
	}
	if err := hero.EquipCard(row.ID); err != nil {
		log.Printf("dispatch: equip item for hero %d rejected: %v", heroID, err)
		return
	}
	d.markHeroDirty(hero)
}

func (d *Dispatcher) handleDisconnect(cmd queue.Command) {
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	// Eviction from the live session table is netio's job; dispatch only
	// needs to stop showing the hero as mid-action.
	hero, ok := d.world.Hero(heroID)
	if !ok {
		return
	}
	hero.SetAction(entity.ActionIdle, uint32(time.Now().UnixMilli()))
	d.markHeroDirty(hero)
}

// --- mob lane ---

const spawnMobPayloadSize = 1 + 1 + 2 + tetra.WireSize

func (d *Dispatcher) handleSpawnMob(cmd queue.Command) {
	if len(cmd.Payload) < spawnMobPayloadSize {
		return
	}
	kind := cmd.Payload[0]
	level := cmd.Payload[1]
	maxHealth := binary.LittleEndian.Uint16(cmd.Payload[2:])
	at := tetra.Decode(cmd.Payload[4:])
	d.world.SpawnMob(kind, level, maxHealth, at)
}

const mobMovePayloadSize = 4 + tetra.WireSize + tetra.WireSize + 6 + 4

func (d *Dispatcher) handleMobMoves(cmd queue.Command) {
	if len(cmd.Payload) < mobMovePayloadSize {
		return
	}
	off := 0
	mobID := binary.LittleEndian.Uint32(cmd.Payload[off:])
	off += 4
	mob, ok := d.world.Mob(mobID)
	if !ok {
		return
	}
	start := tetra.Decode(cmd.Payload[off:])
	off += tetra.WireSize
	end := tetra.Decode(cmd.Payload[off:])
	off += tetra.WireSize
	var path [6]uint8
	copy(path[:], cmd.Payload[off:off+6])
	off += 6
	motionTime := binary.LittleEndian.Uint32(cmd.Payload[off:])
	mob.Move(start, end, path, motionTime)
}

const controlMobPayloadSize = 4 + 4

func (d *Dispatcher) handleControlMob(cmd queue.Command) {
	if len(cmd.Payload) < controlMobPayloadSize {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	mobID := binary.LittleEndian.Uint32(cmd.Payload)
	expiresAt := binary.LittleEndian.Uint32(cmd.Payload[4:])
	mob, ok := d.world.Mob(mobID)
	if !ok {
		return
	}
	mob.CastBy(heroID, expiresAt)
}

// --- tile lane ---

func (d *Dispatcher) handleLayFoundation(cmd queue.Command) {
	if len(cmd.Payload) < tetra.WireSize {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	tile, ok := d.world.Tile(tetra.Decode(cmd.Payload))
	if !ok {
		return
	}
	if tile.LayFoundation(heroID) {
		d.markTileDirty(tile)
	}
}

const buildPayloadSize = tetra.WireSize + 2 + 2 + 2

func (d *Dispatcher) handleBuild(cmd queue.Command) {
	if len(cmd.Payload) < buildPayloadSize {
		return
	}
	off := 0
	tile, ok := d.world.Tile(tetra.Decode(cmd.Payload[off:]))
	off += tetra.WireSize
	if !ok {
		return
	}
	amount := binary.LittleEndian.Uint16(cmd.Payload[off:])
	off += 2
	target := binary.LittleEndian.Uint16(cmd.Payload[off:])
	off += 2
	prosperityGain := binary.LittleEndian.Uint16(cmd.Payload[off:])
	tile.AdvanceBuild(amount, target, prosperityGain)
	d.markTileDirty(tile)
}

const buildWallPayloadSize = tetra.WireSize + 1

func (d *Dispatcher) handleBuildWall(cmd queue.Command) {
	if len(cmd.Payload) < buildWallPayloadSize {
		return
	}
	tile, ok := d.world.Tile(tetra.Decode(cmd.Payload))
	if !ok {
		return
	}
	tile.ReinforceWall(cmd.Payload[tetra.WireSize])
	d.markTileDirty(tile)
}

// --- tower lane ---

const repairTowerPayloadSize = tetra.WireSize + 2

func (d *Dispatcher) handleRepairTower(cmd queue.Command) {
	if len(cmd.Payload) < repairTowerPayloadSize {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	tower, ok := d.world.Tower(tetra.Decode(cmd.Payload))
	if !ok {
		return
	}
	amount := binary.LittleEndian.Uint16(cmd.Payload[tetra.WireSize:])
	tower.Repair(amount)
	if err := tower.Credit(heroID, uint32(amount)); err != nil {
		log.Printf("dispatch: tower %d repair credit for hero %d rejected: %v", tower.ID, heroID, err)
	}
	d.markTowerDirty(tower)
}

// --- battle lane ---

func (d *Dispatcher) handleBattleJoin(cmd queue.Command) {
	if len(cmd.Payload) < 4 {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	battleID := binary.LittleEndian.Uint32(cmd.Payload)
	battle, ok := d.world.Battle(battleID)
	if !ok {
		return
	}
	if _, err := battle.Join(heroID); err != nil {
		log.Printf("dispatch: battle %d join by hero %d rejected: %v", battleID, heroID, err)
	}
}

func (d *Dispatcher) handleBattleTurn(cmd queue.Command) {
	if len(cmd.Payload) < 5 {
		return
	}
	battleID := binary.LittleEndian.Uint32(cmd.Payload)
	slot := cmd.Payload[4]
	battle, ok := d.world.Battle(battleID)
	if !ok {
		return
	}
	if err := battle.RecordTurn(slot); err != nil {
		log.Printf("dispatch: battle %d turn for slot %d rejected: %v", battleID, slot, err)
	}
}

// --- chat lane ---

func (d *Dispatcher) handleChatMessage(cmd queue.Command) {
	if len(cmd.Payload) < 1 {
		return
	}
	heroID, ok := sessionHeroID(cmd)
	if !ok {
		return
	}
	channel := cmd.Payload[0]
	text := string(cmd.Payload[1:])
	if len(text) > entity.ChatTextCap {
		text = text[:entity.ChatTextCap]
	}
	d.ChatEntries = append(d.ChatEntries, entity.ChatEntry{
		SenderID:  heroID,
		Channel:   channel,
		Timestamp: uint32(time.Now().UnixMilli()),
		Text:      text,
	})
}

// --- generic attack resolution, shared by every attack-family tag ---

// handleAttack decodes the shared entity.Attack payload and resolves it
// immediately, tagging attacker/target kind from the command's own tag
// rather than trusting the client-supplied kind bytes in the payload.
func (d *Dispatcher) handleAttack(cmd queue.Command, attackerKind, targetKind uint8) {
	if len(cmd.Payload) != entity.AttackPayloadSize {
		return
	}
	a := entity.DecodeAttack(cmd.Payload)
	a.AttackerKind = attackerKind
	a.TargetKind = targetKind
	d.resolveAttack(a)
}

func (d *Dispatcher) resolveAttack(a entity.Attack) {
	attacker, ok := d.statsFor(a.AttackerKind, a.AttackerID, a.Tile)
	if !ok {
		log.Printf("dispatch: attack %d -> %d skipped, attacker missing", a.AttackerID, a.TargetID)
		return
	}
	defender, ok := d.statsFor(a.TargetKind, a.TargetID, a.Tile)
	if !ok {
		log.Printf("dispatch: attack %d -> %d skipped, target missing", a.AttackerID, a.TargetID)
		return
	}

	missed := a.Flags&entity.AttackFlagMissed != 0
	result := Resolve(attacker, defender, missed, d.rng)
	result.AttackerID = a.AttackerID
	result.TargetID = a.TargetID
	result.Tile = a.Tile
	result.Timestamp = a.Timestamp
	result.Flags = a.Flags

	remaining, killed := d.applyDamage(a.TargetKind, a.TargetID, a.Tile, result.Damage)
	result.RemainingHealth = remaining

	if killed && a.TargetKind == entity.KindHero && a.AttackerKind == entity.KindHero {
		d.grantKillExperience(a.AttackerID, a.TargetID)
	}

	d.Results = append(d.Results, result)
}

// statsFor resolves an entity reference into the CombatStats Resolve
// needs. For Tile/Tower kinds the reference is the tile itself (towers
// and tiles are addressed by location, not a synthetic id), so id is
// ignored and tile is used instead.
func (d *Dispatcher) statsFor(kind uint8, id uint32, tile tetra.ID) (CombatStats, bool) {
	switch kind {
	case entity.KindHero:
		hero, ok := d.world.Hero(id)
		if !ok {
			return CombatStats{}, false
		}
		return heroCombatStats(hero), true
	case entity.KindMob:
		mob, ok := d.world.Mob(id)
		if !ok {
			return CombatStats{}, false
		}
		return mobCombatStats(mob), true
	case entity.KindTile:
		t, ok := d.world.Tile(tile)
		if !ok {
			return CombatStats{}, false
		}
		return tileCombatStats(t), true
	case entity.KindTower:
		tw, ok := d.world.Tower(tile)
		if !ok {
			return CombatStats{}, false
		}
		return towerCombatStats(tw), true
	}
	return CombatStats{}, false
}

// applyDamage mutates the target entity and returns its remaining
// health plus whether this hit killed it (health was >0 before, ==0 after).
// killed is only ever reported for heroes and mobs; tile and tower hits
// always report false.
func (d *Dispatcher) applyDamage(kind uint8, id uint32, tile tetra.ID, damage uint16) (remaining uint16, killed bool) {
	if damage == 0 {
		switch kind {
		case entity.KindHero:
			if h, ok := d.world.Hero(id); ok {
				return h.Health, false
			}
		case entity.KindMob:
			if m, ok := d.world.Mob(id); ok {
				return m.Health, false
			}
		case entity.KindTile:
			if t, ok := d.world.Tile(tile); ok {
				return t.Health, false
			}
		case entity.KindTower:
			if tw, ok := d.world.Tower(tile); ok {
				return tw.Health, false
			}
		}
		return 0, false
	}

	switch kind {
	case entity.KindHero:
		h, ok := d.world.Hero(id)
		if !ok {
			return 0, false
		}
		wasAlive := h.Health > 0
		h.ApplyDamage(damage)
		d.markHeroDirty(h)
		return h.Health, wasAlive && h.Health == 0
	case entity.KindMob:
		m, ok := d.world.Mob(id)
		if !ok {
			return 0, false
		}
		wasAlive := m.Health > 0
		m.ApplyDamage(damage)
		return m.Health, wasAlive && m.Health == 0
	case entity.KindTile:
		t, ok := d.world.Tile(tile)
		if !ok {
			return 0, false
		}
		t.ApplyDamage(damage)
		d.markTileDirty(t)
		return t.Health, false
	case entity.KindTower:
		tw, ok := d.world.Tower(tile)
		if !ok {
			return 0, false
		}
		tw.ApplyDamage(damage)
		d.markTowerDirty(tw)
		return tw.Health, false
	}
	return 0, false
}

// grantKillExperience rewards the attacker xp = ceil((Ld+1) * 1.1^max(0,Ld-La))
// where Ld is the defeated hero's level and La the attacker's, matching
// the diminishing returns of farming a far-lower-level opponent.
func (d *Dispatcher) grantKillExperience(attackerID, defeatedID uint32) {
	attacker, ok := d.world.Hero(attackerID)
	if !ok {
		return
	}
	defeated, ok := d.world.Hero(defeatedID)
	if !ok {
		return
	}
	ld, la := float64(defeated.Level), float64(attacker.Level)
	diff := math.Max(0, ld-la)
	xp := math.Ceil((ld + 1) * math.Pow(1.1, diff))
	attacker.GrantExperience(uint32(xp))
	d.markHeroDirty(attacker)

	d.Rewards = append(d.Rewards, entity.Reward{
		HeroID:         attacker.ID,
		ExperienceGain: uint16(xp),
	})
}

func heroCombatStats(h *entity.Hero) CombatStats {
	card := entity.CardBareHands
	for _, id := range h.Cards {
		if id != 0 {
			card = entity.CardByID(id)
			break
		}
	}
	return CombatStats{
		Strength:       h.StatTotal(card.StrengthStat),
		Defense:        h.StatTotal(entity.StatDefense),
		StrengthFactor: card.StrengthFactor,
		BlockChance:    card.BlockFactor,
		CritChance:     card.CritChance,
	}
}

func mobCombatStats(m *entity.Mob) CombatStats {
	return CombatStats{
		Strength: int32(m.Level) * 3,
		Defense:  int32(m.Level) * 2,
	}
}

func tileCombatStats(t *entity.Tile) CombatStats {
	return CombatStats{
		Strength: int32(t.WallLevel) * 2,
		Defense:  int32(t.Constitution) / 10,
	}
}

func towerCombatStats(tw *entity.Tower) CombatStats {
	return CombatStats{
		Strength: int32(tw.Level) * 4,
		Defense:  int32(tw.Level) * 5,
	}
}

// --- persistence wiring ---

func tileKey(id tetra.ID) string {
	return fmt.Sprintf("%d.%d.%d", id.Area, id.Sub, id.LOD)
}

func (d *Dispatcher) markHeroDirty(h *entity.Hero) {
	if d.heroQueue == nil {
		return
	}
	key := fmt.Sprintf("%d", h.ID)
	d.heroQueue.MarkDirty(key, false, func() []byte {
		buf := make([]byte, entity.HeroPayloadSize)
		h.Encode(buf)
		return buf
	})
}

func (d *Dispatcher) markTileDirty(t *entity.Tile) {
	if d.tileQueue == nil {
		return
	}
	key := tileKey(t.ID)
	d.tileQueue.MarkDirty(key, false, func() []byte {
		buf := make([]byte, entity.TilePayloadSize)
		t.Encode(buf)
		return buf
	})
}

func (d *Dispatcher) markTowerDirty(tw *entity.Tower) {
	if d.towerQueue == nil {
		return
	}
	key := fmt.Sprintf("%d", tw.ID)
	d.towerQueue.MarkDirty(key, false, func() []byte {
		buf := make([]byte, entity.TowerPayloadSize)
		tw.Encode(buf)
		return buf
	})
}

// nowMinutes is TowerActive's wall-clock input, split out so tests can
// exercise TowerActive directly without depending on real time.
func nowMinutes() int64 {
	return time.Now().Unix() / 60
}

// ScheduleDelayed enqueues an attack for resolution delayTicks from now,
// for windup/projectile-style commands that must re-check preconditions
// at resolve time rather than at schedule time.
func (d *Dispatcher) ScheduleDelayed(a entity.Attack, delayTicks uint64) {
	d.scheduler.Schedule(d.tick+delayTicks, a)
}

// CurrentTick returns the dispatcher's internal tick counter.
func (d *Dispatcher) CurrentTick() uint64 {
	return d.tick
}
