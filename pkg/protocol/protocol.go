// Package protocol decodes the one-byte-tagged client command stream
// into queue.Command values and routes them to the right subsystem lane.
// Decoding is deliberately separated from resolution (package dispatch):
// this layer only validates shape and backpressure, never touches game
// state directly.
package protocol

import (
	"context"
	"fmt"
	"strings"

	"heroworld/pkg/accounts"
	"heroworld/pkg/netio"
	"heroworld/pkg/queue"
)

// loginTokenSize is the fixed payload size of a TagLogin command: an
// opaque, NUL-padded credential handed to accounts.Authenticator.
const loginTokenSize = 32

// Tag identifies a client command by its leading byte.
type Tag uint8

const (
	TagLogin Tag = iota + 1
	TagPing
	TagHeroMovement
	TagResourceExtraction
	TagLayFoundation
	TagBuild
	TagTileAttacksWalker
	TagSpawnMob
	TagMobMoves
	TagControlMob
	TagAttackMob
	TagMissingPackets
	TagAttackTower
	TagRepairTower
	TagChatMessage
	TagBuildWall
	TagSellItem
	TagBuyItem
	TagUseItem
	TagEquipItem
	TagRespawn
	TagCharacterAction
	TagGreet
	TagActivateBuff
	TagCastMobFromHero
	TagCastMobFromMob
	TagMobAttacksHero
	TagHeroAttacksHero
	TagEnterTower
	TagExitTower
	TagCraftCard
	TagInventoryRequest
	TagBattleJoin
	TagBattleTurn
	TagDisconnect // synthetic; never sent by a client, emitted by netio on eviction
)

// route maps each tag to the lane it feeds. Tags not listed here are
// rejected with ErrUnknownTag rather than silently dropped, per the
// error-handling policy: malformed/unsupported input is always visible
// in a log line, never swallowed.
var route = map[Tag]queue.Subsystem{
	TagHeroMovement:       queue.Hero,
	TagResourceExtraction: queue.Hero,
	TagRespawn:            queue.Hero,
	TagCharacterAction:    queue.Hero,
	TagGreet:              queue.Hero,
	TagActivateBuff:       queue.Hero,
	TagHeroAttacksHero:    queue.Hero,
	TagEnterTower:         queue.Hero,
	TagExitTower:          queue.Hero,
	TagCraftCard:          queue.Hero,
	TagInventoryRequest:   queue.Hero,
	TagSellItem:           queue.Hero,
	TagBuyItem:            queue.Hero,
	TagUseItem:            queue.Hero,
	TagEquipItem:          queue.Hero,
	TagDisconnect:         queue.Hero,

	TagSpawnMob:        queue.Mob,
	TagMobMoves:        queue.Mob,
	TagControlMob:      queue.Mob,
	TagAttackMob:       queue.Mob,
	TagCastMobFromHero: queue.Mob,
	TagCastMobFromMob:  queue.Mob,
	TagMobAttacksHero:  queue.Mob,

	TagLayFoundation:     queue.Tile,
	TagBuild:             queue.Tile,
	TagTileAttacksWalker: queue.Tile,
	TagBuildWall:         queue.Tile,

	TagAttackTower: queue.Tower,
	TagRepairTower: queue.Tower,

	TagBattleJoin: queue.Battle,
	TagBattleTurn: queue.Battle,

	TagChatMessage: queue.Chat,
}

// ErrUnknownTag is returned for a tag byte with no registered route.
type ErrUnknownTag Tag

func (e ErrUnknownTag) Error() string {
	return fmt.Sprintf("protocol: unknown command tag %d", Tag(e))
}

// ErrEmptyFrame is returned for a zero-length payload.
var ErrEmptyFrame = fmt.Errorf("protocol: empty frame")

// ErrNotAuthenticated is returned for any tag other than TagLogin/TagPing
// arriving on a session that has not yet logged in — admission happens
// exactly once, via TagLogin, before any gameplay command is accepted.
var ErrNotAuthenticated = fmt.Errorf("protocol: session has not completed login")

// ErrLaneFull is returned when the target subsystem's lane is saturated;
// the caller (netio) is expected to drop the datagram and let the
// client's own retry/backoff handle it rather than blocking the receive
// loop.
type ErrLaneFull queue.Subsystem

func (e ErrLaneFull) Error() string {
	return fmt.Sprintf("protocol: %s lane full, command dropped", queue.Subsystem(e))
}

// Router decodes tagged client payloads into queue.Command and enqueues
// them on the appropriate lane.
type Router struct {
	lanes    *queue.Router
	sessions *netio.Registry
	auth     accounts.Authenticator
}

// NewRouter builds a Router over an existing lane set, session registry
// and authenticator. The registry and authenticator are consulted only
// for TagLogin and for gating every other tag behind a completed login.
func NewRouter(lanes *queue.Router, sessions *netio.Registry, auth accounts.Authenticator) *Router {
	return &Router{lanes: lanes, sessions: sessions, auth: auth}
}

// Decode implements netio.Decoder: tag byte, then the command body
// verbatim (subsystem-specific parsing happens in package dispatch,
// which already knows each tag's exact layout).
func (r *Router) Decode(session *netio.Session, raw []byte) error {
	if len(raw) == 0 {
		return ErrEmptyFrame
	}
	tag := Tag(raw[0])

	if tag == TagPing {
		return nil // accepted without login; no lane command and no reply is sent
	}
	if tag == TagLogin {
		return r.handleLogin(session, raw[1:])
	}
	if session.HeroID == 0 {
		return ErrNotAuthenticated
	}
	if tag == TagMissingPackets {
		return r.handleMissingPackets(session, raw[1:])
	}

	subsystem, ok := route[tag]
	if !ok {
		return ErrUnknownTag(tag)
	}

	cmd := queue.Command{Session: session, Kind: uint8(tag), Payload: raw[1:]}
	if !r.lanes.Lane(subsystem).TryEnqueue(cmd) {
		return ErrLaneFull(subsystem)
	}
	return nil
}

// handleLogin resolves raw (a NUL-padded token, at most loginTokenSize
// bytes) to an identity via the authenticator, then admits the session
// under that identity's hero id. The session object itself — and
// whatever replay history it has already accumulated — carries forward
// into the registry rather than being replaced.
func (r *Router) handleLogin(session *netio.Session, raw []byte) error {
	if len(raw) == 0 {
		return ErrEmptyFrame
	}
	if len(raw) > loginTokenSize {
		raw = raw[:loginTokenSize]
	}
	token := strings.TrimRight(string(raw), "\x00")

	identity, err := r.auth.Authenticate(context.Background(), token)
	if err != nil {
		return err
	}
	_, err = r.sessions.AdmitSession(identity.HeroID, session)
	return err
}

// handleMissingPackets serves a replay for each requested packet id
// (4-byte little-endian ids packed back to back) straight from the
// session's ring buffer, bypassing the dispatcher entirely since no
// game state needs to change.
func (r *Router) handleMissingPackets(session *netio.Session, ids []byte) error {
	const idSize = 4
	for off := 0; off+idSize <= len(ids); off += idSize {
		packetID := uint32(ids[off]) | uint32(ids[off+1])<<8 | uint32(ids[off+2])<<16 | uint32(ids[off+3])<<24
		if frame := session.Replay(packetID); frame != nil {
			session.Send(packetID, frame)
		}
	}
	return nil
}
