// Package netio owns client transport: UDP datagram demuxing, a
// WebSocket listener, session admission, idle timeouts, per-IP rate
// limiting, and short-term packet replay for clients that report gaps.
package netio

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// MaxSessions bounds the admission slot array. A rejected connection
// attempt beyond this gets a synthetic refusal, never a panic or an
// unbounded map.
const MaxSessions = 4096

// ReplayWindow is the number of recently sent frames kept per session so
// a client reporting MissingPackets can be served a short replay rather
// than a full resync.
const ReplayWindow = 8

// Transport identifies which physical channel a session uses.
type Transport uint8

const (
	TransportUDP Transport = iota
	TransportWS
)

// Sender abstracts a UDP remote-addr send or a WebSocket frame write
// behind one non-blocking interface.
type Sender interface {
	Send(frame []byte) error
}

// udpSender writes to a fixed remote address over a shared UDP socket.
type udpSender struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

func (s *udpSender) Send(frame []byte) error {
	_, err := s.conn.WriteToUDP(frame, s.addr)
	return err
}

// replayRing is a fixed-size ring buffer of the last ReplayWindow frames
// sent to a session, keyed by packet id for MissingPackets lookups.
type replayRing struct {
	mu   sync.Mutex
	ids  [ReplayWindow]uint32
	data [ReplayWindow][]byte
	next int
}

func (r *replayRing) record(id uint32, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[r.next] = id
	r.data[r.next] = frame
	r.next = (r.next + 1) % ReplayWindow
}

// lookup returns the frame for packetID if it is still within the
// window, or nil if it has already scrolled out.
func (r *replayRing) lookup(packetID uint32) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ids {
		if r.ids[i] == packetID && r.data[i] != nil {
			return r.data[i]
		}
	}
	return nil
}

// Session is one admitted client: its transport sender, last-seen clock
// for idle eviction, and outbound replay ring.
type Session struct {
	HeroID    uint32
	Transport Transport
	sender    Sender
	lastSeen  int64 // unix nanos, atomic
	replay    replayRing
}

// NewSession constructs a session bound to a transport sender, used for
// both admitted and transient (pre-admission) sessions.
func NewSession(sender Sender, transport Transport) *Session {
	s := &Session{sender: sender, Transport: transport}
	s.Touch(time.Now())
	return s
}

// Touch records activity now, resetting the idle timer.
func (s *Session) Touch(now time.Time) {
	atomic.StoreInt64(&s.lastSeen, now.UnixNano())
}

// IdleFor reports how long it's been since the session was last heard
// from.
func (s *Session) IdleFor(now time.Time) time.Duration {
	last := atomic.LoadInt64(&s.lastSeen)
	return now.Sub(time.Unix(0, last))
}

// Send delivers a frame to the client and records it in the replay ring.
func (s *Session) Send(packetID uint32, frame []byte) error {
	s.replay.record(packetID, frame)
	return s.sender.Send(frame)
}

// Replay returns a previously sent frame by packet id, for responding to
// a client's MissingPackets request.
func (s *Session) Replay(packetID uint32) []byte {
	return s.replay.lookup(packetID)
}

// Registry is the table of admitted sessions, keyed by hero id.
// A lock-free slot array isn't used here (unlike the spec's original
// loggedInPlayers idiom) because hero ids aren't dense small integers;
// a mutex-guarded map over MaxSessions entries gives the same admission
// bound with simpler code.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint32]*Session
	limiters map[string]*rate.Limiter
	limitMu  sync.Mutex
	rps      float64
	burst    int
}

// NewRegistry constructs an empty session registry with the given
// per-IP rate limit.
func NewRegistry(ratePerSec float64, burst int) *Registry {
	return &Registry{
		sessions: make(map[uint32]*Session),
		limiters: make(map[string]*rate.Limiter),
		rps:      ratePerSec,
		burst:    burst,
	}
}

// ErrSessionsFull is returned by Admit once MaxSessions are seated.
type admitError string

func (e admitError) Error() string { return string(e) }

const ErrSessionsFull = admitError("netio: session table full")
const ErrAlreadyLoggedIn = admitError("netio: hero already has an active session")

// Admit seats a new session for heroID, rejecting duplicates and
// enforcing MaxSessions.
func (r *Registry) Admit(heroID uint32, transport Transport, sender Sender) (*Session, error) {
	return r.admitLocked(heroID, NewSession(sender, transport))
}

// AdmitSession seats an already-constructed session (typically the
// transient, pre-login session a transport handed the decoder) under
// heroID, rejecting duplicates and enforcing MaxSessions exactly like
// Admit. Used once a client's login token resolves an identity, so the
// session object a client has been exchanging packets on — and its
// replay ring — carries forward into the admitted table instead of
// being replaced.
func (r *Registry) AdmitSession(heroID uint32, s *Session) (*Session, error) {
	return r.admitLocked(heroID, s)
}

func (r *Registry) admitLocked(heroID uint32, s *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[heroID]; exists {
		return nil, ErrAlreadyLoggedIn
	}
	if len(r.sessions) >= MaxSessions {
		return nil, ErrSessionsFull
	}
	s.HeroID = heroID
	r.sessions[heroID] = s
	return s, nil
}

// Remove evicts a session, as happens on disconnect or idle timeout.
func (r *Registry) Remove(heroID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, heroID)
}

// Get returns the session for a hero, if any.
func (r *Registry) Get(heroID uint32) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[heroID]
	return s, ok
}

// Count returns the number of admitted sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Allow reports whether a command from the given remote IP should be
// accepted under the per-IP rate limit, creating a limiter for unseen
// IPs on first use.
func (r *Registry) Allow(ip string) bool {
	r.limitMu.Lock()
	limiter, ok := r.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.rps), r.burst)
		r.limiters[ip] = limiter
	}
	r.limitMu.Unlock()
	return limiter.Allow()
}

// SweepIdle evicts every session idle longer than timeout, returning the
// hero ids evicted so the caller can enqueue synthetic disconnect
// commands for them.
func (r *Registry) SweepIdle(timeout time.Duration) []uint32 {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []uint32
	for id, s := range r.sessions {
		if s.IdleFor(now) > timeout {
			evicted = append(evicted, id)
			delete(r.sessions, id)
		}
	}
	return evicted
}
