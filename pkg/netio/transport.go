package netio

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MaxDatagramSize is the largest UDP payload accepted per receive, sized
// to stay clear of typical path MTU fragmentation.
const MaxDatagramSize = 1200

// udpPendingTimeout bounds how long a UDP source address may go quiet
// before its session entry is dropped, so a client that never logs in
// (or stops sending) doesn't leak an entry forever.
const udpPendingTimeout = 30 * time.Second

// udpClientTable keys a Session by UDP source address so a client's
// datagrams share one session — and its replay ring and admitted
// identity — across packets, instead of each packet getting its own
// throwaway Session. An entry, admitted or not, is pruned once it idles
// past udpPendingTimeout.
type udpClientTable struct {
	mu     sync.Mutex
	byAddr map[string]*Session
}

func newUDPClientTable() *udpClientTable {
	return &udpClientTable{byAddr: make(map[string]*Session)}
}

func (t *udpClientTable) sessionFor(addr *net.UDPAddr, sender Sender) *Session {
	key := addr.String()
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byAddr[key]; ok {
		return s
	}
	s := NewSession(sender, TransportUDP)
	t.byAddr[key] = s
	return s
}

// sweepIdle drops any entry that has gone quiet past udpPendingTimeout,
// whether or not it ever admitted; an active admitted client keeps its
// session, and so its identity and replay ring, between sweeps.
func (t *udpClientTable) sweepIdle(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, s := range t.byAddr {
		if s.IdleFor(now) > udpPendingTimeout {
			delete(t.byAddr, key)
		}
	}
}

// Decoder is supplied by the protocol package: turns a raw client
// payload plus its originating session into zero or more queued
// commands. Returning an error drops the datagram and logs it, per the
// error-handling policy — one bad client never takes down the receive
// loop.
type Decoder func(session *Session, raw []byte) error

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeUDP runs the UDP receive loop until ctx is cancelled. Each source
// address gets one Session out of clients, reused across every datagram
// from that address until it idles out, so a login's resulting identity
// and replay ring survive between packets instead of being rebuilt per
// packet.
func ServeUDP(ctx context.Context, conn *net.UDPConn, registry *Registry, decode Decoder) {
	clients := newUDPClientTable()
	sweep := time.NewTicker(udpPendingTimeout)
	defer sweep.Stop()

	buf := make([]byte, MaxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			clients.sweepIdle(time.Now())
			continue
		default:
		}
		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			log.Printf("netio: udp read error: %v", err)
			continue
		}
		if !registry.Allow(addr.IP.String()) {
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		go dispatchUDP(clients, conn, addr, payload, decode)
	}
}

func dispatchUDP(clients *udpClientTable, conn *net.UDPConn, addr *net.UDPAddr, payload []byte, decode Decoder) {
	sender := &udpSender{conn: conn, addr: addr}
	session := clients.sessionFor(addr, sender)
	session.Touch(time.Now())
	if err := decode(session, payload); err != nil {
		log.Printf("netio: udp decode error from %s: %v", addr, err)
	}
}

// wsSender adapts a gorilla/websocket connection to Sender, guarding
// concurrent writes with a mutex since gorilla connections are not
// safe for concurrent writers.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// ServeWS upgrades incoming HTTP requests to WebSocket and runs a
// read pump per connection, mirroring the UDP decode path so the
// protocol layer doesn't need to know which transport carried a
// command.
func ServeWS(registry *Registry, decode Decoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("netio: websocket upgrade error: %v", err)
			return
		}
		go readPumpWS(conn, registry, decode)
	}
}

func readPumpWS(conn *websocket.Conn, registry *Registry, decode Decoder) {
	defer conn.Close()
	sender := &wsSender{conn: conn}
	session := NewSession(sender, TransportWS)
	defer func() {
		if session.HeroID != 0 {
			registry.Remove(session.HeroID)
		}
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		session.Touch(time.Now())
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if err := decode(session, message); err != nil {
			log.Printf("netio: ws decode error: %v", err)
		}
	}
}
