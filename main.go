package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"heroworld/pkg/accounts"
	"heroworld/pkg/config"
	"heroworld/pkg/core"
	"heroworld/pkg/delayed"
	"heroworld/pkg/dispatch"
	"heroworld/pkg/entity"
	"heroworld/pkg/netio"
	"heroworld/pkg/pack"
	"heroworld/pkg/persist"
	"heroworld/pkg/protocol"
	"heroworld/pkg/queue"
	"heroworld/pkg/subscribe"
	"heroworld/pkg/tetra"
)

var (
	InfoLog  *log.Logger
	ErrorLog *log.Logger
)

func setupLogging() {
	logDir := "./logs"
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		os.Mkdir(logDir, 0755)
	}
	fInfo, _ := os.OpenFile(filepath.Join(logDir, "server.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	fErr, _ := os.OpenFile(filepath.Join(logDir, "error.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	InfoLog = log.New(fInfo, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(fErr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// laneCapacity bounds each subsystem lane independent of the client cap;
// unlike MaxClients this is an internal tuning knob, not operator config.
const laneCapacity = 512

// worldState is the in-memory store the dispatcher resolves attacks
// against. A production deployment would back this with the region-locked
// hero/tile maps loaded via pkg/regionsrc; this is the minimal wiring
// that satisfies dispatch.World for the command loop below.
type worldState struct {
	mu      sync.Mutex
	heroes  map[uint32]*entity.Hero
	mobs    map[uint32]*entity.Mob
	tiles   map[tetra.ID]*entity.Tile
	towers  map[tetra.ID]*entity.Tower
	battles map[uint32]*entity.Battle
	nextMob uint32
}

func (w *worldState) Hero(id uint32) (*entity.Hero, bool)   { h, ok := w.heroes[id]; return h, ok }
func (w *worldState) Mob(id uint32) (*entity.Mob, bool)     { m, ok := w.mobs[id]; return m, ok }
func (w *worldState) Tile(id tetra.ID) (*entity.Tile, bool) { t, ok := w.tiles[id]; return t, ok }
func (w *worldState) Tower(id tetra.ID) (*entity.Tower, bool) {
	t, ok := w.towers[id]
	return t, ok
}
func (w *worldState) Battle(id uint32) (*entity.Battle, bool) {
	b, ok := w.battles[id]
	return b, ok
}

// SpawnMob assigns the next mob id and registers a fresh mob at the
// given tile; called only from the dispatcher's single tick goroutine,
// so the counter needs no atomic access, but the mutex guards against
// the status endpoint's concurrent MobCount read.
func (w *worldState) SpawnMob(kind uint8, level uint8, maxHealth uint16, at tetra.ID) *entity.Mob {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextMob++
	m := entity.NewMob(w.nextMob, kind, level, maxHealth, at)
	w.mobs[w.nextMob] = m
	return m
}

// MobCount reports the live mob count for the /status endpoint.
func (w *worldState) MobCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.mobs)
}

func main() {
	setupLogging()
	cfg, err := config.Load()
	if err != nil {
		ErrorLog.Fatalf("config: %v", err)
	}
	cfg.LogSummary()

	instanceID := uuid.NewString()
	InfoLog.Printf("boot instance %s", instanceID)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		ErrorLog.Fatalf("identity: %v", err)
	}
	identityProof := core.Sign(priv, pub)
	InfoLog.Printf("server identity %x proof %x", pub, identityProof)

	store, err := persist.OpenSQLiteStore(cfg.DBPath)
	if err != nil {
		ErrorLog.Fatalf("persist: %v", err)
	}
	defer store.Close()

	heroQueue := persist.NewQueue("hero", store, time.Duration(cfg.HeroFlushSecs)*time.Second)
	tileQueue := persist.NewQueue("tile", store, time.Duration(cfg.TileFlushSecs)*time.Second)
	towerQueue := persist.NewQueue("tower", store, time.Duration(cfg.TowerFlushSecs)*time.Second)

	world := &worldState{
		heroes:  map[uint32]*entity.Hero{},
		mobs:    map[uint32]*entity.Mob{},
		tiles:   map[tetra.ID]*entity.Tile{},
		towers:  map[tetra.ID]*entity.Tower{},
		battles: map[uint32]*entity.Battle{},
	}

	lanes := queue.NewRouter(laneCapacity)
	scheduler := delayed.NewScheduler()
	dispatcher := dispatch.NewDispatcher(lanes, scheduler, world, heroQueue, tileQueue, towerQueue)

	sessions := netio.NewRegistry(cfg.RateLimitPerSec, cfg.RateLimitBurst)
	watchers := subscribe.NewRegistry()
	// StaticAuthenticator with no preloaded tokens is the local-dev/test
	// identity provider; a real deployment swaps in one backed by its own
	// account store (see pkg/accounts doc comment).
	auth := accounts.NewStaticAuthenticator(nil)
	router := protocol.NewRouter(lanes, sessions, auth)

	var packetSeq uint32
	dispatcher.OnTick(func() {
		packetSeq++
		fanOutTick(dispatcher, world, watchers, packetSeq)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tickInterval := time.Duration(cfg.TickMillis) * time.Millisecond
	go dispatcher.Run(ctx, tickInterval)
	go heroQueue.Run(ctx)
	go tileQueue.Run(ctx)
	go towerQueue.Run(ctx)

	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.UDPPort})
	if err != nil {
		ErrorLog.Fatalf("udp listen: %v", err)
	}
	go netio.ServeUDP(ctx, udpConn, sessions, router.Decode)

	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", netio.ServeWS(sessions, router.Decode))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		depths := lanes.Depths()
		status := entity.ServerStatus{
			TickRateHz:      uint16(time.Second / tickInterval),
			ConnectedHeroes: uint16(sessions.Count()),
			ActiveMobs:      uint16(world.MobCount()),
			ActiveBattles:   0,
			QueueDepthHero:  depths[queue.Hero],
			QueueDepthMob:   depths[queue.Mob],
			QueueDepthTile:  depths[queue.Tile],
			QueueDepthTower: depths[queue.Tower],
			QueueDepthChat:  depths[queue.Chat],
			UptimeMinutes:   uint16(time.Since(startedAt) / time.Minute),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	handler := withCORS(mux)

	wsAddr := fmt.Sprintf(":%d", cfg.WSPort)
	server := &http.Server{
		Addr:         wsAddr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	idleTimeout := time.Duration(cfg.IdleTimeoutSecs) * time.Second
	go func() {
		sweeper := time.NewTicker(idleTimeout)
		defer sweeper.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sweeper.C:
				for _, id := range sessions.SweepIdle(idleTimeout) {
					InfoLog.Printf("evicted idle session for hero %d", id)
					watchers.Remove(id)
					evicted := &netio.Session{HeroID: id}
					lanes.Lane(queue.Hero).TryEnqueue(queue.Command{
						Session: evicted,
						Kind:    uint8(protocol.TagDisconnect),
					})
				}
			}
		}
	}()

	InfoLog.Printf("heroworld listening on %s (udp %d)", wsAddr, cfg.UDPPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		InfoLog.Println("shutdown requested")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ErrorLog.Fatal(err)
	}
}

// fanOutTick packs everything the dispatcher resolved this tick into a
// single frame and fans it out to every watcher whose watch set covers
// one of the touched regions, plus a per-faction pass for chat (which
// carries no tile of its own). One shared frame keeps the common case —
// a quiet tick with a couple of results — to one Builder/Finish pair
// instead of one per recipient.
func fanOutTick(d *dispatch.Dispatcher, world *worldState, watchers *subscribe.Registry, packetSeq uint32) {
	if len(d.Results) == 0 && len(d.Presentations) == 0 && len(d.Rewards) == 0 && len(d.ChatEntries) == 0 {
		return
	}

	timestamp := uint32(time.Now().UnixMilli())
	b := pack.NewBuilder(packetSeq, timestamp)
	regions := map[tetra.ID]struct{}{}

	for _, res := range d.Results {
		payload := make([]byte, entity.AttackResultPayloadSize)
		res.Encode(payload)
		if err := b.Add(pack.Entry{Type: entity.DataAttackResult, Payload: payload}); err != nil {
			InfoLog.Printf("fanout: dropped attack result: %v", err)
			break
		}
		regions[res.Tile.Region()] = struct{}{}
	}
	for _, p := range d.Presentations {
		payload := make([]byte, entity.PresentationPayloadSize)
		p.Encode(payload)
		if err := b.Add(pack.Entry{Type: entity.DataPresentation, Payload: payload}); err != nil {
			InfoLog.Printf("fanout: dropped presentation: %v", err)
			break
		}
		regions[p.Tile.Region()] = struct{}{}
	}
	for _, rw := range d.Rewards {
		payload := make([]byte, entity.RewardPayloadSize)
		rw.Encode(payload)
		if err := b.Add(pack.Entry{Type: entity.DataReward, Payload: payload}); err != nil {
			InfoLog.Printf("fanout: dropped reward: %v", err)
			break
		}
		if hero, ok := world.Hero(rw.HeroID); ok {
			regions[hero.Tile.Region()] = struct{}{}
		}
	}

	factions := map[uint8]struct{}{}
	for _, c := range d.ChatEntries {
		payload := make([]byte, entity.ChatEntryPayloadSize)
		c.Encode(payload)
		if err := b.Add(pack.Entry{Type: entity.DataChatMessage, Payload: payload}); err != nil {
			InfoLog.Printf("fanout: dropped chat entry: %v", err)
			break
		}
		if hero, ok := world.Hero(c.SenderID); ok {
			factions[hero.Faction] = struct{}{}
		}
	}

	frame, err := b.Finish()
	if err != nil {
		InfoLog.Printf("fanout: frame build failed: %v", err)
		return
	}

	for region := range regions {
		watchers.FanOutRegion(region, frame)
	}
	for faction := range factions {
		watchers.FanOutFaction(faction, frame)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
