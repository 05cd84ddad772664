package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"heroworld/pkg/entity"
	"heroworld/pkg/tetra"
)

func TestWithCORSSetsHeadersAndServesRequest(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	withCORS(inner).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected the wrapped handler to run")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}

func TestWithCORSShortCircuitsPreflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight request should not reach the wrapped handler")
	})

	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	rec := httptest.NewRecorder()

	withCORS(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for OPTIONS preflight, got %d", rec.Code)
	}
}

func TestWorldStateLookupsReflectUnderlyingMaps(t *testing.T) {
	hero := entity.NewHero(7, "Aela", 1, tetra.ID{})
	w := &worldState{
		heroes: map[uint32]*entity.Hero{7: hero},
		mobs:   map[uint32]*entity.Mob{},
	}

	if got, ok := w.Hero(7); !ok || got != hero {
		t.Errorf("expected hero 7 to resolve to the seeded hero, got %+v ok=%v", got, ok)
	}
	if _, ok := w.Hero(404); ok {
		t.Error("expected an unknown hero id to miss")
	}
	if _, ok := w.Mob(1); ok {
		t.Error("expected an empty mob map to miss every id")
	}
}

func TestWorldStateSpawnMobAssignsIncrementingIDs(t *testing.T) {
	w := &worldState{mobs: map[uint32]*entity.Mob{}}

	first := w.SpawnMob(1, 1, 50, tetra.ID{Area: 1})
	second := w.SpawnMob(1, 1, 50, tetra.ID{Area: 1})

	if first.ID == 0 || second.ID != first.ID+1 {
		t.Fatalf("expected incrementing mob ids, got %d then %d", first.ID, second.ID)
	}
	if w.MobCount() != 2 {
		t.Errorf("expected 2 mobs registered, got %d", w.MobCount())
	}
	if got, ok := w.Mob(first.ID); !ok || got != first {
		t.Errorf("expected spawned mob to be retrievable, got %+v ok=%v", got, ok)
	}
}
