package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchStatusParsesServerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(statusResponse{
			TickRateHz:      10,
			ConnectedHeroes: 3,
			QueueDepthHero:  2,
		})
	}))
	defer srv.Close()

	orig := ServerURL
	ServerURL = srv.URL
	defer func() { ServerURL = orig }()

	s, err := fetchStatus()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TickRateHz != 10 || s.ConnectedHeroes != 3 || s.QueueDepthHero != 2 {
		t.Errorf("unexpected status: %+v", s)
	}
}

func TestFetchStatusReportsUnreachableServer(t *testing.T) {
	orig := ServerURL
	ServerURL = "http://127.0.0.1:1"
	defer func() { ServerURL = orig }()

	if _, err := fetchStatus(); err == nil {
		t.Error("expected an error contacting an unreachable server")
	}
}
