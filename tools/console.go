// Command console is a small operator CLI for polling a running
// heroworld server's status dashboard from a terminal, without needing
// a browser or a game client.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var ServerURL = "http://localhost:11005"

type statusResponse struct {
	TickRateHz      uint16 `json:"TickRateHz"`
	ConnectedHeroes uint16 `json:"ConnectedHeroes"`
	ActiveMobs      uint16 `json:"ActiveMobs"`
	ActiveBattles   uint16 `json:"ActiveBattles"`
	QueueDepthHero  uint16 `json:"QueueDepthHero"`
	QueueDepthMob   uint16 `json:"QueueDepthMob"`
	QueueDepthTile  uint16 `json:"QueueDepthTile"`
	QueueDepthTower uint16 `json:"QueueDepthTower"`
	QueueDepthChat  uint16 `json:"QueueDepthChat"`
	UptimeMinutes   uint16 `json:"UptimeMinutes"`
}

func main() {
	if url := os.Getenv("HEROWORLD_SERVER"); url != "" {
		ServerURL = url
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("heroworld operator console")
	fmt.Printf("Target server: %s\n", ServerURL)
	fmt.Println("Commands: status, watch, help, quit")

	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch text {
		case "status":
			printStatus()
		case "watch":
			watchStatus(reader)
		case "help":
			fmt.Println("  status  - fetch the server's current tick/queue snapshot once")
			fmt.Println("  watch   - poll status every 2 seconds until Enter is pressed")
			fmt.Println("  quit    - exit")
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command, type 'help' for options")
		}
	}
}

func fetchStatus() (statusResponse, error) {
	var s statusResponse
	resp, err := http.Get(ServerURL + "/status")
	if err != nil {
		return s, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(body, &s)
	return s, err
}

func printStatus() {
	s, err := fetchStatus()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	uptime := humanize.RelTime(time.Now().Add(-time.Duration(s.UptimeMinutes)*time.Minute), time.Now(), "ago", "")
	fmt.Printf("tick=%dHz heroes=%d mobs=%d battles=%d up %s\n",
		s.TickRateHz, s.ConnectedHeroes, s.ActiveMobs, s.ActiveBattles, uptime)
	fmt.Printf("lanes: hero=%d mob=%d tile=%d tower=%d chat=%d\n",
		s.QueueDepthHero, s.QueueDepthMob, s.QueueDepthTile, s.QueueDepthTower, s.QueueDepthChat)
}

// watchStatus polls the dashboard on an interval until the operator hits
// enter again, giving a crude live view without a browser.
func watchStatus(reader *bufio.Reader) {
	fmt.Println("watching (press Enter to stop)...")
	stop := make(chan struct{})
	go func() {
		reader.ReadString('\n')
		close(stop)
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			printStatus()
		}
	}
}
