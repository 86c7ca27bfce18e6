// Package main runs a demo WebSocket client: it triggers an optimization run
// and prints the run events streamed for that date.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	date := os.Getenv("PLAN_DATE")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	// Connect first so no event is missed.
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/optimize/ws", RawQuery: "date=" + date}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt struct {
				Type string         `json:"type"`
				Date string         `json:"date"`
				Data map[string]any `json:"data"`
			}
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			data, _ := json.Marshal(evt.Data)
			log.Printf("WS <- %s %s: %s", evt.Type, evt.Date, data)
		}
	}()

	// Kick off a run for the date.
	body := []byte(fmt.Sprintf(`{"plannedDate":%q}`, date))
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/optimize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}
	out, _ := json.Marshal(result)
	log.Printf("optimize -> %s", out)

	// Wait briefly for the trailing events.
	select {
	case <-time.After(3 * time.Second):
	case <-done:
	}
}
