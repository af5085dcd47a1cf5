// Command incident-manager is a development stand-in for the incident
// management service. It dedupes incidents per decision_id like the real
// service does.
package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
)

type createRequest struct {
	DecisionID string `json:"decision_id"`
	Severity   string `json:"severity"`
	Source     string `json:"source"`
}

func main() {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":9092"
	}

	var mu sync.Mutex
	incidents := map[string]string{}

	http.HandleFunc("/v1/incidents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DecisionID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		mu.Lock()
		id, exists := incidents[req.DecisionID]
		if !exists {
			id = newUUID()
			incidents[req.DecisionID] = id
		}
		mu.Unlock()

		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
			log.Printf("incident %s created for decision %s (severity %s)", id, req.DecisionID, req.Severity)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"incident_id": id,
			"created":     !exists,
		})
	})

	log.Printf("mock incident manager listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func newUUID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
