// Command model-registry is a development stand-in for the model registry
// service. It answers GET /v1/models/{id} from a fixed allow-list.
package main

import (
	"log"
	"net/http"
	"os"
	"strings"
)

var knownModels = map[string]bool{
	"credit-scorer":     true,
	"fraud-detector":    true,
	"content-moderator": true,
}

func main() {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":9091"
	}

	http.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		modelID := strings.TrimPrefix(r.URL.Path, "/v1/models/")
		if knownModels[modelID] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	log.Printf("mock model registry listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
