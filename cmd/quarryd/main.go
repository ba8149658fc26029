// Command quarryd is a thin HTTP front end around the query splitter. It
// does not expose a /query endpoint: the SPARQL parser that yields the
// initial algebra tree lives with the embedding service, so there is
// nothing here to hand raw query text to. What it does expose is the
// operational surface a deployed instance needs: health/readiness for a
// load balancer or orchestrator, and a version string for support
// requests.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/prediktor/quarry/rdfstore"
)

var (
	addr        = flag.String("addr", ":8080", "listen address")
	rdfEndpoint = flag.String("rdf-endpoint", "", "SPARQL 1.1 Protocol endpoint URL used for the health check's round trip")
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	flag.Parse()

	var ep rdfstore.Endpoint
	if *rdfEndpoint != "" {
		ep = rdfstore.NewHTTPEndpoint(*rdfEndpoint)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/version", versionHandler)
	mux.HandleFunc("/healthz", healthzHandler(ep))

	log.Printf("[%v] quarryd %s listening on %s", time.Now(), version, *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("[%v] quarryd exited: %v", time.Now(), err)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": version})
}

// healthzHandler reports ok unconditionally when no RDF endpoint was
// configured (library-only deployments embedding quarry.Execute directly
// have no endpoint to probe here), otherwise it round-trips a trivial
// SELECT against the configured endpoint.
func healthzHandler(ep rdfstore.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ep == nil {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
			return
		}
		if _, err := ep.Select(r.Context(), "SELECT * WHERE { ?s ?p ?o } LIMIT 1"); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
