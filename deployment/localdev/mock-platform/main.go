package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

type errorEvent struct {
	EventID        string    `json:"event_id"`
	OccurredAt     time.Time `json:"occurred_at"`
	Category       string    `json:"category"`
	Code           string    `json:"code,omitempty"`
	Severity       string    `json:"severity"`
	Endpoint       string    `json:"endpoint,omitempty"`
	UserRole       string    `json:"user_role,omitempty"`
	ResourceType   string    `json:"resource_type,omitempty"`
	ContainsPHI    bool      `json:"contains_phi"`
	ComplianceRisk bool      `json:"compliance_risk"`
	WorkflowStage  string    `json:"workflow_stage,omitempty"`
}

// archiveStore keeps everything the engine posts so developers can inspect
// what would have reached the compliance archive.
type archiveStore struct {
	mu       sync.Mutex
	patterns []json.RawMessage
	outcomes []json.RawMessage
	snapshot json.RawMessage
}

func main() {
	store := &archiveStore{}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/errors/recent", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		now := time.Now().UTC()
		writeJSON(w, map[string]any{
			"events": []errorEvent{
				{
					EventID:        "mock-evt-001",
					OccurredAt:     now.Add(-8 * time.Minute),
					Category:       "unauthorized_data_access",
					Code:           "AUTHZ-403",
					Severity:       "critical",
					Endpoint:       "/api/patients/12345/records",
					UserRole:       "billing_clerk",
					ResourceType:   "patient_record",
					ContainsPHI:    true,
					ComplianceRisk: true,
					WorkflowStage:  "chart_review",
				},
				{
					EventID:       "mock-evt-002",
					OccurredAt:    now.Add(-6 * time.Minute),
					Category:      "database_error",
					Code:          "DB-CONN-RESET",
					Severity:      "high",
					Endpoint:      "/api/orders",
					ResourceType:  "lab_order",
					WorkflowStage: "order_entry",
				},
				{
					EventID:       "mock-evt-003",
					OccurredAt:    now.Add(-4 * time.Minute),
					Category:      "batch_failure",
					Code:          "CLAIMS-EXPORT-17",
					Severity:      "medium",
					Endpoint:      "/jobs/claims-export",
					ResourceType:  "claim",
					WorkflowStage: "billing",
				},
				{
					EventID:       "mock-evt-004",
					OccurredAt:    now.Add(-2 * time.Minute),
					Category:      "network_timeout",
					Code:          "GW-504",
					Severity:      "low",
					Endpoint:      "/api/schedule",
					ResourceType:  "appointment",
					WorkflowStage: "scheduling",
				},
			},
		})
	})

	mux.HandleFunc("/v1/archive/patterns", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		body := readBody(w, r)
		if body == nil {
			return
		}
		store.mu.Lock()
		store.patterns = append(store.patterns, body)
		store.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/v1/archive/outcomes", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		body := readBody(w, r)
		if body == nil {
			return
		}
		store.mu.Lock()
		store.outcomes = append(store.outcomes, body)
		store.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/v1/archive/snapshot", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			body := readBody(w, r)
			if body == nil {
				return
			}
			store.mu.Lock()
			store.snapshot = body
			store.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			store.mu.Lock()
			snapshot := store.snapshot
			store.mu.Unlock()
			if snapshot == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(snapshot)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	logger := log.New(log.Writer(), "platform-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8080",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8080")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) json.RawMessage {
	defer r.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}
	return raw
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
