package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/logger"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/state"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/vault"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the vault's read model over HTTP.
type WebServer struct {
	router *mux.Router
	port   string
	vault  *vault.Vault

	// withDB gates the endpoints backed by persisted cycle history.
	withDB bool
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, v *vault.Vault, withDB bool) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		vault:  v,
		withDB: withDB,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/vault/summary", ws.handleGetVaultSummary).Methods("GET")
	api.HandleFunc("/vault/profit-unlock", ws.handleGetProfitUnlock).Methods("GET")
	api.HandleFunc("/strategies", ws.handleGetStrategies).Methods("GET")
	api.HandleFunc("/holders/{address}", ws.handleGetHolder).Methods("GET")
	api.HandleFunc("/reports", ws.handleGetReports).Methods("GET")
	api.HandleFunc("/debt-receipts", ws.handleGetDebtReceipts).Methods("GET")
	api.HandleFunc("/snapshots", ws.handleGetSnapshots).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false
	dbHealthy := true
	if ws.withDB {
		if err := state.TestDBConnection(); err != nil {
			dbHealthy = false
			hasErrors = true
		}
	}

	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"vault_status": map[string]interface{}{
			"name":             ws.vault.Name(),
			"is_shutdown":      ws.vault.IsShutdown(),
			"database_healthy": dbHealthy,
		},
	}

	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetVaultSummary returns the live vault snapshot plus share pricing.
func (ws *WebServer) handleGetVaultSummary(w http.ResponseWriter, r *http.Request) {
	snapshot := ws.vault.Snapshot()
	response := map[string]interface{}{
		"snapshot":        snapshot,
		"price_per_share": ws.vault.PricePerShare(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetProfitUnlock returns the profit unlock scheduler state.
func (ws *WebServer) handleGetProfitUnlock(w http.ResponseWriter, r *http.Request) {
	fullUnlockDate, rate, locked := ws.vault.ProfitUnlockInfo()
	response := map[string]interface{}{
		"full_unlock_date": fullUnlockDate,
		"rate_per_second":  rate,
		"locked_shares":    locked,
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetStrategies returns every active strategy with its live valuation.
func (ws *WebServer) handleGetStrategies(w http.ResponseWriter, r *http.Request) {
	strategies := ws.vault.Strategies()
	response := map[string]interface{}{
		"strategies":    strategies,
		"count":         len(strategies),
		"default_queue": ws.vault.DefaultQueue(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetHolder returns one holder's share position and custody state.
func (ws *WebServer) handleGetHolder(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Holder address is required")
		return
	}

	response := map[string]interface{}{
		"address":         address,
		"balance":         ws.vault.BalanceOf(address),
		"unlocked_shares": ws.vault.UnlockedShares(address),
		"max_withdraw":    ws.vault.MaxWithdraw(address),
		"max_redeem":      ws.vault.MaxRedeem(address),
	}
	if custody, ok := ws.vault.CustodyInfo(address); ok {
		response["custody"] = custody
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetReports returns recent persisted report assessments.
func (ws *WebServer) handleGetReports(w http.ResponseWriter, r *http.Request) {
	if !ws.withDB {
		ws.writeErrorResponse(w, http.StatusNotImplemented, "Cycle history persistence is disabled")
		return
	}
	reports, err := state.GetRecentReports(ws.parseLimit(r))
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent reports")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	response := map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetDebtReceipts returns recent persisted rebalance outcomes.
func (ws *WebServer) handleGetDebtReceipts(w http.ResponseWriter, r *http.Request) {
	if !ws.withDB {
		ws.writeErrorResponse(w, http.StatusNotImplemented, "Cycle history persistence is disabled")
		return
	}
	receipts, err := state.GetRecentDebtReceipts(ws.parseLimit(r))
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent debt receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve debt receipts")
		return
	}

	response := map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetSnapshots returns recent persisted vault snapshots.
func (ws *WebServer) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	if !ws.withDB {
		ws.writeErrorResponse(w, http.StatusNotImplemented, "Cycle history persistence is disabled")
		return
	}
	snapshots, err := state.GetRecentSnapshots(ws.parseLimit(r))
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent snapshots")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve snapshots")
		return
	}

	response := map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// parseLimit reads the limit query parameter, bounded to [1, 100].
func (ws *WebServer) parseLimit(r *http.Request) int {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}
	return limit
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
