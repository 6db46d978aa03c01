package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockTokenServer simulates the remote signing token server
type MockTokenServer struct {
	server       *httptest.Server
	requestCount int32
	healthy      int32
	apiKey       string

	mu       sync.Mutex
	xsCommon string
	// expiry handed out with every X-S-Common token
	expiresIn time.Duration
}

// NewMockTokenServer creates a token server accepting the given API key
func NewMockTokenServer(apiKey string) *MockTokenServer {
	m := &MockTokenServer{
		apiKey:    apiKey,
		xsCommon:  "mock-xs-common",
		expiresIn: time.Hour,
	}
	atomic.StoreInt32(&m.healthy, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/api/v1/tokens/xs", m.handleXS)
	mux.HandleFunc("/api/v1/tokens/xs-common", m.handleXSCommon)
	mux.HandleFunc("/api/v1/stats", m.handleStats)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the mock server's base URL
func (m *MockTokenServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server
func (m *MockTokenServer) Close() {
	m.server.Close()
}

// SetHealthy controls the health endpoint
func (m *MockTokenServer) SetHealthy(healthy bool) {
	if healthy {
		atomic.StoreInt32(&m.healthy, 1)
	} else {
		atomic.StoreInt32(&m.healthy, 0)
	}
}

// RequestCount returns how many token requests were served
func (m *MockTokenServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

func (m *MockTokenServer) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+m.apiKey
}

func (m *MockTokenServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&m.healthy) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (m *MockTokenServer) handleXS(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"x_s": "XYW_" + strings.ReplaceAll(req.Endpoint, "/", "_"),
		"x_t": time.Now().UnixMilli(),
	})
}

func (m *MockTokenServer) handleXSCommon(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	m.mu.Lock()
	token := m.xsCommon
	expiresAt := time.Now().Add(m.expiresIn).UnixMilli()
	m.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]interface{}{
		"x_s_common": token,
		"expires_at": expiresAt,
	})
}

func (m *MockTokenServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tokens_generated": m.RequestCount(),
		"uptime_seconds":   3600,
	})
}

// MockXHSServer simulates the XiaoHongShu web API with paginated canned data
type MockXHSServer struct {
	server       *httptest.Server
	requestCount int32

	mu             sync.RWMutex
	errorResponses map[string]int // endpoint -> HTTP status
	failureCodes   map[string]int // endpoint -> envelope failure code
	notesPerPage   int
	totalNotes     int
	commentsByNote map[string][]map[string]interface{}
}

// NewMockXHSServer creates a mock web API server
func NewMockXHSServer() *MockXHSServer {
	m := &MockXHSServer{
		errorResponses: make(map[string]int),
		failureCodes:   make(map[string]int),
		notesPerPage:   5,
		totalNotes:     12,
		commentsByNote: make(map[string][]map[string]interface{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sns/web/v1/homefeed", m.handleHomefeed)
	mux.HandleFunc("/api/sns/web/v1/search/notes", m.handleSearch)
	mux.HandleFunc("/api/sns/web/v2/comment/page", m.handleComments)
	mux.HandleFunc("/api/sns/web/v1/feed", m.handleFeed)
	mux.HandleFunc("/api/sns/web/v1/user_posted", m.handleUserPosted)
	mux.HandleFunc("/api/sns/web/v1/user/otherinfo", m.handleUserInfo)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the mock server's base URL
func (m *MockXHSServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server
func (m *MockXHSServer) Close() {
	m.server.Close()
}

// RequestCount returns how many API requests were served
func (m *MockXHSServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// SetErrorResponse makes an endpoint answer with an HTTP error status
func (m *MockXHSServer) SetErrorResponse(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[endpoint] = status
}

// SetFailureCode makes an endpoint answer with a failure envelope
func (m *MockXHSServer) SetFailureCode(endpoint string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failureCodes[endpoint] = code
}

// SetComments seeds canned comments for a note
func (m *MockXHSServer) SetComments(noteID string, contents ...string) {
	comments := make([]map[string]interface{}, 0, len(contents))
	for i, content := range contents {
		comments = append(comments, map[string]interface{}{
			"id":      fmt.Sprintf("%s-c%d", noteID, i+1),
			"content": content,
			"user_info": map[string]string{
				"user_id":  fmt.Sprintf("u%d", i+1),
				"nickname": fmt.Sprintf("commenter %d", i+1),
			},
			"like_count": "3",
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentsByNote[noteID] = comments
}

// checkSignature rejects requests missing the signing headers, which is
// what the real API does with unsigned traffic
func (m *MockXHSServer) checkSignature(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-S") == "" || r.Header.Get("X-T") == "" {
		writeEnvelopeFailure(w, 461, "unsigned request")
		return false
	}
	return true
}

// intercept applies configured error injection; reports true when handled
func (m *MockXHSServer) intercept(w http.ResponseWriter, endpoint string) bool {
	m.mu.RLock()
	status := m.errorResponses[endpoint]
	code := m.failureCodes[endpoint]
	m.mu.RUnlock()

	if status > 0 {
		w.WriteHeader(status)
		return true
	}
	if code != 0 {
		writeEnvelopeFailure(w, code, "injected failure")
		return true
	}
	return false
}

func (m *MockXHSServer) handleHomefeed(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !m.checkSignature(w, r) {
		return
	}
	if m.intercept(w, "/api/sns/web/v1/homefeed") {
		return
	}

	var req struct {
		CursorScore string `json:"cursor_score"`
		Num         int    `json:"num"`
		NoteIndex   int    `json:"note_index"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	start := req.NoteIndex
	items := m.noteItems("hf", start, req.Num)

	cursor := ""
	if start+len(items) < m.totalNotes {
		cursor = fmt.Sprintf("cursor-%d", start+len(items))
	}

	writeEnvelopeSuccess(w, map[string]interface{}{
		"cursor_score": cursor,
		"items":        items,
	})
}

func (m *MockXHSServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !m.checkSignature(w, r) {
		return
	}
	if m.intercept(w, "/api/sns/web/v1/search/notes") {
		return
	}

	var req struct {
		Keyword  string `json:"keyword"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
		SearchID string `json:"search_id"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.PageSize != 20 {
		writeEnvelopeFailure(w, -1, "page_size must be 20")
		return
	}
	if req.SearchID == "" {
		writeEnvelopeFailure(w, -1, "search_id is required")
		return
	}

	start := (req.Page - 1) * m.notesPerPage
	items := m.noteItems("s", start, m.notesPerPage)

	writeEnvelopeSuccess(w, map[string]interface{}{
		"has_more": start+len(items) < m.totalNotes,
		"items":    items,
	})
}

func (m *MockXHSServer) handleComments(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !m.checkSignature(w, r) {
		return
	}
	if m.intercept(w, "/api/sns/web/v2/comment/page") {
		return
	}

	var req struct {
		NoteID string `json:"note_id"`
		Cursor string `json:"cursor"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	m.mu.RLock()
	comments, ok := m.commentsByNote[req.NoteID]
	m.mu.RUnlock()

	if !ok {
		writeEnvelopeFailure(w, -510001, "note not found")
		return
	}

	// Serve two comments per page
	start := 0
	fmt.Sscanf(req.Cursor, "c%d", &start)
	end := start + 2
	if end > len(comments) {
		end = len(comments)
	}

	cursor := ""
	if end < len(comments) {
		cursor = fmt.Sprintf("c%d", end)
	}

	writeEnvelopeSuccess(w, map[string]interface{}{
		"has_more": end < len(comments),
		"cursor":   cursor,
		"comments": comments[start:end],
	})
}

func (m *MockXHSServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !m.checkSignature(w, r) {
		return
	}
	if m.intercept(w, "/api/sns/web/v1/feed") {
		return
	}

	var req struct {
		SourceNoteID string `json:"source_note_id"`
		XsecToken    string `json:"xsec_token"`
		Num          int    `json:"num"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.XsecToken == "" {
		writeEnvelopeFailure(w, 461, "missing xsec_token")
		return
	}

	// The real feed echoes the source note first
	items := []map[string]interface{}{noteItem(req.SourceNoteID)}
	items = append(items, m.noteItems("rel", 0, req.Num)...)

	writeEnvelopeSuccess(w, map[string]interface{}{
		"current_time": time.Now().UnixMilli(),
		"items":        items,
	})
}

func (m *MockXHSServer) handleUserPosted(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !m.checkSignature(w, r) {
		return
	}
	if m.intercept(w, "/api/sns/web/v1/user_posted") {
		return
	}

	var req struct {
		UserID string `json:"user_id"`
		Cursor string `json:"cursor"`
		Num    int    `json:"num"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	start := 0
	fmt.Sscanf(req.Cursor, "u%d", &start)
	items := m.noteItems("up", start, m.notesPerPage)

	cursor := ""
	hasMore := start+len(items) < m.totalNotes
	if hasMore {
		cursor = fmt.Sprintf("u%d", start+len(items))
	}

	writeEnvelopeSuccess(w, map[string]interface{}{
		"notes":    items,
		"cursor":   cursor,
		"has_more": hasMore,
	})
}

func (m *MockXHSServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !m.checkSignature(w, r) {
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	writeEnvelopeSuccess(w, map[string]interface{}{
		"user_id":  req.UserID,
		"nickname": "Mock User",
		"desc":     "integration fixture",
		"fans":     999,
		"notes":    m.totalNotes,
	})
}

// noteItems builds sequential note cards, clipped to the configured total
func (m *MockXHSServer) noteItems(prefix string, start, num int) []map[string]interface{} {
	if num <= 0 {
		num = m.notesPerPage
	}
	end := start + num
	if end > m.totalNotes {
		end = m.totalNotes
	}

	items := make([]map[string]interface{}, 0)
	for i := start; i < end; i++ {
		items = append(items, noteItem(fmt.Sprintf("%s-note-%03d", prefix, i)))
	}
	return items
}

func noteItem(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"model_type": "note",
		"xsec_token": "xsec-" + id,
		"note_card": map[string]interface{}{
			"type":          "normal",
			"display_title": "Title of " + id,
			"user": map[string]string{
				"user_id":  "author-1",
				"nickname": "Author",
			},
			"interact_info": map[string]string{
				"liked_count":   "128",
				"comment_count": "16",
			},
		},
	}
}

func writeEnvelopeSuccess(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"code":    0,
		"msg":     "success",
		"data":    data,
	})
}

func writeEnvelopeFailure(w http.ResponseWriter, code int, msg string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"code":    code,
		"msg":     msg,
	})
}
