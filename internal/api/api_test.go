package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "freeliao.db")
	st, err := store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewServer(st, nil), st
}

func seedUser(t *testing.T, st store.Store, id, chatID, name, code string) {
	t.Helper()
	err := st.CreateUser(models.User{
		ID: id, ChatID: chatID, DisplayName: name, InviteCode: code, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", id, err)
	}
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("health response not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}

	w = doRequest(t, srv, http.MethodPost, "/health")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, want 405", w.Code)
	}
}

func TestFeedEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedUser(t, st, "u_1", "chat-1", "Alice", "codeaaaa")
	seedUser(t, st, "u_2", "chat-2", "Bob", "codebbbb")

	err := st.CreateFriendship(models.Friendship{
		ID: "fr_1", UserID: "u_1", FriendID: "u_2",
		Status: models.FriendshipPending, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateFriendship() error = %v", err)
	}
	if _, err := st.AcceptFriendship("fr_1", "u_2"); err != nil {
		t.Fatalf("AcceptFriendship() error = %v", err)
	}

	now := time.Now()
	err = st.CreateJio(models.Jio{
		ID: "j_1", CreatorID: "u_2", Kind: models.JioKindKopi, Title: "Kopi anyone?",
		Status: models.JioStatusActive, CreatedAt: now, ExpiresAt: now.Add(models.DefaultJioExpiry),
	})
	if err != nil {
		t.Fatalf("CreateJio() error = %v", err)
	}

	w := doRequest(t, srv, http.MethodGet, "/feed?user=u_1")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /feed status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("status = %s, want ok", resp.Status)
	}
	items, ok := resp.Result.([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("feed result = %v, want 1 jio", resp.Result)
	}

	// Chat ID resolves to the same user.
	w = doRequest(t, srv, http.MethodGet, "/feed?user=chat-1")
	if w.Code != http.StatusOK {
		t.Errorf("GET /feed by chat ID status = %d, want 200", w.Code)
	}

	w = doRequest(t, srv, http.MethodGet, "/feed?user=u_missing")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /feed unknown user status = %d, want 404", w.Code)
	}
	w = doRequest(t, srv, http.MethodGet, "/feed")
	if w.Code != http.StatusBadRequest {
		t.Errorf("GET /feed without user status = %d, want 400", w.Code)
	}
}

func TestRespondEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedUser(t, st, "u_1", "chat-1", "Alice", "codeaaaa")
	seedUser(t, st, "u_2", "chat-2", "Bob", "codebbbb")

	now := time.Now()
	err := st.CreateJio(models.Jio{
		ID: "j_1", CreatorID: "u_2", Kind: models.JioKindKopi, Title: "Kopi anyone?",
		Status: models.JioStatusActive, CreatedAt: now, ExpiresAt: now.Add(models.DefaultJioExpiry),
	})
	if err != nil {
		t.Fatalf("CreateJio() error = %v", err)
	}

	w := doForm(t, srv, "/respond", url.Values{"user": {"u_1"}, "jio": {"j_1"}, "kind": {"interested"}})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /respond status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	summary, err := st.ListJioResponses("j_1")
	if err != nil {
		t.Fatalf("ListJioResponses() error = %v", err)
	}
	if len(summary.Interested) != 1 || summary.Interested[0] != "Alice" {
		t.Errorf("interested = %v, want [Alice]", summary.Interested)
	}

	// A repeat submission overwrites the earlier response.
	w = doForm(t, srv, "/respond", url.Values{"user": {"chat-1"}, "jio": {"j_1"}, "kind": {"joined"}})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /respond (repeat) status = %d, want 200", w.Code)
	}
	summary, _ = st.ListJioResponses("j_1")
	if len(summary.Joined) != 1 || len(summary.Interested) != 0 {
		t.Errorf("summary after overwrite = %+v, want single joined row", summary)
	}

	w = doForm(t, srv, "/respond", url.Values{"user": {"u_1"}, "jio": {"j_1"}, "kind": {"yes"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /respond invalid kind status = %d, want 400", w.Code)
	}
	w = doForm(t, srv, "/respond", url.Values{"user": {"u_missing"}, "jio": {"j_1"}, "kind": {"joined"}})
	if w.Code != http.StatusNotFound {
		t.Errorf("POST /respond unknown user status = %d, want 404", w.Code)
	}
	w = doForm(t, srv, "/respond", url.Values{"user": {"u_1"}, "jio": {"j_missing"}, "kind": {"joined"}})
	if w.Code != http.StatusNotFound {
		t.Errorf("POST /respond unknown jio status = %d, want 404", w.Code)
	}
	w = doRequest(t, srv, http.MethodGet, "/respond")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /respond status = %d, want 405", w.Code)
	}
}

func TestRespondEndpointRejectsInactiveJio(t *testing.T) {
	srv, st := newTestServer(t)
	seedUser(t, st, "u_1", "chat-1", "Alice", "codeaaaa")
	seedUser(t, st, "u_2", "chat-2", "Bob", "codebbbb")

	now := time.Now()
	err := st.CreateJio(models.Jio{
		ID: "j_done", CreatorID: "u_2", Kind: models.JioKindMakan, Title: "Makan anyone?",
		Status: models.JioStatusActive, CreatedAt: now, ExpiresAt: now.Add(models.DefaultJioExpiry),
	})
	if err != nil {
		t.Fatalf("CreateJio() error = %v", err)
	}
	if _, err := st.UpdateJioStatus("j_done", models.JioStatusActive, models.JioStatusCancelled); err != nil {
		t.Fatalf("UpdateJioStatus() error = %v", err)
	}

	w := doForm(t, srv, "/respond", url.Values{"user": {"u_1"}, "jio": {"j_done"}, "kind": {"joined"}})
	if w.Code != http.StatusConflict {
		t.Errorf("POST /respond to cancelled jio status = %d, want 409", w.Code)
	}
	summary, _ := st.ListJioResponses("j_done")
	if summary.Total() != 0 {
		t.Errorf("response recorded against terminal jio: %+v", summary)
	}
}

func TestFriendsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedUser(t, st, "u_1", "chat-1", "Alice", "codeaaaa")

	w := doRequest(t, srv, http.MethodGet, "/friends?user=u_1")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /friends status = %d, want 200", w.Code)
	}
	resp := decodeResponse(t, w)
	if items, ok := resp.Result.([]interface{}); !ok || len(items) != 0 {
		t.Errorf("friends result = %v, want empty list (not null)", resp.Result)
	}
}

func TestSweepEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedUser(t, st, "u_1", "chat-1", "Alice", "codeaaaa")

	now := time.Now()
	err := st.CreateJio(models.Jio{
		ID: "j_old", CreatorID: "u_1", Kind: models.JioKindKopi, Title: "Kopi anyone?",
		Status: models.JioStatusActive, CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateJio() error = %v", err)
	}
	past := now.Add(-time.Minute)
	err = st.SaveUserStatus(models.UserStatus{
		UserID: "u_1", Kind: models.StatusFree, FreeUntil: &past, ExpiresAt: &past, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("SaveUserStatus() error = %v", err)
	}

	w := doRequest(t, srv, http.MethodPost, "/sweep")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /sweep status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	counts, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("sweep result = %v, want counts", resp.Result)
	}
	if counts["expired_jios"] != float64(1) || counts["expired_statuses"] != float64(1) {
		t.Errorf("sweep counts = %v, want 1 and 1", counts)
	}

	jio, err := st.GetJio("j_old")
	if err != nil {
		t.Fatalf("GetJio() error = %v", err)
	}
	if jio.Status != models.JioStatusExpired {
		t.Errorf("jio status = %s, want expired", jio.Status)
	}

	w = doRequest(t, srv, http.MethodGet, "/sweep")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /sweep status = %d, want 405", w.Code)
	}
}
