package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rabilrbl/taskboard/api"
	"github.com/rabilrbl/taskboard/auth"
	"github.com/rabilrbl/taskboard/engine"
	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/store/memory"
	"github.com/rabilrbl/taskboard/task"
)

// mailerSpy records everything the server tries to send.
type mailerSpy struct {
	mu   sync.Mutex
	sent []*mail.Message
}

func (m *mailerSpy) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailerSpy) messages() []*mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mail.Message(nil), m.sent...)
}

func newServer(t *testing.T) (*httptest.Server, *mailerSpy) {
	t.Helper()
	st := memory.New()
	eng := engine.New(st, st)
	spy := &mailerSpy{}
	authSvc := auth.NewService(st, spy, []byte("test-secret"))
	reports := report.NewService(st)

	srv := httptest.NewServer(api.New(eng, st, authSvc, reports).Router())
	t.Cleanup(srv.Close)
	return srv, spy
}

// call sends a JSON request and decodes the response into out (when non-nil).
func call(t *testing.T, srv *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func signup(t *testing.T, srv *httptest.Server, username, email string) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	status := call(t, srv, http.MethodPost, "/auth/signup", "",
		map[string]string{"username": username, "email": email}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("signup: status %d", status)
	}
	return resp.Token
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	if status := call(t, srv, http.MethodGet, "/tasks", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", status)
	}
	if status := call(t, srv, http.MethodGet, "/tasks", "bogus", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", status)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)
	token := signup(t, srv, "ada", "ada@example.com")

	var created task.Task
	status := call(t, srv, http.MethodPost, "/tasks", token,
		map[string]any{"title": "write the report", "priority": 1}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	if created.Status != task.StatusPending || created.ExternalID.String() == "" {
		t.Fatalf("create: %+v", created)
	}

	base := fmt.Sprintf("/tasks/%s", created.ExternalID)

	var updated task.Task
	status = call(t, srv, http.MethodPatch, base, token,
		map[string]any{"status": "in_progress"}, &updated)
	if status != http.StatusOK || updated.Status != task.StatusInProgress {
		t.Fatalf("patch: status %d, task %+v", status, updated)
	}

	var records []task.History
	if status = call(t, srv, http.MethodGet, base+"/history", token, nil, &records); status != http.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	if len(records) != 1 || records[0].OldStatus != task.StatusPending || records[0].NewStatus != task.StatusInProgress {
		t.Fatalf("history: %+v", records)
	}

	var completed task.Task
	if status = call(t, srv, http.MethodPost, base+"/complete", token, nil, &completed); status != http.StatusOK {
		t.Fatalf("complete: status %d", status)
	}
	if !completed.Completed {
		t.Fatalf("complete: %+v", completed)
	}

	if status = call(t, srv, http.MethodDelete, base, token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete: status %d", status)
	}
	if status = call(t, srv, http.MethodGet, base, token, nil, nil); status != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, want 404", status)
	}
}

func TestValidationOverHTTP(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)
	token := signup(t, srv, "bob", "bob@example.com")

	if status := call(t, srv, http.MethodPost, "/tasks", token,
		map[string]any{"title": "tiny"}, nil); status != http.StatusBadRequest {
		t.Fatalf("short title: status %d, want 400", status)
	}
	if status := call(t, srv, http.MethodPost, "/tasks", token,
		map[string]any{"title": "valid title", "status": "archived"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad status: status %d, want 400", status)
	}
	if status := call(t, srv, http.MethodGet, "/tasks/not-a-uuid", token, nil, nil); status != http.StatusBadRequest {
		t.Fatalf("bad uuid: status %d, want 400", status)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)
	alice := signup(t, srv, "alice", "alice@example.com")
	bob := signup(t, srv, "bobby", "bobby@example.com")

	var created task.Task
	if status := call(t, srv, http.MethodPost, "/tasks", alice,
		map[string]any{"title": "alice's private task"}, &created); status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}

	path := fmt.Sprintf("/tasks/%s", created.ExternalID)
	if status := call(t, srv, http.MethodGet, path, bob, nil, nil); status != http.StatusNotFound {
		t.Fatalf("cross-user read: status %d, want 404", status)
	}

	var tasks []task.Task
	if status := call(t, srv, http.MethodGet, "/tasks", bob, nil, &tasks); status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if len(tasks) != 0 {
		t.Fatalf("bob sees %d foreign tasks", len(tasks))
	}
}

func TestBoardRoutes(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)
	token := signup(t, srv, "carol", "carol@example.com")

	var created struct {
		ID string `json:"id"`
	}
	if status := call(t, srv, http.MethodPost, "/boards", token,
		map[string]string{"title": "release board"}, &created); status != http.StatusCreated {
		t.Fatalf("create board: status %d", status)
	}

	var label struct {
		ID string `json:"id"`
	}
	if status := call(t, srv, http.MethodPost, "/boards/"+created.ID+"/labels", token,
		map[string]string{"title": "in review"}, &label); status != http.StatusCreated {
		t.Fatalf("create label: status %d", status)
	}

	if status := call(t, srv, http.MethodDelete, "/boards/"+created.ID, token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete board: status %d", status)
	}
	if status := call(t, srv, http.MethodGet, "/boards/"+created.ID, token, nil, nil); status != http.StatusNotFound {
		t.Fatalf("get deleted board: status %d, want 404", status)
	}
}

func TestMagicLinkMatchesRequestScheme(t *testing.T) {
	t.Parallel()
	srv, spy := newServer(t)
	signup(t, srv, "eve", "eve@example.com")

	if status := call(t, srv, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "eve@example.com"}, nil); status != http.StatusAccepted {
		t.Fatalf("login: status %d, want 202", status)
	}

	msgs := spy.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent: got %d messages, want 1", len(msgs))
	}
	// The test server speaks plain HTTP, so the emailed link must too.
	idx := strings.Index(msgs[0].Body, srv.URL+"/auth/magic-link?token=")
	if idx < 0 {
		t.Fatalf("link does not carry the request's scheme and host:\n%s", msgs[0].Body)
	}
	link := msgs[0].Body[idx:]
	if end := strings.IndexAny(link, " \n"); end >= 0 {
		link = link[:end]
	}

	// The link must be redeemable as sent.
	var resp struct {
		Token string `json:"token"`
	}
	if status := call(t, srv, http.MethodGet, strings.TrimPrefix(link, srv.URL), "", nil, &resp); status != http.StatusOK {
		t.Fatalf("redeem: status %d, want 200", status)
	}
	if resp.Token == "" {
		t.Fatal("redeem returned no token")
	}
}

func TestReportRoutes(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)
	token := signup(t, srv, "dave", "dave@example.com")

	if status := call(t, srv, http.MethodGet, "/report", token, nil, nil); status != http.StatusNotFound {
		t.Fatalf("report before opt-in: status %d, want 404", status)
	}

	var sub report.Subscription
	if status := call(t, srv, http.MethodPut, "/report", token,
		map[string]any{"consent": true, "schedule": "0 9 * * *"}, &sub); status != http.StatusOK {
		t.Fatalf("put report: status %d", status)
	}
	if !sub.Consent || sub.NextSendAt == nil {
		t.Fatalf("subscription: %+v", sub)
	}

	if status := call(t, srv, http.MethodPut, "/report", token,
		map[string]any{"consent": true, "schedule": "whenever"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad schedule: status %d, want 400", status)
	}
}
