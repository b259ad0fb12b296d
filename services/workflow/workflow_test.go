package workflow

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator accepts a single token.
type stubValidator struct {
	token string
}

func (v *stubValidator) Validate(_ context.Context, token string) (Identity, error) {
	if token != v.token {
		return Identity{}, errors.New("invalid token")
	}
	return Identity{UserID: "user-1", Email: "a@b.com"}, nil
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	return NewService(NewEngine(newTestRegistry(t)), opts...)
}

func setupRouter(svc *Service) *mux.Router {
	router := mux.NewRouter()
	svc.LoadRoutes(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func executeBody(t *testing.T, req ExecuteRequest) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestHandleExecuteWorkflow_Success(t *testing.T) {
	router := setupRouter(newTestService(t))

	body := executeBody(t, ExecuteRequest{Workflow: *welcomeWorkflow()})
	req := httptest.NewRequest("POST", "/api/v1/workflows/execute", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var report Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.True(t, report.Success)
	assert.Equal(t, RunCompleted, report.Status)
	assert.Len(t, report.ExecutionResults, 2)
	assert.Equal(t, 2, report.Summary.SuccessfulNodes)
}

func TestHandleExecuteWorkflow_NodeFailureIsStill200(t *testing.T) {
	router := setupRouter(newTestService(t))

	body := executeBody(t, ExecuteRequest{Workflow: Workflow{Nodes: []Node{
		{ID: "mail", Type: "email", Parameters: map[string]any{"recipient": "a@b.com", "subject": "Hi"}},
	}}})
	req := httptest.NewRequest("POST", "/api/v1/workflows/execute", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var report Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.False(t, report.Success)
	assert.Equal(t, RunAborted, report.Status)
	require.Len(t, report.ExecutionResults, 1)
	assert.True(t, report.ExecutionResults[0].Critical)
}

func TestHandleExecuteWorkflow_GlobalParameters(t *testing.T) {
	mail := &stubMailSender{}
	reg, err := NewBuiltinRegistry(Dependencies{Mail: mail})
	require.NoError(t, err)
	router := setupRouter(NewService(NewEngine(reg)))

	body := executeBody(t, ExecuteRequest{
		Workflow: Workflow{Nodes: []Node{
			{ID: "mail", Type: "email", Parameters: map[string]any{"subject": "Hi", "content": "Welcome!"}},
		}},
		Parameters: map[string]any{"recipient": "global@b.com"},
	})
	req := httptest.NewRequest("POST", "/api/v1/workflows/execute", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "global@b.com", mail.sent[0].Recipient)
}

func TestHandleExecuteWorkflow_EmptyWorkflow(t *testing.T) {
	router := setupRouter(newTestService(t))

	body := executeBody(t, ExecuteRequest{Workflow: Workflow{Name: "empty"}})
	req := httptest.NewRequest("POST", "/api/v1/workflows/execute", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Contains(t, result["message"], "no nodes")
}

func TestHandleExecuteWorkflow_InvalidJSON(t *testing.T) {
	router := setupRouter(newTestService(t))

	req := httptest.NewRequest("POST", "/api/v1/workflows/execute", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "invalid request body", result["message"])
}

func TestHandleExecuteWorkflow_MethodNotAllowed(t *testing.T) {
	router := setupRouter(newTestService(t))

	req := httptest.NewRequest("GET", "/api/v1/workflows/execute", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleExecuteWorkflow_Session(t *testing.T) {
	router := setupRouter(newTestService(t, WithSessionValidator(&stubValidator{token: "good"}), WithSessionCookie("sid")))

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"bad bearer", "Bearer bad", "", http.StatusUnauthorized},
		{"good bearer", "Bearer good", "", http.StatusOK},
		{"good cookie", "", "good", http.StatusOK},
		{"bad cookie", "", "bad", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/workflows/execute", executeBody(t, ExecuteRequest{Workflow: *welcomeWorkflow()}))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sid", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHandleListNodeTypes(t *testing.T) {
	router := setupRouter(newTestService(t, WithSessionValidator(&stubValidator{token: "good"})))

	req := httptest.NewRequest("GET", "/api/v1/node-types", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result struct {
		NodeTypes []Definition `json:"nodeTypes"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))

	names := make([]string, 0, len(result.NodeTypes))
	for _, d := range result.NodeTypes {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"database", "delay", "email", "generate", "http-request", "log"}, names)
}

func TestIdentityFromContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), identityKey{}, Identity{UserID: "u"})
	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u", id.UserID)
}
