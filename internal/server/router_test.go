package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/papyrai/internal/api/handlers"
	"github.com/cloo-solutions/papyrai/internal/index"
	"github.com/cloo-solutions/papyrai/internal/jobs"
	"github.com/cloo-solutions/papyrai/internal/parser"
	"github.com/cloo-solutions/papyrai/internal/service"
	"github.com/cloo-solutions/papyrai/internal/store"
)

type routerEmbedder struct{}

func (routerEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "item7") {
		return []float32{1, 0.05}, nil
	}
	return []float32{0.05, 1}, nil
}

type routerCompleter struct {
	responses []string
	calls     int
}

func (c *routerCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	call := c.calls
	c.calls++
	if call < len(c.responses) {
		return c.responses[call], nil
	}
	return "as you wish", nil
}

type testStack struct {
	handler   http.Handler
	processor *jobs.IndexProcessor
	completer *routerCompleter
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	idx := index.NewMemory()
	docs := store.NewMemoryDocumentStore()
	sessions := store.NewMemorySessionStore()
	reminders := store.NewMemoryReminderStore()
	actionLog := store.NewMemoryActionLogStore()
	locks := service.NewSessionLocks()
	embedder := routerEmbedder{}
	completer := &routerCompleter{}

	ingest := service.NewIngestService(parser.New(), docs, embedder, idx, nil, service.ChunkConfig{
		WindowSize: 200,
		Overlap:    40,
		MinWindow:  80,
	})
	retriever := service.NewRetrievalService(embedder, idx, docs)
	confirm := service.NewConfirmationService(sessions, reminders, actionLog, locks, nil)
	orch := service.NewOrchestrator(sessions, ingest, retriever, completer, confirm, locks, service.OrchestratorConfig{})
	processor := jobs.NewIndexProcessor(ingest, 16)

	handler := NewRouter(RouterConfig{
		UploadHandler:   handlers.NewUploadHandler(ingest, processor, docs, 1024),
		ChatHandler:     handlers.NewChatHandler(orch),
		ConfirmHandler:  handlers.NewConfirmHandler(confirm),
		StatsHandler:    handlers.NewStatsHandler(idx, false),
		ReminderHandler: handlers.NewReminderHandler(reminders),
		HistoryHandler:  handlers.NewHistoryHandler(sessions, actionLog),
		MaxBodyBytes:    2048,
	})

	return &testStack{handler: handler, processor: processor, completer: completer}
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
		hdr["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(stack *testStack, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	stack.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, body io.Reader, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func smallCSV() []byte {
	var b strings.Builder
	b.WriteString("name,amount\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "item%d,%d00\n", i, i)
	}
	return []byte(b.String())
}

func TestHealth(t *testing.T) {
	stack := newTestStack(t)
	rec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadQueuesIndexing(t *testing.T) {
	stack := newTestStack(t)

	body, ct := multipartUpload(t, "file", "expenses.csv", "text/csv", smallCSV(), nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := doRequest(stack, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handlers.UploadResponse
	decodeData(t, rec.Body, &resp)
	assert.NotEmpty(t, resp.DocumentID)
	assert.Equal(t, "10 rows, 2 columns", resp.Preview)
	assert.Equal(t, "queued", resp.Indexing)

	// Indexing completes in the background worker path
	require.NoError(t, stack.processor.ProcessJobs(context.Background()))

	statsRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var stats handlers.StatsResponse
	decodeData(t, statsRec.Body, &stats)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, []string{"expenses.csv"}, stats.Sources)

	historyRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/upload/history", nil))
	assert.Equal(t, http.StatusOK, historyRec.Code)
	assert.Contains(t, historyRec.Body.String(), "expenses.csv")
}

func TestUploadTooLarge(t *testing.T) {
	stack := newTestStack(t)

	big := bytes.Repeat([]byte("a"), 1100)
	body, ct := multipartUpload(t, "file", "big.txt", "text/plain", big, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := doRequest(stack, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	stack := newTestStack(t)

	body, ct := multipartUpload(t, "file", "image.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47}, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := doRequest(stack, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChatConfirmRoundTrip(t *testing.T) {
	stack := newTestStack(t)
	stack.completer.responses = []string{
		`{"action": "create_reminder", "title": "Omar visa renewal", "date": "2027-05-20"} Want me to set that up?`,
	}

	body, ct := multipartUpload(t, "", "", "", nil, map[string]string{
		"message": "remind me about Omar's visa renewal on 2027-05-20",
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", ct)

	rec := doRequest(stack, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var chat handlers.ChatResponse
	decodeData(t, rec.Body, &chat)
	require.Equal(t, "pending_action", chat.Type)
	require.NotNil(t, chat.Action)
	assert.Equal(t, "Omar visa renewal", chat.Action.Payload.Title)

	confirmBody, _ := json.Marshal(handlers.ConfirmRequest{SessionID: chat.SessionID, Decision: "confirm"})
	confirmReq := httptest.NewRequest(http.MethodPost, "/confirm", bytes.NewReader(confirmBody))
	confirmRec := doRequest(stack, confirmReq)
	require.Equal(t, http.StatusOK, confirmRec.Code, confirmRec.Body.String())

	var outcome handlers.ConfirmResponse
	decodeData(t, confirmRec.Body, &outcome)
	assert.Equal(t, "confirm", outcome.Decision)
	assert.NotEmpty(t, outcome.ReminderID)

	// Exactly one reminder, not yet completed
	listRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/reminders", nil))
	var reminders []handlers.ReminderResponse
	decodeData(t, listRec.Body, &reminders)
	require.Len(t, reminders, 1)
	assert.Equal(t, "Omar visa renewal", reminders[0].Title)
	assert.Equal(t, "2027-05-20", reminders[0].Date)
	assert.False(t, reminders[0].Completed)

	// A second confirm finds nothing pending
	confirmReq2 := httptest.NewRequest(http.MethodPost, "/confirm", bytes.NewReader(confirmBody))
	confirmRec2 := doRequest(stack, confirmReq2)
	assert.Equal(t, http.StatusConflict, confirmRec2.Code)

	// The action log recorded the commit
	actionsRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/history/actions", nil))
	assert.Contains(t, actionsRec.Body.String(), "create_reminder")
}

func TestConfirmWithoutSession(t *testing.T) {
	stack := newTestStack(t)

	body, _ := json.Marshal(handlers.ConfirmRequest{SessionID: "ghost", Decision: "confirm"})
	rec := doRequest(stack, httptest.NewRequest(http.MethodPost, "/confirm", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmInvalidDecision(t *testing.T) {
	stack := newTestStack(t)

	body, _ := json.Marshal(handlers.ConfirmRequest{SessionID: "s", Decision: "maybe"})
	rec := doRequest(stack, httptest.NewRequest(http.MethodPost, "/confirm", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryLifecycle(t *testing.T) {
	stack := newTestStack(t)

	body, ct := multipartUpload(t, "", "", "", nil, map[string]string{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", ct)
	rec := doRequest(stack, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var chat handlers.ChatResponse
	decodeData(t, rec.Body, &chat)

	histRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/history/"+chat.SessionID, nil))
	require.Equal(t, http.StatusOK, histRec.Code)
	var hist handlers.SessionHistoryResponse
	decodeData(t, histRec.Body, &hist)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "user", hist.Messages[0].Role)
	assert.Equal(t, "assistant", hist.Messages[1].Role)

	delRec := doRequest(stack, httptest.NewRequest(http.MethodDelete, "/history/"+chat.SessionID, nil))
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	goneRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/history/"+chat.SessionID, nil))
	assert.Equal(t, http.StatusNotFound, goneRec.Code)
}

func TestRemindersCRUD(t *testing.T) {
	stack := newTestStack(t)

	createBody, _ := json.Marshal(handlers.CreateReminderRequest{
		Title: "Pay rent", Date: "2026-10-01", Priority: "high",
	})
	rec := doRequest(stack, httptest.NewRequest(http.MethodPost, "/reminders", bytes.NewReader(createBody)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created handlers.ReminderResponse
	decodeData(t, rec.Body, &created)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, "general", created.Category)

	completeRec := doRequest(stack, httptest.NewRequest(http.MethodPut, "/reminders/"+created.ID+"/complete", nil))
	require.Equal(t, http.StatusOK, completeRec.Code)
	var completed handlers.ReminderResponse
	decodeData(t, completeRec.Body, &completed)
	assert.True(t, completed.Completed)

	delRec := doRequest(stack, httptest.NewRequest(http.MethodDelete, "/reminders/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	getRec := doRequest(stack, httptest.NewRequest(http.MethodGet, "/reminders/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, getRec.Code)
}

func TestReminderValidation(t *testing.T) {
	stack := newTestStack(t)

	createBody, _ := json.Marshal(handlers.CreateReminderRequest{Title: "no date"})
	rec := doRequest(stack, httptest.NewRequest(http.MethodPost, "/reminders", bytes.NewReader(createBody)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	createBody, _ = json.Marshal(handlers.CreateReminderRequest{Title: "bad date", Date: "May 20, 2027"})
	rec = doRequest(stack, httptest.NewRequest(http.MethodPost, "/reminders", bytes.NewReader(createBody)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
