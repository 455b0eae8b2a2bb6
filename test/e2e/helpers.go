//go:build e2e

package e2e

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
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/papyrai/internal/api/handlers"
	"github.com/cloo-solutions/papyrai/internal/index"
	"github.com/cloo-solutions/papyrai/internal/jobs"
	"github.com/cloo-solutions/papyrai/internal/parser"
	"github.com/cloo-solutions/papyrai/internal/repository"
	"github.com/cloo-solutions/papyrai/internal/server"
	"github.com/cloo-solutions/papyrai/internal/service"
	"github.com/cloo-solutions/papyrai/internal/storage"
	"github.com/cloo-solutions/papyrai/internal/testutil"
)

const embeddingDim = 1536

// hashEmbedder produces deterministic vectors without a provider. Texts
// sharing a marker term land near each other so retrieval is testable.
type hashEmbedder struct{}

func (e *hashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, embeddingDim)
	if strings.Contains(strings.ToLower(text), "renewal") {
		v[0] = 1
		v[1] = 0.05
	} else {
		v[0] = 0.05
		v[1] = 1
	}
	return v, nil
}

// scriptedCompleter returns queued responses in order, then a default.
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
}

func (c *scriptedCompleter) push(response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, response)
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.responses) == 0 {
		return "Understood.", nil
	}
	response := c.responses[0]
	c.responses = c.responses[1:]
	return response, nil
}

// TestEnv holds all resources for a full-stack test run against Postgres.
type TestEnv struct {
	T         *testing.T
	Ctx       context.Context
	PostgresC *testutil.PostgresContainer
	Pool      *pgxpool.Pool
	Server    *httptest.Server
	Completer *scriptedCompleter
	Processor *jobs.IndexProcessor
	DocRepo   *repository.DocumentRepository
	Idx       *index.Memory

	httpClient *http.Client
	cleanup    []func()
}

// SetupTestEnv wires the Postgres-backed stack behind an httptest server.
// S3 archiving is exercised separately; here the archiver is nil.
func SetupTestEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	docRepo := repository.NewDocumentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	reminderRepo := repository.NewReminderRepository(pool)
	actionLogRepo := repository.NewActionLogRepository(pool)

	idx := index.NewMemory()
	embedder := &hashEmbedder{}
	completer := &scriptedCompleter{}

	chunkCfg := service.DefaultChunkConfig()
	chunkCfg.WindowSize = 200
	chunkCfg.Overlap = 40
	chunkCfg.MinWindow = 80

	ingestSvc := service.NewIngestService(parser.New(), docRepo, embedder, idx, nil, chunkCfg)
	retrievalSvc := service.NewRetrievalService(embedder, idx, docRepo)

	locks := service.NewSessionLocks()
	confirmSvc := service.NewConfirmationService(sessionRepo, reminderRepo, actionLogRepo, locks, repository.NewTxRunner(pool))
	orchestrator := service.NewOrchestrator(sessionRepo, ingestSvc, retrievalSvc, completer, confirmSvc, locks, service.OrchestratorConfig{})

	processor := jobs.NewIndexProcessor(ingestSvc, 16)

	router := server.NewRouter(server.RouterConfig{
		UploadHandler:   handlers.NewUploadHandler(ingestSvc, processor, docRepo, 1<<20),
		ChatHandler:     handlers.NewChatHandler(orchestrator),
		ConfirmHandler:  handlers.NewConfirmHandler(confirmSvc),
		StatsHandler:    handlers.NewStatsHandler(idx, true),
		ReminderHandler: handlers.NewReminderHandler(reminderRepo),
		HistoryHandler:  handlers.NewHistoryHandler(sessionRepo, actionLogRepo),
		MaxBodyBytes:    2 << 20,
	})

	srv := httptest.NewServer(router)

	env := &TestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Server:     srv,
		Completer:  completer,
		Processor:  processor,
		DocRepo:    docRepo,
		Idx:        idx,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	env.cleanup = append(env.cleanup,
		srv.Close,
		pool.Close,
		func() { _ = pgC.Terminate(ctx) },
	)
	return env
}

// Cleanup releases the server, pool and container in order.
func (env *TestEnv) Cleanup() {
	for _, fn := range env.cleanup {
		fn()
	}
}

// DrainIndexQueue runs queued index jobs synchronously.
func (env *TestEnv) DrainIndexQueue() {
	if err := env.Processor.ProcessJobs(env.Ctx); err != nil {
		env.T.Fatalf("index queue drain failed: %v", err)
	}
}

// APIResponse is the envelope every endpoint wraps its payload in.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// PostJSON sends a JSON body and decodes the envelope.
func (env *TestEnv) PostJSON(path string, body any) (int, *APIResponse) {
	payload, err := json.Marshal(body)
	if err != nil {
		env.T.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := env.httpClient.Post(env.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		env.T.Fatalf("POST %s failed: %v", path, err)
	}
	return env.readEnvelope(resp)
}

// Get decodes the envelope from a GET.
func (env *TestEnv) Get(path string) (int, *APIResponse) {
	resp, err := env.httpClient.Get(env.Server.URL + path)
	if err != nil {
		env.T.Fatalf("GET %s failed: %v", path, err)
	}
	return env.readEnvelope(resp)
}

// UploadFile posts bytes as a multipart upload.
func (env *TestEnv) UploadFile(filename string, data []byte) (int, *APIResponse) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		env.T.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		env.T.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		env.T.Fatalf("failed to close form: %v", err)
	}

	resp, err := env.httpClient.Post(env.Server.URL+"/upload", writer.FormDataContentType(), &buf)
	if err != nil {
		env.T.Fatalf("POST /upload failed: %v", err)
	}
	return env.readEnvelope(resp)
}

// Chat sends a message, with optional attachments, as multipart form data.
func (env *TestEnv) Chat(sessionID, message string, attachments map[string][]byte) (int, *APIResponse) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("message", message); err != nil {
		env.T.Fatalf("failed to write message field: %v", err)
	}
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			env.T.Fatalf("failed to write session field: %v", err)
		}
	}
	for name, data := range attachments {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			env.T.Fatalf("failed to create attachment part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			env.T.Fatalf("failed to write attachment: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		env.T.Fatalf("failed to close form: %v", err)
	}

	resp, err := env.httpClient.Post(env.Server.URL+"/chat", writer.FormDataContentType(), &buf)
	if err != nil {
		env.T.Fatalf("POST /chat failed: %v", err)
	}
	return env.readEnvelope(resp)
}

func (env *TestEnv) readEnvelope(resp *http.Response) (int, *APIResponse) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		env.T.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, &APIResponse{}
	}
	var envelope APIResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		env.T.Fatalf("failed to decode envelope (%d): %s", resp.StatusCode, string(body))
	}
	return resp.StatusCode, &envelope
}

// S3Archive spins up RustFS and returns an S3 client bound to a fresh bucket.
func S3Archive(ctx context.Context, t *testing.T) (*storage.S3Client, func()) {
	s3C := testutil.NewRustFSContainer(ctx, t)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "papyr-test-uploads",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	return s3Client, func() { _ = s3C.Terminate(ctx) }
}

// CSVFixture builds a small csv with one marker row for retrieval checks.
func CSVFixture() []byte {
	var sb strings.Builder
	sb.WriteString("task,due\n")
	for i := 0; i < 5; i++ {
		sb.WriteString(fmt.Sprintf("errand %d,2026-09-%02d\n", i, i+1))
	}
	sb.WriteString("passport renewal,2027-05-20\n")
	return []byte(sb.String())
}
