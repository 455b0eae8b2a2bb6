package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/telemetry"
)

const (
	// DefaultHistoryWindow is how many recent messages feed the prompt
	DefaultHistoryWindow = 10
	// DefaultPromptByteBudget bounds the assembled prompt size
	DefaultPromptByteBudget = 24000

	// FallbackAnswer is returned when the completion backend is down
	FallbackAnswer = "I'm having trouble reaching the language model right now. " +
		"Your message was saved; please try again in a moment."

	systemPreamble = "You are Papyr, an assistant that answers questions using the " +
		"provided document excerpts. Cite the source filename when you use an excerpt. " +
		"When the user asks you to create a reminder, respond with a JSON object " +
		`{"action": "create_reminder", "title": ..., "date": "YYYY-MM-DD", ` +
		`"description": ..., "priority": ..., "category": ...} plus a short confirmation question.`
)

// IngestInterface is the synchronous attachment path into the index
type IngestInterface interface {
	IngestAndIndex(ctx context.Context, filename, contentType string, data []byte) (*domain.Document, error)
}

// RetrieverInterface supplies context excerpts for a query
type RetrieverInterface interface {
	Retrieve(ctx context.Context, query string, k int) ([]RetrievedChunk, error)
}

// Attachment is a file sent alongside a chat message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TurnType distinguishes a plain answer from a proposal awaiting confirmation
type TurnType string

const (
	TurnAnswer        TurnType = "answer"
	TurnPendingAction TurnType = "pending_action"
)

// ProposedAction is the user-facing view of a pending side effect.
type ProposedAction struct {
	Kind               domain.ActionKind      `json:"kind"`
	Payload            domain.ReminderPayload `json:"payload"`
	ConfirmationPrompt string                 `json:"confirmation_prompt"`
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	SessionID string
	Type      TurnType
	Response  string
	Action    *ProposedAction
}

// OrchestratorConfig carries the prompt-assembly tunables.
type OrchestratorConfig struct {
	RetrievalK       int
	HistoryWindow    int
	PromptByteBudget int
}

// Orchestrator runs one chat turn: ingest attachments, retrieve context,
// assemble a bounded prompt, call the model and interpret its response.
type Orchestrator struct {
	sessions  SessionStoreInterface
	ingest    IngestInterface
	retriever RetrieverInterface
	completer CompleterInterface
	confirm   *ConfirmationService
	locks     *SessionLocks
	cfg       OrchestratorConfig
	uuidGen   UUIDGenerator
	now       func() time.Time
}

// NewOrchestrator creates an Orchestrator. The lock registry must be the one
// shared with the confirmation service.
func NewOrchestrator(
	sessions SessionStoreInterface,
	ingest IngestInterface,
	retriever RetrieverInterface,
	completer CompleterInterface,
	confirm *ConfirmationService,
	locks *SessionLocks,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.RetrievalK <= 0 {
		cfg.RetrievalK = DefaultRetrievalK
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.PromptByteBudget <= 0 {
		cfg.PromptByteBudget = DefaultPromptByteBudget
	}
	return &Orchestrator{
		sessions:  sessions,
		ingest:    ingest,
		retriever: retriever,
		completer: completer,
		confirm:   confirm,
		locks:     locks,
		cfg:       cfg,
		uuidGen:   &DefaultUUIDGenerator{},
		now:       time.Now,
	}
}

// HandleMessage runs one turn. An unknown or empty session id starts a new
// session. History is appended on every branch that produced a response,
// including the degraded fallback.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string, attachments []Attachment) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, domain.ErrEmptyMessage
	}

	if sessionID == "" {
		sessionID = o.uuidGen.NewString()
	}

	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.HandleMessage", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "chat",
	})
	defer span.End()

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	session, err := o.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		session = domain.NewChatSession(sessionID, o.now().UTC())
		err = nil
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	// Attachments are indexed before retrieval so the turn can answer
	// questions about the file it arrived with.
	var (
		attachedIDs   []string
		attachedTexts []string
	)
	for _, att := range attachments {
		doc, err := o.ingest.IngestAndIndex(ctx, att.Filename, att.ContentType, att.Data)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		attachedIDs = append(attachedIDs, doc.ID)
		attachedTexts = append(attachedTexts, fmt.Sprintf("[attached: %s]\n%s", doc.Filename, doc.NormalizedText))
	}

	var excerpts []RetrievedChunk
	if strings.TrimSpace(text) != "" {
		excerpts, err = o.retriever.Retrieve(ctx, text, o.cfg.RetrievalK)
		if err != nil {
			// Degraded mode: answer without retrieval context
			log.Printf("chat: retrieval unavailable for session %s (continuing without context): %v", sessionID, err)
			excerpts = nil
		}
	}

	prompt := o.assemblePrompt(session, text, excerpts, attachedTexts)

	userMsg := domain.Message{
		Role:                domain.RoleUser,
		Content:             text,
		Timestamp:           o.now().UTC(),
		AttachedDocumentIDs: attachedIDs,
	}

	raw, err := o.completer.Complete(ctx, prompt)
	if err != nil {
		log.Printf("chat: completion failed for session %s (prompt %d bytes): %v", sessionID, len(prompt), err)
		telemetry.CaptureError(ctx, err)
		return o.finishTurn(ctx, session, userMsg, &TurnResult{
			SessionID: sessionID,
			Type:      TurnAnswer,
			Response:  FallbackAnswer,
		})
	}

	directive, cleaned := ExtractDirective(raw)
	if directive == nil || domain.ActionKind(directive.Action) != domain.ActionCreateReminder {
		if directive != nil {
			log.Printf("chat: ignoring unknown directive action %q in session %s", directive.Action, sessionID)
		}
		return o.finishTurn(ctx, session, userMsg, &TurnResult{
			SessionID: sessionID,
			Type:      TurnAnswer,
			Response:  fallbackIfEmpty(cleaned),
		})
	}

	payload := directive.ReminderPayload()
	if missing := payload.MissingFields(); len(missing) > 0 {
		// Incomplete proposal: ask instead of guessing, leave no pending state
		question := fmt.Sprintf("I need a bit more to set that reminder. Could you give me the %s?",
			strings.Join(missing, " and "))
		return o.finishTurn(ctx, session, userMsg, &TurnResult{
			SessionID: sessionID,
			Type:      TurnAnswer,
			Response:  question,
		})
	}
	if err := payload.Validate(); err != nil {
		return o.finishTurn(ctx, session, userMsg, &TurnResult{
			SessionID: sessionID,
			Type:      TurnAnswer,
			Response:  "That reminder didn't look right: " + err.Error() + ". Could you rephrase it?",
		})
	}

	o.confirm.ProposeOnSession(session, domain.ActionCreateReminder, payload)
	confirmPrompt := fmt.Sprintf("Create reminder %q for %s? Reply 'confirm' or 'reject'.",
		payload.Title, payload.Date)

	response := cleaned
	if response == "" {
		response = confirmPrompt
	}
	return o.finishTurn(ctx, session, userMsg, &TurnResult{
		SessionID: sessionID,
		Type:      TurnPendingAction,
		Response:  response,
		Action: &ProposedAction{
			Kind:               domain.ActionCreateReminder,
			Payload:            payload,
			ConfirmationPrompt: confirmPrompt,
		},
	})
}

// finishTurn appends the turn's messages and persists the session.
func (o *Orchestrator) finishTurn(ctx context.Context, session *domain.ChatSession, userMsg domain.Message, result *TurnResult) (*TurnResult, error) {
	session.Append(userMsg)
	session.Append(domain.Message{
		Role:      domain.RoleAssistant,
		Content:   result.Response,
		Timestamp: o.now().UTC(),
	})
	if err := o.sessions.Upsert(ctx, session); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to persist session", err)
	}
	return result, nil
}

func (o *Orchestrator) assemblePrompt(session *domain.ChatSession, text string, excerpts []RetrievedChunk, attachedTexts []string) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")

	budget := o.cfg.PromptByteBudget

	if len(excerpts) > 0 {
		b.WriteString("Context excerpts:\n")
		for _, e := range excerpts {
			section := fmt.Sprintf("[source: %s]\n%s\n\n", e.Filename, e.Text)
			if b.Len()+len(section) > budget {
				break
			}
			b.WriteString(section)
		}
	}

	for _, at := range attachedTexts {
		if b.Len()+len(at) > budget {
			// Back off to a rune boundary so the cut never emits invalid UTF-8
			limit := max(0, budget-b.Len())
			for limit > 0 && !utf8.RuneStart(at[limit]) {
				limit--
			}
			at = at[:limit]
		}
		if at == "" {
			break
		}
		b.WriteString(at)
		b.WriteString("\n\n")
	}

	recent := session.RecentMessages(o.cfg.HistoryWindow)
	if len(recent) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range recent {
			line := fmt.Sprintf("%s: %s\n", msg.Role, msg.Content)
			if b.Len()+len(line) > budget {
				break
			}
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(text)
	return b.String()
}

func fallbackIfEmpty(response string) string {
	if strings.TrimSpace(response) == "" {
		return "I don't have an answer for that."
	}
	return response
}
