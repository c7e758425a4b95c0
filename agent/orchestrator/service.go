package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/apparelbot/concierge/agent/contract"
	statex "github.com/apparelbot/concierge/agent/state"
)

// Canned replies for the turn boundary. The boundary never surfaces raw
// errors to the customer; failures collapse into one of these.
const (
	replyInternalError = "I encountered an internal error. Please try again."
	replyNoAnswer      = "Sorry, I couldn't find an answer to that."
	replyModeBusy      = "The virtual try-on studio is not available right now. I can still help you with products, sizes and orders."
)

// Mode selects which conversation pipeline handles the turn.
type Mode string

const (
	// ModeChat is the standard supervised multi-agent pipeline.
	ModeChat Mode = "chat"
	// ModeTryOn is accepted at the boundary but currently unserved.
	ModeTryOn Mode = "vto"
)

const defaultMaxRounds = 8

// Config tunes the orchestrator.
type Config struct {
	// MaxRounds caps tool-execution rounds per turn before the graph is
	// cut off. Zero means the default.
	MaxRounds int `envconfig:"MAX_ROUNDS"`
}

// Service owns one turn end to end: session lookup, graph run, persistence
// and reply extraction. It is safe for concurrent use across sessions; turns
// for the same session must be serialized by the caller.
type Service struct {
	store     statex.Store
	router    contractx.Router
	workers   map[contractx.Destination]contractx.Worker
	executors map[contractx.Destination]contractx.ToolExecutor
	runner    compose.Runnable[*turnState, *turnState]
	maxRounds int
	now       func() time.Time
}

// New compiles the turn graph and returns a ready Service. Each tool-using
// worker gets its own executor, scoped to its binding set; workers absent
// from the executors map run without a tool round.
func New(ctx context.Context, store statex.Store, router contractx.Router, workers map[contractx.Destination]contractx.Worker, executors map[contractx.Destination]contractx.ToolExecutor, cfg Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("orchestrator: nil store")
	}
	if router == nil {
		return nil, errors.New("orchestrator: nil router")
	}
	if len(workers) == 0 {
		return nil, errors.New("orchestrator: no workers registered")
	}
	for dest := range executors {
		if _, ok := workers[dest]; !ok {
			return nil, fmt.Errorf("orchestrator: executor registered for %s but no worker", dest)
		}
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	s := &Service{
		store:     store,
		router:    router,
		workers:   workers,
		executors: executors,
		maxRounds: maxRounds,
		now:       time.Now,
	}

	runner, err := s.compileTurnGraph(ctx)
	if err != nil {
		return nil, err
	}
	s.runner = runner
	return s, nil
}

// maxRunSteps converts the round cap into a graph step budget. Each tool
// round costs a worker step plus an executor step, and every dispatch is
// book-ended by supervisor steps.
func (s *Service) maxRunSteps() int {
	return 4 + 3*s.maxRounds
}

// SubmitTurn runs one customer turn and returns the reply plus the session
// id the turn ran under (minted when the caller passed none). It never
// returns an error: any internal failure degrades to a canned reply so the
// conversation surface stays intact.
func (s *Service) SubmitTurn(ctx context.Context, sessionID, userText string, mode Mode) (reply, sid string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sid = sessionID

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session_id", sessionID).Interface("panic", r).Msg("turn panicked")
			reply = replyInternalError
		}
	}()

	userText = strings.TrimSpace(userText)
	if userText == "" {
		return replyNoAnswer, sid
	}
	if mode == ModeTryOn {
		return replyModeBusy, sid
	}

	st, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("load session state")
		return replyInternalError, sid
	}

	st.Append(contractx.UserMessage(userText))

	out, err := s.runner.Invoke(ctx, &turnState{
		SessionID:  sessionID,
		Transcript: st.Messages,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("turn graph failed")
		// Keep the user's message even when the turn dies.
		s.persist(ctx, st)
		return replyInternalError, sid
	}

	st.Messages = out.Transcript
	st.LastRoute = out.Route
	s.persist(ctx, st)

	return finalAnswer(out.Transcript), sid
}

// Reset drops the session's stored state. Unknown sessions are a no-op.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", contractx.ErrValidation)
	}
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, err := s.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, statex.ErrStateNotFound):
		return statex.NewSessionState(sessionID, s.now()), nil
	default:
		return nil, err
	}
}

func (s *Service) persist(ctx context.Context, st *statex.SessionState) {
	st.Touch(s.now())
	if err := s.store.Save(ctx, st); err != nil {
		log.Error().Err(err).Str("session_id", st.SessionID).Msg("save session state")
	}
}

// finalAnswer picks the reply for this turn: the latest agent message that
// carries text and requests no tools. Tool requests and observations are
// working state, not customer-facing output.
func finalAnswer(transcript []contractx.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		msg := transcript[i]
		if msg.Role == contractx.RoleUser {
			break
		}
		if msg.IsFinalAnswer() && strings.TrimSpace(msg.Text) != "" {
			return msg.Text
		}
	}
	return replyNoAnswer
}
