// Package agent sequences one conversational turn: resolve session,
// append the utterance, classify, dispatch, snapshot, persist.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/blink/internal/dispatch"
	"github.com/thebtf/blink/internal/metrics"
	"github.com/thebtf/blink/internal/ports"
	"github.com/thebtf/blink/internal/session"
	"github.com/thebtf/blink/pkg/models"
)

// notifyTimeout bounds the fire-and-forget analytics delivery that
// outlives the request.
const notifyTimeout = 15 * time.Second

// Coordinator orchestrates turns. Turns for different keys run
// concurrently; turns for the same key are serialized on the key lock for
// the full load/mutate/save span.
type Coordinator struct {
	store      session.Store
	locks      *session.KeyLock
	classifier ports.Classifier
	dispatcher *dispatch.Dispatcher
	analytics  ports.AnalyticsSink
	metrics    *metrics.Metrics
}

// New creates a Coordinator.
func New(
	store session.Store,
	classifier ports.Classifier,
	dispatcher *dispatch.Dispatcher,
	analytics ports.AnalyticsSink,
	m *metrics.Metrics,
) *Coordinator {
	return &Coordinator{
		store:      store,
		locks:      session.NewKeyLock(),
		classifier: classifier,
		dispatcher: dispatcher,
		analytics:  analytics,
		metrics:    m,
	}
}

// HandleTurn runs one full turn. Save is the single commit point: if the
// request is cancelled first, the in-memory mutation is discarded and the
// stored record stays as it was. Internal failures surface as a generic
// apology reply, never as a crash.
func (c *Coordinator) HandleTurn(ctx context.Context, req models.TurnRequest) (models.TurnResponse, error) {
	now := time.Now().UTC()
	key := session.Key{Channel: req.Channel, UserID: req.UserID, SessionID: req.SessionID}

	unlock := c.locks.Lock(key)
	defer unlock()

	sess, err := c.store.Load(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("session", key.String()).Msg("Session load failed")
		return c.apologyResponse(), nil
	}
	if sess == nil {
		sess = session.New(key, now)
	}

	sess.AppendUserMessage(req.Text, now)

	intent, err := c.classifier.Classify(ctx, ports.ClassifyRequest{
		Text:    req.Text,
		History: sess.RecentHistory(5),
	})
	if err != nil {
		c.metrics.PortFailure(ctx, "classifier")
		log.Warn().Err(err).Str("session", key.String()).Msg("Classifier degraded to unknown intent")
		intent = models.UnknownIntent()
	}

	reply, done := c.safeDispatch(ctx, sess, intent)
	sess.AppendAssistantMessage(reply, now)
	c.metrics.Turn(ctx, string(intent.Intent))

	// Snapshot before anything downstream can touch the record.
	snapshot := sess.Snapshot()

	c.recordTurn(ctx, key, sess, intent, req.Text, reply, now)

	if err := ctx.Err(); err != nil {
		// Cancelled before commit: drop the mutation.
		return models.TurnResponse{}, err
	}
	if err := c.store.Save(ctx, sess); err != nil {
		log.Error().Err(err).Str("session", key.String()).Msg("Session save failed")
		return c.apologyResponse(), nil
	}

	log.Debug().
		Str("session", key.String()).
		Str("intent", string(intent.Intent)).
		Str("step", sess.State.Step).
		Bool("done", done).
		Int("turn", sess.ShortTerm.TurnCount).
		Msg("Turn handled")

	return models.TurnResponse{
		ReplyText:      reply,
		SessionDone:    done,
		MemorySnapshot: snapshot,
	}, nil
}

// safeDispatch guards the turn against panics from handlers or ports so a
// single poisoned session cannot take the coordinator down.
func (c *Coordinator) safeDispatch(ctx context.Context, sess *session.Context, in models.IntentData) (reply string, done bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session", sess.Key().String()).Msg("Dispatch panicked")
			reply = c.dispatcher.Replies().Get(dispatch.ReplyApology)
			done = sess.State.Done
		}
	}()
	return c.dispatcher.Dispatch(ctx, sess, in)
}

// recordTurn fires the analytics event after the reply is computed. It
// runs detached from the request so it can never delay or fail the turn.
func (c *Coordinator) recordTurn(ctx context.Context, key session.Key, sess *session.Context, in models.IntentData, userText, reply string, now time.Time) {
	phone := in.Phone
	if phone == "" {
		phone = sess.State.Scratchpad.Phone
	}
	address := in.Address
	if address == "" {
		address = sess.State.Scratchpad.Address
	}

	event := ports.TurnEvent{
		EventID:        uuid.NewString(),
		Timestamp:      now,
		Session:        ports.SessionRef{Channel: key.Channel, UserID: key.UserID, SessionID: key.SessionID},
		Intent:         in.Intent,
		UserText:       userText,
		ReplyText:      reply,
		Flow:           sess.State.Flow,
		Step:           sess.State.Step,
		Items:          in.Items,
		Notes:          in.Notes,
		Phone:          phone,
		Address:        address,
		LastOrderID:    sess.State.Scratchpad.LastOrderID,
		LastOrderItems: sess.State.Scratchpad.LastOrderItems,
		Satisfaction:   in.Satisfaction,
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		c.analytics.Record(detached, event)
	}()
}

func (c *Coordinator) apologyResponse() models.TurnResponse {
	return models.TurnResponse{
		ReplyText: c.dispatcher.Replies().Get(dispatch.ReplyApology),
	}
}
