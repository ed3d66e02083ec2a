package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"banterbus/internal/models"
	"banterbus/internal/notifications"
	"banterbus/internal/observability"
)

// Response is one outbound frame produced by a handler. An empty Target
// addresses the originating session; otherwise Target is a session id or a
// room id. A handler may return several responses, e.g. one customized
// payload per player.
type Response struct {
	Target  string
	Event   string
	Payload any
}

// ToSID addresses a response to one session.
func ToSID(sid, event string, payload any) Response {
	return Response{Target: sid, Event: event, Payload: payload}
}

// ToRoom addresses a response to every member of a room.
func ToRoom(roomID, event string, payload any) Response {
	return Response{Target: roomID, Event: event, Payload: payload}
}

// ToCaller addresses a response to the session the event came from.
func ToCaller(event string, payload any) Response {
	return Response{Event: event, Payload: payload}
}

type runFunc func(ctx context.Context, sid string) ([]Response, error)

type handlerEntry struct {
	errCode string
	prepare func(raw json.RawMessage) (roomID string, run runFunc, err error)
}

// Dispatcher decodes inbound frames, runs the registered handler under the
// room lock and fans the responses out through the emitter.
type Dispatcher struct {
	emitter  notifications.Emitter
	logger   *observability.EventLogger
	handlers map[string]handlerEntry
	locks    *roomLocks

	disconnect func(ctx context.Context, sid string) ([]Response, error)
}

// NewDispatcher returns a dispatcher with no handlers registered.
func NewDispatcher(emitter notifications.Emitter, logger *observability.EventLogger) *Dispatcher {
	return &Dispatcher{
		emitter:  emitter,
		logger:   logger,
		handlers: make(map[string]handlerEntry),
		locks:    newRoomLocks(),
	}
}

// Register binds an inbound event to a typed handler. errCode is the wire
// code used when the handler fails with a semantic error. roomKey extracts
// the room whose lock serializes the handler; nil or an empty result means
// no lock is taken.
func Register[T any](
	d *Dispatcher, event, errCode string,
	roomKey func(in T) string,
	handle func(ctx context.Context, sid string, in T) ([]Response, error),
) {
	d.handlers[event] = handlerEntry{
		errCode: errCode,
		prepare: func(raw json.RawMessage) (string, runFunc, error) {
			var in T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &in); err != nil {
					return "", nil, err
				}
			}
			roomID := ""
			if roomKey != nil {
				roomID = roomKey(in)
			}
			run := func(ctx context.Context, sid string) ([]Response, error) {
				return handle(ctx, sid, in)
			}
			return roomID, run, nil
		},
	}
}

// SetDisconnectHandler binds the transport's disconnect callback. The
// handler resolves the player's room itself and must take the room lock via
// WithRoomLock.
func (d *Dispatcher) SetDisconnectHandler(fn func(ctx context.Context, sid string) ([]Response, error)) {
	d.disconnect = fn
}

// WithRoomLock runs fn while holding the room's mutual-exclusion lock.
func (d *Dispatcher) WithRoomLock(roomID string, fn func() ([]Response, error)) ([]Response, error) {
	unlock := d.locks.lock(roomID)
	defer unlock()
	return fn()
}

// Dispatch handles one inbound frame from a session.
func (d *Dispatcher) Dispatch(ctx context.Context, sid string, raw []byte) {
	var frame notifications.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.emitError(ctx, "", sid, ErrCodeServerError, "Message received was not valid", err)
		return
	}

	entry, ok := d.handlers[frame.Event]
	if !ok {
		observability.RecordEvent(frame.Event, "unknown")
		log.Printf("session %s sent unknown event %s", sid, frame.Event)
		return
	}

	d.logger.LogInbound(ctx, frame.Event, sid)
	start := time.Now()
	defer observability.ObserveHandler(frame.Event, start)

	roomID, run, err := entry.prepare(frame.Data)
	if err != nil {
		observability.RecordEvent(frame.Event, "decode_error")
		d.emitError(ctx, frame.Event, sid, ErrCodeServerError, "Message received was not valid", err)
		return
	}

	ctx, span := observability.TraceEvent(ctx, frame.Event, roomID)
	defer span.End()

	var responses []Response
	if roomID != "" {
		responses, err = d.WithRoomLock(roomID, func() ([]Response, error) {
			return run(ctx, sid)
		})
	} else {
		responses, err = run(ctx, sid)
	}
	if err != nil {
		observability.RecordEvent(frame.Event, "error")
		code, message := d.mapError(entry.errCode, err)
		d.emitError(ctx, frame.Event, sid, code, message, err)
		return
	}

	observability.RecordEvent(frame.Event, "ok")
	d.emitAll(ctx, sid, responses)
}

// HandleConnect records a new session. Informational only.
func (d *Dispatcher) HandleConnect(ctx context.Context, sid string) {
	d.logger.LogInbound(ctx, "connect", sid)
	observability.RecordEvent("connect", "ok")
}

// HandleDisconnect runs the registered disconnect flow for a lost session.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, sid string) {
	if d.disconnect == nil {
		return
	}
	d.logger.LogInbound(ctx, "disconnect", sid)
	start := time.Now()
	defer observability.ObserveHandler("disconnect", start)

	responses, err := d.disconnect(ctx, sid)
	if err != nil {
		// The session is gone, nobody to report to.
		observability.RecordEvent("disconnect", "error")
		d.logger.LogError(ctx, "disconnect", sid, ErrCodeServerError, err)
		return
	}
	observability.RecordEvent("disconnect", "ok")
	d.emitAll(ctx, sid, responses)
}

func (d *Dispatcher) emitAll(ctx context.Context, sid string, responses []Response) {
	for _, response := range responses {
		target := response.Target
		if target == "" {
			target = sid
		}
		d.logger.LogOutbound(ctx, response.Event, target, logPayload(response.Payload))
		d.emitter.Emit(target, response.Event, response.Payload)
	}
}

// mapError turns a handler failure into a wire error code and user-facing
// message. Internal failures never leak their message.
func (d *Dispatcher) mapError(errCode string, err error) (string, string) {
	var timedOut *models.ActionTimedOutError
	if errors.As(err, &timedOut) {
		return ErrCodeTimeRunOut, "Action took too long, time ran out"
	}
	if models.HasCode(err, models.CodePlayerNotInRoom) {
		return ErrCodePlayerNotInRoom, "Player is not in room"
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		return errCode, appErr.Message
	}
	return ErrCodeServerError, "An unexpected error occurred"
}

func (d *Dispatcher) emitError(ctx context.Context, event, sid, code, message string, err error) {
	d.logger.LogError(ctx, event, sid, code, err)
	payload := ErrorPayload{Code: code, Message: message}
	d.logger.LogOutbound(ctx, EventError, sid, logPayload(payload))
	d.emitter.Emit(sid, EventError, payload)
}

// logPayload converts a typed payload to the map shape the event logger
// redacts and logs.
func logPayload(payload any) map[string]any {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// roomLocks is a refcounted keyed mutex; entries disappear when the last
// holder releases.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

func (l *roomLocks) lock(roomID string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[roomID]
	if !ok {
		entry = &roomLock{}
		l.locks[roomID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}
