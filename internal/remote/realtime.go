package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sethvargo/go-retry"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/logging"
)

// ChangeType mirrors the event names the change feed emits.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is one row-level event from the remote change feed. Record holds
// the new row for inserts and updates; OldID identifies the deleted row.
type Change struct {
	Collection string
	Type       ChangeType
	Record     json.RawMessage
	OldID      string
}

// ChangeHandler receives decoded changes. Handlers run on the listener
// goroutine, so they must not block for long.
type ChangeHandler func(Change)

// Listener maintains a websocket subscription to row-level changes on the
// content collections, reconnecting with exponential backoff after drops.
type Listener struct {
	url     string
	apiKey  string
	tokenFn func() string
	handler ChangeHandler
	logger  logging.Logger
}

func NewListener(url, apiKey string, tokenFn func() string, handler ChangeHandler, logger logging.Logger) *Listener {
	return &Listener{
		url:     url,
		apiKey:  apiKey,
		tokenFn: tokenFn,
		handler: handler,
		logger:  logger,
	}
}

var watchedCollections = []string{
	common.CollectionCards,
	common.CollectionSubjects,
	common.CollectionCourses,
	common.CollectionMemos,
	common.CollectionProgress,
}

type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ref     string          `json:"ref"`
}

type changePayload struct {
	Record    json.RawMessage `json:"record"`
	OldRecord struct {
		ID string `json:"id"`
	} `json:"old_record"`
}

// Run blocks, keeping the subscription alive until ctx is cancelled. Each
// successful session resets the reconnect backoff.
func (l *Listener) Run(ctx context.Context) error {
	for {
		backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := l.session(ctx); err != nil {
				l.logger.Warn(ctx, "realtime session ended", "error", err)
				return retry.RetryableError(err)
			}
			return nil
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
	}
}

func (l *Listener) session(ctx context.Context) error {
	u := fmt.Sprintf("%s?apikey=%s&token=%s", l.url, l.apiKey, l.tokenFn())
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for i, table := range watchedCollections {
		join := frame{
			Topic: "realtime:public:" + table,
			Event: "phx_join",
			Ref:   fmt.Sprintf("%d", i+1),
		}
		if err := wsjson.Write(ctx, conn, join); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", table, err)
		}
	}
	l.logger.Info(ctx, "realtime subscription established")

	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.heartbeat(hbCtx, conn)

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read realtime frame: %w", err)
		}
		l.dispatch(ctx, f)
	}
}

func (l *Listener) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hb := frame{Topic: "phoenix", Event: "heartbeat", Ref: "hb"}
			if err := wsjson.Write(ctx, conn, hb); err != nil {
				return
			}
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, f frame) {
	t := ChangeType(f.Event)
	if t != ChangeInsert && t != ChangeUpdate && t != ChangeDelete {
		return
	}
	table, ok := topicTable(f.Topic)
	if !ok {
		return
	}

	var p changePayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		l.logger.Warn(ctx, "failed to decode change payload", "error", err, "topic", f.Topic)
		return
	}
	l.handler(Change{
		Collection: table,
		Type:       t,
		Record:     p.Record,
		OldID:      p.OldRecord.ID,
	})
}

func topicTable(topic string) (string, bool) {
	const prefix = "realtime:public:"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	return topic[len(prefix):], true
}

// DecodeChangeRecord maps a change's raw record to the local model for its
// collection. The returned value is one of the models types.
func DecodeChangeRecord(ch Change) (any, error) {
	switch ch.Collection {
	case common.CollectionCards:
		var r cardRow
		if err := json.Unmarshal(ch.Record, &r); err != nil {
			return nil, err
		}
		return cardFromRow(r), nil
	case common.CollectionSubjects:
		var r subjectRow
		if err := json.Unmarshal(ch.Record, &r); err != nil {
			return nil, err
		}
		return subjectFromRow(r), nil
	case common.CollectionCourses:
		var r courseRow
		if err := json.Unmarshal(ch.Record, &r); err != nil {
			return nil, err
		}
		return courseFromRow(r), nil
	case common.CollectionMemos:
		var r memoRow
		if err := json.Unmarshal(ch.Record, &r); err != nil {
			return nil, err
		}
		return memoFromRow(r), nil
	case common.CollectionProgress:
		var r progressRow
		if err := json.Unmarshal(ch.Record, &r); err != nil {
			return nil, err
		}
		return progressFromRow(r), nil
	default:
		return nil, errors.New("unknown collection: " + ch.Collection)
	}
}
