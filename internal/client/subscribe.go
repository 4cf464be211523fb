package client

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

// TopicAll subscribes to every record of a collection.
const TopicAll = "*"

// SubscribeOptions narrows a subscription like ListOptions narrows a list.
type SubscribeOptions struct {
	Filter string
	Params map[string]any
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) stop() {
	s.cancel()
	<-s.done
}

func subKey(collection, topic string) string { return collection + "/" + topic }

// Subscribe opens a change stream for topic (TopicAll or a record id) and returns once
// the server confirmed it with the connect frame. handler runs on the stream goroutine
// for every event until Unsubscribe. An existing subscription of the same topic is
// replaced.
func (col *Collection) Subscribe(ctx context.Context, topic string, o SubscribeOptions, handler func(model.RecordEvent)) error {
	if topic == "" {
		return errors.New("subscribe: empty topic")
	}
	if handler == nil {
		return errors.New("subscribe: nil handler")
	}
	if err := ctx.Err(); err != nil {
		return &ResponseError{Code: codes.Canceled, Message: "subscribe: " + err.Error(), Abort: true}
	}
	filter, params := o.Filter, maps.Clone(o.Params)
	if topic != TopicAll {
		if params == nil {
			params = map[string]any{}
		}
		params["topicId"] = topic
		filter = joinFilter(filter, "id = {:topicId}")
	}

	req := model.Record{recordsv1.KeyCollection: col.name}
	if filter != "" {
		req[recordsv1.KeyFilter] = filter
	}
	if len(params) > 0 {
		req[recordsv1.KeyParams] = params
	}
	in, err := convert.ToStruct(req)
	if err != nil {
		return err
	}

	col.c.unsubscribe(func(k string) bool { return k == subKey(col.name, topic) })

	// the stream outlives ctx, which only bounds the wait for the connect frame
	streamCtx, cancel := context.WithCancel(context.Background())
	stopWait := context.AfterFunc(ctx, cancel)
	stream, err := col.c.rpc.Subscribe(streamCtx, in, col.c.callOpts...)
	if err != nil {
		stopWait()
		cancel()
		return responseError(ctx, err)
	}
	first, err := stream.Recv()
	if !stopWait() {
		cancel()
		return &ResponseError{Code: codes.Canceled, Message: "subscribe: " + context.Cause(ctx).Error(), Abort: true}
	}
	if err != nil {
		cancel()
		return responseError(ctx, err)
	}
	if action := convert.FromStruct(first).String(recordsv1.KeyAction); action != string(model.ActionConnect) {
		cancel()
		return fmt.Errorf("subscribe: unexpected first frame %q", action)
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	col.c.mu.Lock()
	col.c.subs[subKey(col.name, topic)] = sub
	col.c.mu.Unlock()

	go func() {
		defer close(sub.done)
		for {
			frame, err := stream.Recv()
			if err != nil {
				if streamCtx.Err() == nil {
					col.c.log.Warn("subscription ended", zap.String("collection", col.name), zap.Error(err))
				}
				return
			}
			msg := convert.FromStruct(frame)
			rec, _ := msg[recordsv1.KeyRecord].(map[string]any)
			handler(model.RecordEvent{
				Action:     model.Action(msg.String(recordsv1.KeyAction)),
				Collection: msg.String(recordsv1.KeyCollection),
				Record:     model.Record(rec),
			})
		}
	}()
	return nil
}

// Unsubscribe closes the given topics, or every subscription of the collection when
// none are given. It waits for the handlers to return, so it must not be called from
// inside a handler.
func (col *Collection) Unsubscribe(topics ...string) {
	prefix := col.name + "/"
	col.c.unsubscribe(func(k string) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if len(topics) == 0 {
			return true
		}
		for _, t := range topics {
			if k == subKey(col.name, t) {
				return true
			}
		}
		return false
	})
}

func (c *Client) unsubscribe(match func(key string) bool) {
	c.mu.Lock()
	var stopping []*subscription
	for k, s := range c.subs {
		if match(k) {
			stopping = append(stopping, s)
			delete(c.subs, k)
		}
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range stopping {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.stop()
		}()
	}
	wg.Wait()
}

func joinFilter(a, b string) string {
	if strings.TrimSpace(a) == "" {
		return b
	}
	return "(" + a + ") && " + b
}
