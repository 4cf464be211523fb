package grpcserver

import (
	"maps"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mahenzon/todo-app/internal/access"
	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/events"
	"github.com/mahenzon/todo-app/internal/filter"
	"github.com/mahenzon/todo-app/internal/model"
)

// Subscribe streams change events of one collection. The first frame is a connect
// frame; afterwards every event the caller may view and the filter matches is sent
// until the client goes away.
func (s *Server) Subscribe(req *structpb.Struct, stream recordsv1.SubscribeServer) error {
	if s.bus == nil {
		return status.Error(codes.Unavailable, "realtime disabled")
	}
	ctx := stream.Context()
	collection, where, _, err := query(convert.FromStruct(req))
	if err != nil {
		return s.toStatus("subscribe", err)
	}
	auth := callerID(ctx)

	sub, err := s.bus.Subscribe(collection)
	if err != nil {
		return s.toStatus("subscribe", err)
	}
	defer func() { _ = sub.Close() }()

	if s.metrics != nil {
		s.metrics.SubscriptionsActive.Inc()
		defer s.metrics.SubscriptionsActive.Dec()
	}

	connect, err := convert.ToStruct(model.Record{
		recordsv1.KeyAction:     string(model.ActionConnect),
		recordsv1.KeyCollection: collection,
	})
	if err != nil {
		return s.toStatus("subscribe", err)
	}
	if err := stream.Send(connect); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return status.Error(codes.Unavailable, "event feed closed")
			}
			if !visible(ev, auth, where) {
				continue
			}
			frame, err := convert.ToStruct(model.Record{
				recordsv1.KeyAction:     string(ev.Action),
				recordsv1.KeyCollection: ev.Collection,
				recordsv1.KeyRecord:     ev.Record,
			})
			if err != nil {
				s.log.Warn("drop unencodable event", zap.String("collection", ev.Collection), zap.Error(err))
				continue
			}
			if err := stream.Send(frame); err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.EventsDelivered.WithLabelValues(ev.Collection).Inc()
			}
		}
	}
}

// visible applies the view rule and the subscriber filter to an event.
func visible(ev events.Event, auth uuid.UUID, where *filter.Expr) bool {
	if !access.Allowed(access.StageView, auth, access.Owner{UserID: ev.Owner, Public: ev.Public}) {
		return false
	}
	rec := ev.Record
	if ev.Collection == model.CollectionTodos {
		rec = maps.Clone(ev.Record)
		if rec == nil {
			rec = model.Record{}
		}
		rec["list.user"] = ev.Owner.String()
		rec["list.is_public"] = ev.Public
	}
	return where.Match(rec)
}
