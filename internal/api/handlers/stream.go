package handlers

import (
	"net/http"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/services"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	streamBuffer     = 256
	streamWriteWait  = 10 * time.Second
	streamReadWait   = 30 * time.Second
	streamReadLimit  = 1 << 20
	msgTypeEvent     = "event"
	msgTypeResult    = "result"
	msgTypeError     = "error"
	msgTypeCompleted = "complete"
)

type streamMessage struct {
	Type   string                `json:"type"`
	Event  *services.Event       `json:"event,omitempty"`
	Result *dto.OptimizeResponse `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// StreamHandler runs an optimization over a WebSocket: the client sends one
// OptimizeRequest and receives progress events followed by the result.
// 2-opt move events are dropped when the client cannot keep up.
type StreamHandler struct {
	Planner Planner
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))

	write := func(m streamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(m)
	}

	_, raw, err := conn.NextReader()
	if err != nil {
		return
	}
	req, err := decodeOptimizeRequest(raw)
	if err != nil {
		_ = write(streamMessage{Type: msgTypeError, Error: err.Error()})
		return
	}

	events := make(chan services.Event, streamBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			if err := write(streamMessage{Type: msgTypeEvent, Event: &e}); err != nil {
				log.Debug().Err(err).Msg("stream write failed")
				for range events {
				}
				return
			}
		}
	}()

	observer := services.ObserverFunc(func(e services.Event) {
		if e.Kind == services.EventTwoOptMove {
			select {
			case events <- e:
			default:
			}
			return
		}
		events <- e
	})

	run, err := h.Planner.Plan(r.Context(), services.PlanRequest{
		Stops:     req.DomainStops(),
		StartName: req.Start,
		Attempts:  req.Attempts,
		Observer:  observer,
	})
	close(events)
	<-done

	if err != nil {
		msg := err.Error()
		if statusFor(err) == http.StatusInternalServerError {
			log.Error().Err(err).Msg("stream optimize failed")
			msg = "internal server error"
		}
		_ = write(streamMessage{Type: msgTypeError, Error: msg})
		return
	}

	res := dto.RunToResponse(run)
	if err := write(streamMessage{Type: msgTypeResult, Result: &res}); err != nil {
		return
	}
	_ = write(streamMessage{Type: msgTypeCompleted})
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait),
	)
}
