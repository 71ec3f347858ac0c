package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/auth"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
	replyBuffer    = 8
)

// Handler upgrades authenticated requests to a live event socket. Every
// connection listens on the caller's own topic. Couriers may also send signals.
type Handler struct {
	verifier   tokenVerifier
	hub        subscriber
	couriers   CourierActions
	deliveries DeliveryActions
	logger     logx.Logger
	upgrader   websocket.Upgrader
	opTimeout  time.Duration
}

// NewHandler creates the socket handler.
func NewHandler(v tokenVerifier, hub subscriber, couriers CourierActions, deliveries DeliveryActions, logger logx.Logger) *Handler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Handler{
		verifier:   v,
		hub:        hub,
		couriers:   couriers,
		deliveries: deliveries,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		opTimeout: 5 * time.Second,
	}
}

func topicFor(id auth.Identity) string {
	if id.IsCourier() {
		return live.CourierTopic(id.ID)
	}
	return live.CustomerTopic(id.ID)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", logx.Err(err))
		return
	}

	c := &client{
		h:       h,
		conn:    conn,
		id:      id,
		sub:     h.hub.Subscribe(topicFor(id)),
		replies: make(chan envelope, replyBuffer),
		done:    make(chan struct{}),
		logger:  h.logger.With(logx.UUID("user_id", id.ID), logx.String("role", id.Role)),
	}
	c.logger.Info("ws connected", logx.String("topic", c.sub.Topic()))

	go c.writePump()
	c.readPump()
}

type client struct {
	h       *Handler
	conn    *websocket.Conn
	id      auth.Identity
	sub     *live.Subscription
	replies chan envelope
	done    chan struct{}
	logger  logx.Logger
}

// readPump owns the read side and tears the connection down when it ends.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.sub.Close()
		c.logger.Info("ws disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", logx.Err(err))
			}
			return
		}
		c.reply(c.handle(raw))
	}
}

func (c *client) reply(env envelope) {
	select {
	case c.replies <- env:
	case <-c.done:
	}
}

// writePump is the only writer on the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.sub.C():
			if !ok {
				return
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case env := <-c.replies:
			b, err := json.Marshal(env)
			if err != nil {
				c.logger.Error("ws encode reply", logx.Err(err))
				continue
			}
			if err := c.write(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(kind int, b []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, b)
}

func (c *client) handle(raw []byte) envelope {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil || in.Type == "" {
		return fail("", "invalid message")
	}
	if !c.id.IsCourier() {
		return fail(in.Type, "signals require the courier role")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.h.opTimeout)
	defer cancel()

	order, err := c.dispatch(ctx, in)
	if err != nil {
		if !clientError(err) {
			c.logger.Error("ws signal failed", logx.String("signal", in.Type), logx.Err(err))
			return fail(in.Type, "internal error")
		}
		c.logger.Info("ws signal rejected", logx.String("signal", in.Type), logx.Err(err))
		return fail(in.Type, err.Error())
	}
	return ack(in.Type, order)
}

// clientError reports whether err is safe to show to the caller as is.
func clientError(err error) bool {
	for _, target := range []error{
		errUnknownSignal, errBadPayload,
		apperr.Invalid, apperr.Exhausted, apperr.Forbidden, apperr.NotFound, apperr.Conflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var (
	errUnknownSignal = errors.New("unknown signal")
	errBadPayload    = errors.New("invalid payload")
)

func (c *client) dispatch(ctx context.Context, in inbound) (*domain.Order, error) {
	courierID := c.id.ID
	switch in.Type {
	case SignalGoOnline, SignalLocation:
		p, err := decodePoint(in.Data)
		if err != nil {
			return nil, err
		}
		if in.Type == SignalGoOnline {
			return nil, c.h.couriers.GoOnline(ctx, courierID, p)
		}
		return nil, c.h.couriers.ReportLocation(ctx, courierID, p)
	case SignalGoOffline:
		return nil, c.h.couriers.GoOffline(ctx, courierID)
	}

	switch in.Type {
	case SignalAccept, SignalReject, SignalPickup, SignalStartDelivery, SignalComplete:
	default:
		return nil, errUnknownSignal
	}

	var d orderData
	if err := json.Unmarshal(in.Data, &d); err != nil || d.OrderID == uuid.Nil {
		return nil, errBadPayload
	}

	switch in.Type {
	case SignalAccept:
		return c.h.couriers.Accept(ctx, courierID, d.OrderID)
	case SignalReject:
		c.h.couriers.Reject(courierID, d.OrderID)
		return nil, nil
	case SignalPickup:
		return c.h.deliveries.MarkPickedUp(ctx, courierID, d.OrderID)
	case SignalStartDelivery:
		return c.h.deliveries.MarkOnTheWay(ctx, courierID, d.OrderID)
	default:
		return c.h.deliveries.Complete(ctx, courierID, d.OrderID, d.Code)
	}
}

func decodePoint(raw json.RawMessage) (geo.Point, error) {
	var d pointData
	if err := json.Unmarshal(raw, &d); err != nil || d.Lat == nil || d.Lng == nil {
		return geo.Point{}, errBadPayload
	}
	return geo.Point{Lat: *d.Lat, Lng: *d.Lng}, nil
}
