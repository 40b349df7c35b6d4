package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

const (
	DefaultSubject = "emissions"
	DefaultQueue   = "emissions-engine"
	submitSuffix   = ".submit"
	evaluateSuffix = ".evaluate"
)

// NATSConnector reaches an engine node through NATS request/reply.
type NATSConnector struct {
	url     string
	subject string
	timeout time.Duration
	opts    []nats.Option
}

type NATSOption func(*NATSConnector)

func WithSubject(subject string) NATSOption {
	return func(c *NATSConnector) {
		c.subject = subject
	}
}

// WithRequestTimeout bounds a request when the caller context has no deadline.
func WithRequestTimeout(timeout time.Duration) NATSOption {
	return func(c *NATSConnector) {
		c.timeout = timeout
	}
}

func WithNATSOptions(opts ...nats.Option) NATSOption {
	return func(c *NATSConnector) {
		c.opts = append(c.opts, opts...)
	}
}

func NewNATSConnector(url string, opts ...NATSOption) *NATSConnector {
	c := &NATSConnector{
		url:     url,
		subject: DefaultSubject,
		timeout: 10 * time.Second,
		opts:    []nats.Option{nats.Name("emissions-client")},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *NATSConnector) Connect(ctx context.Context) (Client, error) {
	conn, err := nats.Connect(c.url, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %s", carbonaccounting.ErrTransport, c.url, err.Error())
	}
	return &natsClient{conn: conn, subject: c.subject, timeout: c.timeout}, nil
}

type natsClient struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

func (c *natsClient) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return c.request(ctx, c.subject+submitSuffix, fn, args)
}

func (c *natsClient) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return c.request(ctx, c.subject+evaluateSuffix, fn, args)
}

func (c *natsClient) request(ctx context.Context, subject, fn string, args []string) ([]byte, error) {
	data, err := json.Marshal(request{Fn: fn, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", fn, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %s", carbonaccounting.ErrTransport, fn, subject, err.Error())
	}
	return decodeResponse(msg.Data)
}

func (c *natsClient) Close() error {
	c.conn.Close()
	return nil
}

// Server answers NATS transactions with an engine running over a world state.
// Nodes sharing a queue group split the load.
type Server struct {
	conn    *nats.Conn
	subject string
	queue   string
	engine  *engine.Engine
	state   store.WorldState

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewServer(conn *nats.Conn, e *engine.Engine, state store.WorldState, subject, queue string) *Server {
	if subject == "" {
		subject = DefaultSubject
	}
	if queue == "" {
		queue = DefaultQueue
	}
	return &Server{
		conn:    conn,
		subject: subject,
		queue:   queue,
		engine:  e,
		state:   state,
	}
}

func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for suffix, state := range map[string]store.WorldState{
		submitSuffix:   s.state,
		evaluateSuffix: store.ReadOnly(s.state),
	} {
		subject := s.subject + suffix
		sub, err := s.conn.QueueSubscribe(subject, s.queue, func(msg *nats.Msg) {
			if err := msg.Respond(s.handle(context.Background(), state, msg.Data)); err != nil {
				slog.Warn("failed to respond", "subject", subject, "err", err.Error())
			}
		})
		if err != nil {
			return fmt.Errorf("failed to queue subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
		slog.Info("serving ledger transactions", "subject", subject, "queue", s.queue)
	}
	return nil
}

// handle runs one transaction. A subscription delivers its messages one at a
// time, so submissions to a node are serialized.
func (s *Server) handle(ctx context.Context, state store.WorldState, data []byte) []byte {
	start := time.Now()

	req := request{}
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeResponse(nil, fmt.Errorf("%w: malformed ledger request: %s", carbonaccounting.ErrParse, err.Error()))
	}

	payload, err := s.engine.Invoke(ctx, state, req.Fn, req.Args)
	slog.Debug("transaction served", "fn", req.Fn, "duration", time.Since(start), "kind", kindOf(err))
	return encodeResponse(payload, err)
}

func kindOf(err error) string {
	if err == nil {
		return ""
	}
	return carbonaccounting.Kind(err)
}

// Close drains the subscriptions so in flight transactions complete.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.subs = nil
	return firstErr
}
