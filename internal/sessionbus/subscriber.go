package sessionbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"keywatch/internal/logging"
	"keywatch/internal/retry"
)

// ErrNoEndpoint reports that no candidate endpoint could be subscribed after
// exhausting the retry policy. The watcher cannot function without lock-state
// visibility, so callers treat this as fatal.
var ErrNoEndpoint = errors.New("sessionbus: no lock-state endpoint available")

// Event is one lock-state notification. Locked is true while the session is
// locked. Events are forwarded as received, duplicates included.
type Event struct {
	Locked bool
}

// busConn is the subset of *dbus.Conn the subscriber needs, split out so
// tests can substitute a fake bus.
type busConn interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

type connectFunc func() (busConn, error)

type probeFunc func(ctx context.Context, conn busConn, ep Endpoint) error

// Subscriber locks onto the first answering screensaver endpoint and streams
// its lock-state notifications for the process lifetime.
type Subscriber struct {
	logger    *slog.Logger
	endpoints []Endpoint
	policy    retry.Policy
	connect   connectFunc
	probe     probeFunc

	mu      sync.Mutex
	conn    busConn
	chosen  Endpoint
	events  chan Event
	quit    chan struct{}
	running bool
	wg      sync.WaitGroup
}

// NewSubscriber creates a subscriber over the default session bus connection.
func NewSubscriber(logger *slog.Logger, endpoints []Endpoint, policy retry.Policy) *Subscriber {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints()
	}
	return &Subscriber{
		logger:    logging.NewComponentLogger(logger, "sessionbus"),
		endpoints: endpoints,
		policy:    policy,
		connect:   connectSessionBus,
		probe:     probeEndpoint,
	}
}

func connectSessionBus() (busConn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return conn, nil
}

// probeEndpoint calls GetActive on the candidate. A reply, whatever its
// value, means the service is present and emitting ActiveChanged.
func probeEndpoint(ctx context.Context, conn busConn, ep Endpoint) error {
	real, ok := conn.(*dbus.Conn)
	if !ok {
		return errors.New("probe requires a real bus connection")
	}
	var active bool
	call := real.Object(ep.Interface, ep.Path).CallWithContext(ctx, ep.Interface+"."+probeMethod, 0)
	if call.Err != nil {
		return fmt.Errorf("probe %s: %w", ep, call.Err)
	}
	if err := call.Store(&active); err != nil {
		return fmt.Errorf("probe %s: decode reply: %w", ep, err)
	}
	return nil
}

// Start connects to the session bus and subscribes to the first candidate
// endpoint that answers, retrying the full list per the policy. On success
// the event stream is available from Events until Stop or context
// cancellation. Exhausting the retries returns ErrNoEndpoint.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("sessionbus: subscriber already started")
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}

	var chosen *Endpoint
	retryErr := s.policy.Do(ctx, func(attempt int) error {
		for _, ep := range s.endpoints {
			if err := s.probe(ctx, conn, ep); err != nil {
				s.logger.Debug("endpoint probe failed",
					logging.String("endpoint", ep.String()),
					logging.Int("attempt", attempt),
					logging.Error(err),
				)
				continue
			}
			ep := ep
			chosen = &ep
			return nil
		}
		s.logger.Warn("no lock-state endpoint answered",
			logging.Int("attempt", attempt),
			logging.String(logging.FieldEventType, "subscribe_attempt_failed"),
			logging.String(logging.FieldErrorHint, "verify a screensaver service is running on the session bus"),
		)
		return ErrNoEndpoint
	})
	if retryErr != nil {
		_ = conn.Close()
		if errors.Is(retryErr, context.Canceled) || errors.Is(retryErr, context.DeadlineExceeded) {
			return retryErr
		}
		return fmt.Errorf("%w: %v", ErrNoEndpoint, retryErr)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(chosen.Interface),
		dbus.WithMatchObjectPath(chosen.Path),
		dbus.WithMatchMember(signalMember),
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("add signal match for %s: %w", chosen, err)
	}

	s.conn = conn
	s.chosen = *chosen
	s.events = make(chan Event, 16)
	s.quit = make(chan struct{})
	s.running = true

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	s.wg.Add(1)
	go s.forward(ctx, signals, s.quit)

	s.logger.Info("subscribed to lock-state notifications",
		logging.String("endpoint", chosen.String()),
		logging.String(logging.FieldEventType, "sessionbus_subscribed"),
	)
	return nil
}

// Events returns the lock-state event stream. Only valid after Start.
func (s *Subscriber) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Endpoint returns the endpoint in use. Only valid after Start.
func (s *Subscriber) Endpoint() Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chosen
}

// Stop tears down the subscription and closes the event stream.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	quit := s.quit
	conn := s.conn
	s.running = false
	s.quit = nil
	s.conn = nil
	s.mu.Unlock()

	close(quit)
	if conn != nil {
		_ = conn.Close()
	}
	s.wg.Wait()
}

func (s *Subscriber) forward(ctx context.Context, signals chan *dbus.Signal, quit <-chan struct{}) {
	defer s.wg.Done()
	defer close(s.events)

	expected := s.chosen.Interface + "." + signalMember
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case sig, ok := <-signals:
			if !ok || sig == nil {
				return
			}
			if sig.Name != expected {
				continue
			}
			if len(sig.Body) != 1 {
				s.logger.Debug("ignoring malformed lock-state signal",
					logging.Int("args", len(sig.Body)))
				continue
			}
			locked, ok := sig.Body[0].(bool)
			if !ok {
				s.logger.Debug("ignoring non-boolean lock-state signal")
				continue
			}
			select {
			case s.events <- Event{Locked: locked}:
			case <-ctx.Done():
				return
			case <-quit:
				return
			}
		}
	}
}
