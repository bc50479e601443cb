package robovac

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashdale/robovac-bridge/internal/cloud"
	"github.com/ashdale/robovac-bridge/internal/transport"
)

// Default session tuning.
const (
	defaultConnectTimeout = 30 * time.Second
	defaultCredentialTTL  = 5 * time.Minute
	defaultQoS            = 1

	// inboundBuffer absorbs bursts from the transport callback while the
	// serialized handler catches up.
	inboundBuffer = 64

	// redialInitialDelay/redialMaxDelay bound the backoff between
	// credential-refresh redial attempts.
	redialInitialDelay = 5 * time.Second
	redialMaxDelay     = 60 * time.Second
)

// CloudClient is the credential collaborator a session needs: transient
// broker credentials plus the cloud-side data-point snapshot.
type CloudClient interface {
	MQTTCredentials(ctx context.Context) (*cloud.MQTTCredentials, error)
	Device(ctx context.Context, deviceID string) (*cloud.DeviceSummary, error)
}

// Broker is one live connection to the vendor broker. Implemented by
// transport.Client; faked in tests.
type Broker interface {
	Subscribe(topic string, qos byte, handler transport.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	IsConnected() bool
	Close() error
}

// Dialer opens broker connections. Production wires transport.Connect.
type Dialer func(opts transport.Options) (Broker, error)

// Observer is invoked after every applied state-update batch. Observers
// run on the session's handler goroutine and see fully-merged state; a
// panicking observer is isolated and logged.
type Observer func()

// SessionOptions configures a device session.
type SessionOptions struct {
	// DeviceID is the vendor serial. Required.
	DeviceID string

	// Model is the five-character vendor model code used in topic
	// construction. Required.
	Model string

	// Name is the human-readable device name.
	Name string

	// OpenUDID is this installation's identity, embedded in the broker
	// client id. Required.
	OpenUDID string

	// QoS for subscribe and publish. Defaults to 1.
	QoS byte

	// ConnectTimeout bounds credential acquisition plus the broker
	// handshake for one attempt. Defaults to 30s.
	ConnectTimeout time.Duration

	// CredentialTTL is how long broker credentials are trusted across an
	// outage. A disconnect lasting longer forces a fresh credential fetch
	// and a full redial. Defaults to 5m.
	CredentialTTL time.Duration

	// Cloud provides credentials and snapshots. Required.
	Cloud CloudClient

	// Dial opens broker connections. Defaults to the transport package.
	Dial Dialer

	// Logger receives structured log output. Optional.
	Logger Logger
}

// Session owns the broker lifecycle and state synchronization for one
// physical device.
//
// Lifecycle: NewSession → Connect → (commands, observers) → Disconnect.
// Disconnect is terminal; a closed session never reconnects.
type Session struct {
	deviceID string
	model    string
	name     string
	openudid string

	qos            byte
	connectTimeout time.Duration
	credentialTTL  time.Duration

	cloud  CloudClient
	dial   Dialer
	logger Logger

	store *Store

	// mu guards the connection fields below.
	mu        sync.Mutex
	broker    Broker
	creds     *cloud.MQTTCredentials
	clientID  string
	connState ConnectionState
	started   bool
	closed    bool

	observers []Observer
	obsMu     sync.Mutex

	// inbound carries parsed data-point batches from the transport
	// callback into the serialized handler. This is the only hand-off
	// between the transport's goroutines and session state.
	inbound chan map[string]any

	// lost/regained carry connection events to the redial supervisor.
	lost     chan struct{}
	regained chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSession creates a session for one device. No I/O happens until
// Connect.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("robovac: device id is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("robovac: device model is required")
	}
	if opts.OpenUDID == "" {
		return nil, fmt.Errorf("robovac: openudid is required")
	}
	if opts.Cloud == nil {
		return nil, fmt.Errorf("robovac: cloud client is required")
	}

	if opts.QoS == 0 {
		opts.QoS = defaultQoS
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.CredentialTTL <= 0 {
		opts.CredentialTTL = defaultCredentialTTL
	}
	if opts.Dial == nil {
		opts.Dial = func(o transport.Options) (Broker, error) {
			return transport.Connect(o)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		deviceID:       opts.DeviceID,
		model:          opts.Model,
		name:           opts.Name,
		openudid:       opts.OpenUDID,
		qos:            opts.QoS,
		connectTimeout: opts.ConnectTimeout,
		credentialTTL:  opts.CredentialTTL,
		cloud:          opts.Cloud,
		dial:           opts.Dial,
		logger:         opts.Logger,
		store:          NewStore(opts.Logger),
		connState:      StateDisconnected,
		inbound:        make(chan map[string]any, inboundBuffer),
		lost:           make(chan struct{}, 1),
		regained:       make(chan struct{}, 1),
		ctx:            ctx,
		cancel:         cancel,
	}, nil
}

// DeviceID returns the vendor serial.
func (s *Session) DeviceID() string { return s.deviceID }

// Model returns the five-character model code.
func (s *Session) Model() string { return s.model }

// Name returns the human-readable device name.
func (s *Session) Name() string { return s.name }

// State returns the session's state store for normalized reads.
func (s *Session) State() *Store { return s.store }

// Activity reports the device's normalized activity. Shorthand for
// State().Activity().
func (s *Session) Activity() Activity { return s.store.Activity() }

// BatteryLevel reports the battery percentage, ok false when unknown.
func (s *Session) BatteryLevel() (int, bool) { return s.store.BatteryLevel() }

// CleanSpeed reports the current suction level name.
func (s *Session) CleanSpeed() string { return s.store.CleanSpeed() }

// ErrorCode reports the first active warning code, 0 when none.
func (s *Session) ErrorCode() int { return s.store.ErrorCode() }

// ConnectionState returns the transport lifecycle state.
func (s *Session) ConnectionState() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connState
}

// Connect acquires fresh broker credentials, dials the broker,
// subscribes to the device's response topic and seeds state with the
// cloud snapshot. The context bounds this attempt only; the session
// then lives until Disconnect.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.started = true
	s.connState = StateConnecting
	s.mu.Unlock()

	// The handler loop must be running before the broker can deliver, so
	// the snapshot seed and early reports have a consumer.
	s.wg.Add(2)
	go s.processLoop()
	go s.supervise()

	attemptCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	if err := s.establish(attemptCtx); err != nil {
		// A failed first connect closes the session; the caller builds a
		// fresh one to retry.
		s.Disconnect()
		return err
	}
	s.logInfo("session connected")
	return nil
}

// establish performs one full connection attempt: fresh credentials,
// dial, subscribe, snapshot seed.
func (s *Session) establish(ctx context.Context) error {
	creds, err := s.cloud.MQTTCredentials(ctx)
	if err != nil {
		return fmt.Errorf("acquiring broker credentials: %w", err)
	}

	clientID := brokerClientID(creds.AppName, s.openudid, creds.UserID)
	broker, err := s.dial(transport.Options{
		Endpoint:       creds.Endpoint,
		ClientID:       clientID,
		Username:       creds.UserID,
		CertificatePEM: creds.CertificatePEM,
		PrivateKeyPEM:  creds.PrivateKeyPEM,
		ConnectTimeout: s.connectTimeout,
	})
	if err != nil {
		return fmt.Errorf("dialling broker: %w", err)
	}

	broker.SetOnConnect(s.handleRegained)
	broker.SetOnDisconnect(s.handleLost)

	topic := transport.Topics{}.DeviceResponse(s.model, s.deviceID)
	if err := broker.Subscribe(topic, s.qos, s.handleMessage); err != nil {
		broker.Close()
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	s.mu.Lock()
	s.broker = broker
	s.creds = creds
	s.clientID = clientID
	s.connState = StateConnected
	s.mu.Unlock()

	// The device may have published before the subscription existed;
	// the cloud snapshot covers that window.
	s.seedSnapshot(ctx)
	return nil
}

// seedSnapshot fetches the cloud-side data-point snapshot and feeds it
// through the ordinary inbound path. Failure is tolerated: live reports
// will fill the gaps.
func (s *Session) seedSnapshot(ctx context.Context) {
	summary, err := s.cloud.Device(ctx, s.deviceID)
	if err != nil {
		s.logWarn("snapshot fetch failed", "error", err)
		return
	}
	if len(summary.DataPoints) == 0 {
		return
	}
	s.enqueue(summary.DataPoints)
}

// handleMessage runs on a transport goroutine: parse only, then hand
// off to the serialized handler.
func (s *Session) handleMessage(topic string, payload []byte) error {
	batch, err := parseInbound(payload)
	if err != nil {
		// Drop the message; a single malformed report must not affect
		// the session. The transport wrapper logs the returned error.
		return fmt.Errorf("dropping inbound message: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}
	s.enqueue(batch)
	return nil
}

func (s *Session) enqueue(batch map[string]any) {
	select {
	case s.inbound <- batch:
	case <-s.ctx.Done():
	}
}

// processLoop is the session's serialized handler: every store mutation
// and observer notification happens here, one batch at a time.
func (s *Session) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case batch := <-s.inbound:
			touched := s.store.ApplyRaw(batch)
			if len(touched) == 0 {
				continue
			}
			s.logDebug("state updated", "fields", len(touched))
			s.notifyObservers()
		}
	}
}

// AddObserver registers a state-change observer. Observers are invoked
// in registration order after every applied batch; duplicates are
// invoked once per registration.
func (s *Session) AddObserver(observer Observer) {
	if observer == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, observer)
	s.obsMu.Unlock()
}

// notifyObservers invokes a snapshot of the observer list. A failing
// observer is isolated: the rest still run, and the next cycle is
// unaffected.
func (s *Session) notifyObservers() {
	s.obsMu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, observer := range observers {
		s.invokeObserver(observer)
	}
}

func (s *Session) invokeObserver(observer Observer) {
	defer func() {
		if r := recover(); r != nil {
			s.logError("observer panic recovered", "panic", r)
		}
	}()
	observer()
}

// handleLost runs on a transport goroutine when the connection drops.
func (s *Session) handleLost(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.connState = StateReconnecting
	s.mu.Unlock()

	s.logWarn("broker connection lost", "error", err)
	select {
	case s.lost <- struct{}{}:
	default:
	}
}

// handleRegained runs on a transport goroutine when the client
// reconnects on its own (credentials still valid). Subscriptions are
// restored by the transport; we refresh the snapshot to cover the gap.
func (s *Session) handleRegained() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	regained := s.connState == StateReconnecting
	if regained {
		s.connState = StateConnected
	}
	s.mu.Unlock()

	if !regained {
		return
	}
	s.logInfo("broker connection regained")
	select {
	case s.regained <- struct{}{}:
	default:
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.connectTimeout)
	defer cancel()
	s.seedSnapshot(ctx)
}

// supervise watches for outages outliving the credential TTL. The
// transport's own backoff covers short drops; past the TTL the broker
// keypair is presumed expired, so the old connection is torn down and a
// fresh establish cycle runs with newly fetched credentials.
func (s *Session) supervise() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.lost:
		}

		timer := time.NewTimer(s.credentialTTL)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-s.regained:
			timer.Stop()
			continue
		case <-timer.C:
		}

		if s.brokerConnected() {
			// A stale signal from a connection that already recovered.
			continue
		}
		s.redial()
	}
}

// redial replaces the broker connection using fresh credentials,
// retrying with backoff until it succeeds or the session closes.
func (s *Session) redial() {
	s.mu.Lock()
	old := s.broker
	s.broker = nil
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	delay := redialInitialDelay
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.logInfo("redialling broker with fresh credentials")
		ctx, cancel := context.WithTimeout(s.ctx, s.connectTimeout)
		err := s.establish(ctx)
		cancel()
		if err == nil {
			s.logInfo("broker connection re-established")
			// Absorb any stale regained signal from the old connection.
			select {
			case <-s.regained:
			default:
			}
			return
		}
		s.logWarn("redial failed", "error", err, "retry_in", delay)

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay *= 2; delay > redialMaxDelay {
			delay = redialMaxDelay
		}
	}
}

func (s *Session) brokerConnected() bool {
	s.mu.Lock()
	broker := s.broker
	s.mu.Unlock()
	return broker != nil && broker.IsConnected()
}

// Disconnect tears the session down. It is terminal: pending reconnect
// attempts are cancelled, no further inbound processing occurs, and the
// session cannot be connected again. Safe to call more than once.
func (s *Session) Disconnect() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.connState = StateDisconnected
		broker := s.broker
		s.broker = nil
		s.mu.Unlock()

		s.cancel()
		if broker != nil {
			broker.Close()
		}
		s.wg.Wait()
		s.logInfo("session disconnected")
	})
	return nil
}

// publishData wraps a data-point batch in the vendor envelope and
// publishes it to the device's request topic. Fire-and-forget: success
// means the transport accepted the send, not that the device acted.
func (s *Session) publishData(data map[string]any) error {
	s.mu.Lock()
	broker := s.broker
	creds := s.creds
	clientID := s.clientID
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrSessionClosed
	}
	if broker == nil || creds == nil || !broker.IsConnected() {
		return ErrNotConnected
	}

	payload, err := buildEnvelope(clientID, creds.UserID, s.deviceID, data, time.Now())
	if err != nil {
		return err
	}

	topic := transport.Topics{}.DeviceRequest(s.model, s.deviceID)
	if err := broker.Publish(topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}
	return nil
}

func (s *Session) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, append(args, "device_id", s.deviceID)...)
	}
}

func (s *Session) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, append(args, "device_id", s.deviceID)...)
	}
}

func (s *Session) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, append(args, "device_id", s.deviceID)...)
	}
}

func (s *Session) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append(args, "device_id", s.deviceID)...)
	}
}
