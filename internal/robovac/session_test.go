package robovac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ashdale/robovac-bridge/internal/cloud"
	"github.com/ashdale/robovac-bridge/internal/protocol"
	"github.com/ashdale/robovac-bridge/internal/transport"
)

// mockBroker is an in-memory Broker double. Tests drive inbound traffic
// with SimulateMessage and inspect published commands.
type mockBroker struct {
	mu           sync.Mutex
	connected    bool
	closed       bool
	handlers     map[string]transport.MessageHandler
	published    []mockPublish
	onConnect    func()
	onDisconnect func(err error)
	subscribeErr error
	publishErr   error
}

type mockPublish struct {
	topic   string
	payload []byte
	qos     byte
}

func newMockBroker() *mockBroker {
	return &mockBroker{
		connected: true,
		handlers:  make(map[string]transport.MessageHandler),
	}
}

func (m *mockBroker) Subscribe(topic string, qos byte, handler transport.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.handlers[topic] = handler
	return nil
}

func (m *mockBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{topic: topic, payload: payload, qos: qos})
	return nil
}

func (m *mockBroker) SetOnConnect(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = callback
}

func (m *mockBroker) SetOnDisconnect(callback func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = callback
}

func (m *mockBroker) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockBroker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.connected = false
	return nil
}

// SimulateMessage delivers a raw payload to the subscribed handler, the
// way the paho client would on one of its own goroutines.
func (m *mockBroker) SimulateMessage(topic string, payload []byte) error {
	m.mu.Lock()
	handler := m.handlers[topic]
	m.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no handler for topic %s", topic)
	}
	return handler(topic, payload)
}

func (m *mockBroker) setConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *mockBroker) publishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func (m *mockBroker) lastPublish(t *testing.T) mockPublish {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.published) == 0 {
		t.Fatal("nothing published")
	}
	return m.published[len(m.published)-1]
}

// mockCloud is a CloudClient double serving fixed credentials and a
// fixed data-point snapshot.
type mockCloud struct {
	mu          sync.Mutex
	credsErr    error
	deviceErr   error
	snapshot    map[string]any
	credCalls   int
	deviceCalls int
}

func (c *mockCloud) MQTTCredentials(ctx context.Context) (*cloud.MQTTCredentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credCalls++
	if c.credsErr != nil {
		return nil, c.credsErr
	}
	return &cloud.MQTTCredentials{
		UserID:         "user-1",
		AppName:        "eufy_home",
		Endpoint:       "broker.example.com",
		CertificatePEM: "cert",
		PrivateKeyPEM:  "key",
	}, nil
}

func (c *mockCloud) Device(ctx context.Context, deviceID string) (*cloud.DeviceSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceCalls++
	if c.deviceErr != nil {
		return nil, c.deviceErr
	}
	return &cloud.DeviceSummary{
		DeviceID:   deviceID,
		Model:      "T2262",
		DataPoints: c.snapshot,
	}, nil
}

// newTestSession builds a connected session backed by the given mocks.
func newTestSession(t *testing.T, mock *mockBroker, cl *mockCloud) *Session {
	t.Helper()
	session, err := NewSession(SessionOptions{
		DeviceID: "SN1",
		Model:    "T2262",
		OpenUDID: "udid-1",
		Cloud:    cl,
		Dial: func(opts transport.Options) (Broker, error) {
			return mock, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { session.Disconnect() })
	return session
}

// waitFor polls a condition until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// inboundEnvelope builds the vendor report wrapper around a data batch,
// payload carried as a nested JSON string the way firmware sends it.
func inboundEnvelope(t *testing.T, data map[string]any) []byte {
	t.Helper()
	inner, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		t.Fatalf("encoding inner payload: %v", err)
	}
	raw, err := json.Marshal(map[string]any{"payload": string(inner)})
	if err != nil {
		t.Fatalf("encoding envelope: %v", err)
	}
	return raw
}

func TestSessionConnect(t *testing.T) {
	mock := newMockBroker()
	cl := &mockCloud{snapshot: map[string]any{"163": 87}}

	var dialled transport.Options
	session, err := NewSession(SessionOptions{
		DeviceID: "SN1",
		Model:    "T2262",
		OpenUDID: "udid-1",
		Cloud:    cl,
		Dial: func(opts transport.Options) (Broker, error) {
			dialled = opts
			return mock, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer session.Disconnect()

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	if dialled.Endpoint != "broker.example.com" {
		t.Errorf("dialled endpoint = %q", dialled.Endpoint)
	}
	if dialled.Username != "user-1" {
		t.Errorf("dialled username = %q", dialled.Username)
	}
	wantClientID := "android-eufy_home-eufy_android_udid-1_user-1"
	if dialled.ClientID != wantClientID {
		t.Errorf("dialled client id = %q, want %q", dialled.ClientID, wantClientID)
	}
	if dialled.CertificatePEM != "cert" || dialled.PrivateKeyPEM != "key" {
		t.Error("dialled TLS material does not match credentials")
	}

	mock.mu.Lock()
	_, subscribed := mock.handlers["cmd/eufy_home/T2262/SN1/res"]
	mock.mu.Unlock()
	if !subscribed {
		t.Error("response topic not subscribed")
	}

	if got := session.ConnectionState(); got != StateConnected {
		t.Errorf("ConnectionState() = %v, want connected", got)
	}

	// The cloud snapshot seeds state before any live report.
	waitFor(t, func() bool {
		battery, ok := session.State().BatteryLevel()
		return ok && battery == 87
	}, "snapshot seed never reached the store")
}

func TestSessionConnect_Terminal(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	if err := session.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect() error = %v, want ErrAlreadyConnected", err)
	}

	session.Disconnect()
	if err := session.Connect(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Connect() after Disconnect error = %v, want ErrSessionClosed", err)
	}
}

func TestSessionConnect_CredentialFailure(t *testing.T) {
	session, err := NewSession(SessionOptions{
		DeviceID: "SN1",
		Model:    "T2262",
		OpenUDID: "udid-1",
		Cloud:    &mockCloud{credsErr: errors.New("cloud down")},
		Dial: func(opts transport.Options) (Broker, error) {
			t.Fatal("dial reached without credentials")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	if err := session.Connect(context.Background()); err == nil {
		t.Fatal("Connect() succeeded without credentials")
	}
	// A failed first connect closes the session.
	if got := session.ConnectionState(); got != StateDisconnected {
		t.Errorf("ConnectionState() = %v, want disconnected", got)
	}
	if err := session.Play(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Play() after failed connect error = %v, want ErrSessionClosed", err)
	}
}

func TestSessionConnect_SubscribeFailureClosesBroker(t *testing.T) {
	mock := newMockBroker()
	mock.subscribeErr = errors.New("broker refused")

	session, err := NewSession(SessionOptions{
		DeviceID: "SN1",
		Model:    "T2262",
		OpenUDID: "udid-1",
		Cloud:    &mockCloud{},
		Dial: func(opts transport.Options) (Broker, error) {
			return mock, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	if err := session.Connect(context.Background()); err == nil {
		t.Fatal("Connect() succeeded despite subscribe failure")
	}
	mock.mu.Lock()
	closed := mock.closed
	mock.mu.Unlock()
	if !closed {
		t.Error("broker left open after subscribe failure")
	}
}

func TestSessionInboundUpdatesState(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	notified := make(chan struct{}, 16)
	session.AddObserver(func() { notified <- struct{}{} })

	raw := inboundEnvelope(t, map[string]any{"163": 87})
	if err := mock.SimulateMessage("cmd/eufy_home/T2262/SN1/res", raw); err != nil {
		t.Fatalf("SimulateMessage() error: %v", err)
	}

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("observer never notified")
	}
	if battery, ok := session.State().BatteryLevel(); !ok || battery != 87 {
		t.Errorf("BatteryLevel() = %d, %v, want 87", battery, ok)
	}
}

func TestSessionDisjointBatchesMerge(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	notified := make(chan struct{}, 16)
	session.AddObserver(func() { notified <- struct{}{} })

	topic := "cmd/eufy_home/T2262/SN1/res"
	status := protocol.Encode(&protocol.WorkStatus{State: protocol.WorkStateCleaning})
	mock.SimulateMessage(topic, inboundEnvelope(t, map[string]any{"163": 87}))
	mock.SimulateMessage(topic, inboundEnvelope(t, map[string]any{"153": status}))

	// Exactly one notification per applied batch, and the second batch
	// must not disturb fields the first one set.
	for i := 0; i < 2; i++ {
		select {
		case <-notified:
		case <-time.After(2 * time.Second):
			t.Fatalf("observer round %d never arrived", i+1)
		}
	}
	select {
	case <-notified:
		t.Fatal("extra observer notification")
	case <-time.After(50 * time.Millisecond):
	}

	if battery, ok := session.State().BatteryLevel(); !ok || battery != 87 {
		t.Errorf("BatteryLevel() = %d, %v, want 87", battery, ok)
	}
	if got := session.State().Activity(); got != ActivityCleaning {
		t.Errorf("Activity() = %v, want cleaning", got)
	}
}

func TestSessionMalformedInboundDropped(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	notified := make(chan struct{}, 16)
	session.AddObserver(func() { notified <- struct{}{} })

	topic := "cmd/eufy_home/T2262/SN1/res"
	if err := mock.SimulateMessage(topic, []byte("not json")); err == nil {
		t.Error("malformed message was not rejected")
	}

	// Acknowledgement-only messages carry no data batch; both cases must
	// leave state and observers untouched.
	if err := mock.SimulateMessage(topic, []byte(`{"head":{}}`)); err != nil {
		t.Errorf("data-less message rejected: %v", err)
	}

	select {
	case <-notified:
		t.Fatal("observer notified with nothing applied")
	case <-time.After(50 * time.Millisecond):
	}
	if _, ok := session.State().BatteryLevel(); ok {
		t.Error("state mutated by dropped message")
	}
}

func TestSessionObserverPanicIsolated(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	survived := make(chan struct{}, 16)
	session.AddObserver(func() { panic("observer bug") })
	session.AddObserver(func() { survived <- struct{}{} })

	topic := "cmd/eufy_home/T2262/SN1/res"
	mock.SimulateMessage(topic, inboundEnvelope(t, map[string]any{"163": 50}))
	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("second observer starved by panicking first")
	}

	// The next cycle must still notify.
	mock.SimulateMessage(topic, inboundEnvelope(t, map[string]any{"163": 49}))
	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("notification cycle broken after observer panic")
	}
}

// decodePublished unwraps a published command down to its data batch.
func decodePublished(t *testing.T, p mockPublish) map[string]any {
	t.Helper()
	var outer struct {
		Head    envelopeHead `json:"head"`
		Payload string       `json:"payload"`
	}
	if err := json.Unmarshal(p.payload, &outer); err != nil {
		t.Fatalf("published envelope invalid: %v", err)
	}
	if outer.Head.Cmd != envelopeCmd || outer.Head.Version != envelopeVersion {
		t.Errorf("published head = %+v", outer.Head)
	}
	var inner struct {
		AccountID string         `json:"account_id"`
		Data      map[string]any `json:"data"`
		DeviceSN  string         `json:"device_sn"`
	}
	if err := json.Unmarshal([]byte(outer.Payload), &inner); err != nil {
		t.Fatalf("published payload invalid: %v", err)
	}
	if inner.AccountID != "user-1" || inner.DeviceSN != "SN1" {
		t.Errorf("published identity = %q/%q", inner.AccountID, inner.DeviceSN)
	}
	return inner.Data
}

func TestSessionCommandPublish(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	if err := session.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}

	p := mock.lastPublish(t)
	if p.topic != "cmd/eufy_home/T2262/SN1/req" {
		t.Errorf("published to %q, want request topic", p.topic)
	}

	data := decodePublished(t, p)
	encoded, ok := data["152"].(string)
	if !ok {
		t.Fatalf("data = %v, want mode control on code 152", data)
	}
	msg, err := protocol.DecodeBase64(protocol.SchemaModeControl, encoded)
	if err != nil {
		t.Fatalf("decoding published command: %v", err)
	}
	if got := msg.(*protocol.ModeCtrlRequest).Method; got != protocol.MethodPauseTask {
		t.Errorf("published method = %v, want PAUSE_TASK", got)
	}
}

func TestSessionRoomClean(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	if err := session.RoomClean(nil, 1); !errors.Is(err, ErrNoRooms) {
		t.Errorf("RoomClean(nil) error = %v, want ErrNoRooms", err)
	}
	if mock.publishCount() != 0 {
		t.Fatal("rejected command still published")
	}

	if err := session.RoomClean([]int{7, 3, 9}, 2); err != nil {
		t.Fatalf("RoomClean() error: %v", err)
	}

	data := decodePublished(t, mock.lastPublish(t))
	msg, err := protocol.DecodeBase64(protocol.SchemaModeControl, data["152"].(string))
	if err != nil {
		t.Fatalf("decoding published command: %v", err)
	}
	req := msg.(*protocol.ModeCtrlRequest)
	if req.Method != protocol.MethodStartSelectRoomsClean {
		t.Errorf("method = %v, want START_SELECT_ROOMS_CLEAN", req.Method)
	}
	if req.SelectRoomsClean == nil {
		t.Fatal("room selection missing")
	}
	if req.SelectRoomsClean.MapID != 2 {
		t.Errorf("map id = %d, want 2", req.SelectRoomsClean.MapID)
	}
	want := []protocol.Room{{ID: 7, Order: 1}, {ID: 3, Order: 2}, {ID: 9, Order: 3}}
	got := req.SelectRoomsClean.Rooms
	if len(got) != len(want) {
		t.Fatalf("rooms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("room[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSessionSetCleanSpeed(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	if err := session.SetCleanSpeed("warp"); !errors.Is(err, protocol.ErrUnknownCleanSpeed) {
		t.Errorf("SetCleanSpeed(warp) error = %v, want ErrUnknownCleanSpeed", err)
	}
	if mock.publishCount() != 0 {
		t.Fatal("invalid speed still published")
	}

	if err := session.SetCleanSpeed("Boost"); err != nil {
		t.Fatalf("SetCleanSpeed() error: %v", err)
	}
	data := decodePublished(t, mock.lastPublish(t))
	if data["158"] != float64(2) {
		t.Errorf("published speed = %v, want index 2 on code 158", data["158"])
	}
}

func TestSessionLegacyDialectRouting(t *testing.T) {
	mock := newMockBroker()
	cl := &mockCloud{}

	session, err := NewSession(SessionOptions{
		DeviceID: "SN1",
		Model:    "T2118",
		OpenUDID: "udid-1",
		Cloud:    cl,
		Dial: func(opts transport.Options) (Broker, error) {
			return mock, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer session.Disconnect()

	// Roster seeding classifies the dialect before any traffic.
	session.State().ApplyRaw(map[string]any{"104": 87})
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	if err := session.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	p := mock.lastPublish(t)
	if p.topic != "cmd/eufy_home/T2118/SN1/req" {
		t.Errorf("published to %q", p.topic)
	}
	data := decodePublished(t, p)
	if _, ok := data["2"]; !ok {
		t.Errorf("data = %v, want play/pause on legacy code 2", data)
	}
}

func TestSessionPublishGuards(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	mock.setConnected(false)
	if err := session.Play(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Play() while offline error = %v, want ErrNotConnected", err)
	}

	mock.setConnected(true)
	session.Disconnect()
	if err := session.Play(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Play() after close error = %v, want ErrSessionClosed", err)
	}
}

func TestSessionConnectionLost(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	mock.mu.Lock()
	onDisconnect := mock.onDisconnect
	onConnect := mock.onConnect
	mock.mu.Unlock()
	if onDisconnect == nil || onConnect == nil {
		t.Fatal("lifecycle callbacks not registered")
	}

	onDisconnect(errors.New("link down"))
	if got := session.ConnectionState(); got != StateReconnecting {
		t.Errorf("ConnectionState() after loss = %v, want reconnecting", got)
	}

	onConnect()
	if got := session.ConnectionState(); got != StateConnected {
		t.Errorf("ConnectionState() after recovery = %v, want connected", got)
	}
	// Recovery refreshes the snapshot to cover the outage window.
	cl := session.cloud.(*mockCloud)
	waitFor(t, func() bool {
		cl.mu.Lock()
		defer cl.mu.Unlock()
		return cl.deviceCalls >= 2
	}, "snapshot not refreshed after reconnect")
}

func TestSessionDisconnectDuringReconnect(t *testing.T) {
	mock := newMockBroker()
	session := newTestSession(t, mock, &mockCloud{})

	mock.mu.Lock()
	onDisconnect := mock.onDisconnect
	mock.mu.Unlock()
	mock.setConnected(false)
	onDisconnect(errors.New("link down"))

	session.Disconnect()
	if got := session.ConnectionState(); got != StateDisconnected {
		t.Errorf("ConnectionState() = %v, want disconnected", got)
	}
	mock.mu.Lock()
	closed := mock.closed
	mock.mu.Unlock()
	if !closed {
		t.Error("broker left open after Disconnect")
	}

	// Late transport callbacks after close must not resurrect the session.
	onDisconnect(errors.New("late event"))
	if got := session.ConnectionState(); got != StateDisconnected {
		t.Errorf("late callback moved state to %v", got)
	}
}

func TestSessionCredentialRedial(t *testing.T) {
	firstBroker := newMockBroker()
	secondBroker := newMockBroker()
	cl := &mockCloud{}

	var (
		dialMu sync.Mutex
		dials  int
	)
	session, err := NewSession(SessionOptions{
		DeviceID:      "SN1",
		Model:         "T2262",
		OpenUDID:      "udid-1",
		Cloud:         cl,
		CredentialTTL: 20 * time.Millisecond,
		Dial: func(opts transport.Options) (Broker, error) {
			dialMu.Lock()
			defer dialMu.Unlock()
			dials++
			if dials == 1 {
				return firstBroker, nil
			}
			return secondBroker, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer session.Disconnect()

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	// An outage outliving the credential TTL must force a full redial
	// with freshly fetched credentials.
	firstBroker.setConnected(false)
	firstBroker.mu.Lock()
	onDisconnect := firstBroker.onDisconnect
	firstBroker.mu.Unlock()
	onDisconnect(errors.New("broker gone"))

	waitFor(t, func() bool {
		dialMu.Lock()
		defer dialMu.Unlock()
		return dials >= 2
	}, "session never redialled")

	waitFor(t, func() bool {
		return session.ConnectionState() == StateConnected
	}, "session never recovered")

	firstBroker.mu.Lock()
	oldClosed := firstBroker.closed
	firstBroker.mu.Unlock()
	if !oldClosed {
		t.Error("stale broker connection left open")
	}

	cl.mu.Lock()
	credCalls := cl.credCalls
	cl.mu.Unlock()
	if credCalls < 2 {
		t.Errorf("credential fetches = %d, want a fresh fetch for the redial", credCalls)
	}

	// The replacement connection must carry the device subscription.
	secondBroker.mu.Lock()
	_, subscribed := secondBroker.handlers["cmd/eufy_home/T2262/SN1/res"]
	secondBroker.mu.Unlock()
	if !subscribed {
		t.Error("redialled broker missing device subscription")
	}
}
