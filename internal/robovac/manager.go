package robovac

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashdale/robovac-bridge/internal/cloud"
)

// RosterClient is the full cloud collaborator the manager needs: login
// and roster on top of the per-session capabilities.
type RosterClient interface {
	CloudClient
	Login(ctx context.Context) error
	ListDevices(ctx context.Context) ([]cloud.DeviceSummary, error)
}

// ManagerOptions configures a session manager.
type ManagerOptions struct {
	// Cloud is the authenticated roster collaborator. Required.
	Cloud RosterClient

	// OpenUDID is this installation's identity. Required.
	OpenUDID string

	// QoS, ConnectTimeout and CredentialTTL are passed through to each
	// session; zero values take the session defaults.
	QoS            byte
	ConnectTimeout time.Duration
	CredentialTTL  time.Duration

	// Dial overrides broker dialling, for tests.
	Dial Dialer

	// Logger receives structured log output. Optional.
	Logger Logger
}

// Manager resolves the account's device roster into one session per
// device and owns their lifecycles.
type Manager struct {
	opts ManagerOptions

	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
}

// NewManager creates a manager. Call Start to log in and connect.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Cloud == nil {
		return nil, fmt.Errorf("robovac: cloud client is required")
	}
	if opts.OpenUDID == "" {
		return nil, fmt.Errorf("robovac: openudid is required")
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}, nil
}

// Start logs into the cloud, resolves the roster and connects one
// session per device. A device that fails to connect is logged and
// skipped; the rest of the fleet still comes up. Start fails only when
// login or roster resolution fails, or when no session could connect.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.opts.Cloud.Login(ctx); err != nil {
		return fmt.Errorf("cloud login: %w", err)
	}

	devices, err := m.opts.Cloud.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("resolving roster: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices on account")
	}

	connected := 0
	for _, device := range devices {
		session, err := NewSession(SessionOptions{
			DeviceID:       device.DeviceID,
			Model:          device.Model,
			Name:           device.Name,
			OpenUDID:       m.opts.OpenUDID,
			QoS:            m.opts.QoS,
			ConnectTimeout: m.opts.ConnectTimeout,
			CredentialTTL:  m.opts.CredentialTTL,
			Cloud:          m.opts.Cloud,
			Dial:           m.opts.Dial,
			Logger:         m.opts.Logger,
		})
		if err != nil {
			m.logWarn("skipping device", "device_id", device.DeviceID, "error", err)
			continue
		}

		// Seed state from the roster snapshot before any live report;
		// this also classifies the dialect up front.
		session.State().ApplyRaw(device.DataPoints)

		if err := session.Connect(ctx); err != nil {
			m.logWarn("device failed to connect", "device_id", device.DeviceID, "error", err)
			continue
		}

		m.mu.Lock()
		m.sessions[device.DeviceID] = session
		m.order = append(m.order, device.DeviceID)
		m.mu.Unlock()
		connected++
	}

	if connected == 0 {
		return fmt.Errorf("no device session could connect")
	}
	m.logInfo("sessions started", "count", connected)
	return nil
}

// Session returns the session for a device serial.
func (m *Manager) Session(deviceID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return session, nil
}

// Sessions returns all live sessions in roster order.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}

// Close disconnects every session.
func (m *Manager) Close() error {
	for _, session := range m.Sessions() {
		session.Disconnect()
	}
	return nil
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.opts.Logger != nil {
		m.opts.Logger.Info(msg, args...)
	}
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.opts.Logger != nil {
		m.opts.Logger.Warn(msg, args...)
	}
}
