package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// brokerPort is the vendor broker's mTLS listener.
	brokerPort = "8883"

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options configures a broker connection.
type Options struct {
	// Endpoint is the broker host from the cloud credentials, with or
	// without a port. The vendor mTLS port is appended when absent.
	Endpoint string

	// ClientID is the full broker client identity.
	ClientID string

	// Username is the broker user id from the cloud credentials.
	Username string

	// CertificatePEM and PrivateKeyPEM are the transient client keypair.
	// They stay in memory; nothing here writes them anywhere.
	CertificatePEM string
	PrivateKeyPEM  string

	// ConnectTimeout bounds the initial connection attempt. Defaults to 10s.
	ConnectTimeout time.Duration
}

// buildClientOptions creates paho MQTT options for the vendor broker.
//
// This configures:
//   - Broker URL (always ssl://, vendor port appended when missing)
//   - Client identity and username from the cloud credentials
//   - In-memory TLS client certificate
//   - Auto-reconnect with exponential backoff
//   - Clean session mode
func buildClientOptions(o Options) (*pahomqtt.ClientOptions, error) {
	tlsConfig, err := newTLSConfig(o.CertificatePEM, o.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker("ssl://" + ensurePort(o.Endpoint))
	opts.SetClientID(o.ClientID)
	opts.SetUsername(o.Username)
	opts.SetTLSConfig(tlsConfig)

	// Clean session - the device republishes state on request, so there
	// is nothing worth having the broker queue across sessions.
	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff. The session layer decides
	// when an outage has lasted long enough to need fresh credentials.
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetConnectTimeout(timeout)
	opts.SetKeepAlive(defaultKeepAlive)

	return opts, nil
}

// newTLSConfig builds the mTLS client configuration from the in-memory
// keypair.
func newTLSConfig(certPEM, keyPEM string) (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
	}
	return &tls.Config{
		MinVersion:   tlsMinVersion,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// ensurePort appends the vendor broker port when the endpoint carries none.
func ensurePort(endpoint string) string {
	if _, _, err := net.SplitHostPort(endpoint); err == nil {
		return endpoint
	}
	return net.JoinHostPort(endpoint, brokerPort)
}
