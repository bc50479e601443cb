package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/ashdale/robovac-bridge/internal/robovac"
)

// WriteVacuumState records one normalized state sample for a device.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Battery is only written when the device has reported it, so charge
// history never contains fabricated zeros.
func (c *Client) WriteVacuumState(deviceID, model string, state *robovac.Store) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"activity":    string(state.Activity()),
		"work_mode":   state.WorkMode(),
		"clean_speed": state.CleanSpeed(),
		"error_code":  state.ErrorCode(),
	}
	if battery, ok := state.BatteryLevel(); ok {
		fields["battery"] = battery
	}

	point := write.NewPoint(
		"vacuum_state",
		map[string]string{
			"device_id": deviceID,
			"model":     model,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectionEvent records a session transport lifecycle change.
func (c *Client) WriteConnectionEvent(deviceID string, state robovac.ConnectionState) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"vacuum_connection",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"state": string(state),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// SessionObserver adapts the client into a state-change observer for
// one session: every applied update batch produces a vacuum_state
// sample.
func (c *Client) SessionObserver(session *robovac.Session) robovac.Observer {
	return func() {
		c.WriteVacuumState(session.DeviceID(), session.Model(), session.State())
	}
}
