package transport

import "fmt"

// topicPrefix is the fixed vendor namespace for robovac traffic.
const topicPrefix = "cmd/eufy_home"

// Topics builds vendor broker topic strings.
//
// Device traffic is a request/response pair per device, keyed by the
// five-character model code and the device serial:
//
//	cmd/eufy_home/{model}/{deviceID}/res  — device publishes reports
//	cmd/eufy_home/{model}/{deviceID}/req  — bridge publishes commands
type Topics struct{}

// DeviceResponse returns the topic a device publishes its reports on.
func (Topics) DeviceResponse(model, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/res", topicPrefix, model, deviceID)
}

// DeviceRequest returns the topic the bridge sends commands on.
func (Topics) DeviceRequest(model, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/req", topicPrefix, model, deviceID)
}
