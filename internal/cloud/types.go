package cloud

// MQTTCredentials is the transient broker identity issued per account.
// The certificate and key are held in memory only and must never be
// written to disk or logged.
type MQTTCredentials struct {
	UserID         string `json:"user_id"`
	AppName        string `json:"app_name"`
	ThingName      string `json:"thing_name"`
	Endpoint       string `json:"endpoint_addr"`
	CertificatePEM string `json:"certificate_pem"`
	PrivateKeyPEM  string `json:"private_key"`
}

// DeviceSummary is one roster entry: identity plus the last data-point
// snapshot the cloud holds for the device.
type DeviceSummary struct {
	DeviceID  string
	Model     string
	Name      string
	ModelName string

	// DataPoints is the cloud-side snapshot of the device's data points,
	// keyed by vendor code. May be empty when the cloud has none.
	DataPoints map[string]any
}

// loginResponse is the email-login answer. Only the fields the bridge
// needs are modelled.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// userCenterInfo is the user-center identity answer. Newer backends nest
// the useful fields under "data"; older ones carry them at the top
// level, so the shape is self-recursive.
type userCenterInfo struct {
	UserCenterID    string          `json:"user_center_id"`
	UserID          string          `json:"user_id"`
	AuthToken       string          `json:"auth_token"`
	UserCenterToken string          `json:"user_center_token"`
	Data            *userCenterInfo `json:"data"`
}

// wireDevice is a device object as the device-relation API returns it.
type wireDevice struct {
	DeviceSN    string         `json:"device_sn"`
	DeviceModel string         `json:"device_model"`
	DeviceName  string         `json:"device_name"`
	DPS         map[string]any `json:"dps"`
}

// deviceListResponse covers both device-relation listing shapes: the
// older "items" array and the current "data.devices" array, each
// wrapping the device object in a "device" key.
type deviceListResponse struct {
	Code    *int `json:"code"`
	ResCode *int `json:"res_code"`
	Items   []struct {
		Device wireDevice `json:"device"`
	} `json:"items"`
	Data struct {
		Devices []struct {
			Device wireDevice `json:"device"`
		} `json:"devices"`
	} `json:"data"`
}

// cloudDevice is a device object from the legacy cloud listing, used
// only to enrich roster entries with product metadata.
type cloudDevice struct {
	ID          string `json:"id"`
	DeviceSN    string `json:"device_sn"`
	DeviceModel string `json:"device_model"`
	AliasName   string `json:"alias_name"`
	DeviceName  string `json:"device_name"`
	Name        string `json:"name"`
	Product     struct {
		ProductCode string `json:"product_code"`
		Name        string `json:"name"`
	} `json:"product"`
}

// mqttInfoResponse wraps the broker-credential payload.
type mqttInfoResponse struct {
	Data *MQTTCredentials `json:"data"`
}
