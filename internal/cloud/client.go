package cloud

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	defaultHomeAPIBase    = "https://home-api.eufylife.com"
	defaultCentralAPIBase = "https://api.eufylife.com"
	defaultCleanAPIBase   = "https://aiot-clean-api-pr.eufylife.com"

	// Fixed vendor-app identity presented at login.
	loginClientID     = "eufyhome-app"
	loginClientSecret = "GQCpr9dSp3uQpsOMgJ4xQ"

	userAgentIOS     = "EufyHome-iOS-2.14.0-6"
	userAgentAndroid = "EufyHome-Android-3.1.3-753"

	defaultTimeout = 30 * time.Second

	// deviceModelLen: roster model codes are the first five characters of
	// the product code, matching the topic segment the broker expects.
	deviceModelLen = 5
)

// Logger is the minimal logging interface the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Client.
type Options struct {
	// Email and Password are the vendor account credentials. Required.
	Email    string
	Password string

	// OpenUDID identifies this installation to the vendor cloud. Required.
	OpenUDID string

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration

	// Logger receives structured log output. Optional.
	Logger Logger

	// Base URL overrides for tests. Leave empty in production.
	HomeAPIBase    string
	CentralAPIBase string
	CleanAPIBase   string
}

// Client talks to the vendor cloud on behalf of one account.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Session state updated by
//     Login is mutex-guarded.
type Client struct {
	email    string
	password string
	openudid string

	httpClient *http.Client
	logger     Logger

	homeBase    string
	centralBase string
	cleanBase   string

	mu              sync.Mutex
	accessToken     string
	userID          string
	userCenterID    string
	userCenterToken string
	gtoken          string
}

// New creates a cloud client. It performs no network I/O; call Login
// before any other operation.
func New(opts Options) (*Client, error) {
	if opts.Email == "" || opts.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrAuthFailed)
	}
	if opts.OpenUDID == "" {
		return nil, fmt.Errorf("cloud: openudid is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		email:       opts.Email,
		password:    opts.Password,
		openudid:    opts.OpenUDID,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      opts.Logger,
		homeBase:    defaultHomeAPIBase,
		centralBase: defaultCentralAPIBase,
		cleanBase:   defaultCleanAPIBase,
	}
	if opts.HomeAPIBase != "" {
		c.homeBase = opts.HomeAPIBase
	}
	if opts.CentralAPIBase != "" {
		c.centralBase = opts.CentralAPIBase
	}
	if opts.CleanAPIBase != "" {
		c.cleanBase = opts.CleanAPIBase
	}
	return c, nil
}

// Login authenticates the account and resolves the user-center identity
// needed for the device-relation API.
//
// Two round trips: the email login yields the access token, then the
// user-center lookup yields the identity from which the gtoken request
// signature is derived. Backends disagree on where the identity lives in
// the response, so a fallback chain is walked; as a last resort the
// account email is used and a warning logged.
func (c *Client) Login(ctx context.Context) error {
	var login loginResponse
	status, err := c.doJSON(ctx, http.MethodPost,
		c.homeBase+"/v1/user/email/login",
		map[string]string{
			"category":     "Home",
			"Accept":       "*/*",
			"openudid":     c.openudid,
			"Content-Type": "application/json",
			"clientType":   "1",
			"User-Agent":   userAgentIOS,
		},
		map[string]string{
			"email":         c.email,
			"password":      c.password,
			"client_id":     loginClientID,
			"client_secret": loginClientSecret,
		},
		&login,
	)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if status != http.StatusOK || login.AccessToken == "" {
		return fmt.Errorf("%w: login rejected (status %d)", ErrAuthFailed, status)
	}

	var info userCenterInfo
	status, err = c.doJSON(ctx, http.MethodGet,
		c.centralBase+"/v1/user/user_center_info",
		map[string]string{
			"content-type": "application/x-www-form-urlencoded; charset=UTF-8",
			"user-agent":   userAgentAndroid,
			"category":     "Home",
			"token":        login.AccessToken,
			"openudid":     c.openudid,
			"clienttype":   "2",
		},
		nil,
		&info,
	)
	if err != nil {
		return fmt.Errorf("user center info: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: user center info (status %d)", ErrRequestFailed, status)
	}

	centerID := resolveUserCenterID(&info)
	if centerID == "" {
		c.logWarn("no user_center_id in response, falling back to account email")
		centerID = c.email
	}

	centerToken := resolveUserCenterToken(&info)
	if centerToken == "" {
		centerToken = login.AccessToken
	}

	sum := md5.Sum([]byte(centerID))

	c.mu.Lock()
	c.accessToken = login.AccessToken
	c.userID = login.UserID
	c.userCenterID = centerID
	c.userCenterToken = centerToken
	c.gtoken = hex.EncodeToString(sum[:])
	c.mu.Unlock()

	c.logInfo("cloud login successful")
	return nil
}

// resolveUserCenterID walks the identity fallback chain: top-level
// user_center_id, nested under data, then user_id in either place.
func resolveUserCenterID(info *userCenterInfo) string {
	if info.UserCenterID != "" {
		return info.UserCenterID
	}
	if info.Data != nil && info.Data.UserCenterID != "" {
		return info.Data.UserCenterID
	}
	if info.UserID != "" {
		return info.UserID
	}
	if info.Data != nil && info.Data.UserID != "" {
		return info.Data.UserID
	}
	return ""
}

func resolveUserCenterToken(info *userCenterInfo) string {
	if info.UserCenterToken != "" {
		return info.UserCenterToken
	}
	if info.AuthToken != "" {
		return info.AuthToken
	}
	if info.Data != nil {
		if info.Data.UserCenterToken != "" {
			return info.Data.UserCenterToken
		}
		if info.Data.AuthToken != "" {
			return info.Data.AuthToken
		}
	}
	return ""
}

// MQTTCredentials fetches the transient broker identity for the account.
// Credentials are not cached here: the session layer decides how long to
// trust them.
func (c *Client) MQTTCredentials(ctx context.Context) (*MQTTCredentials, error) {
	headers, err := c.cleanAPIHeaders()
	if err != nil {
		return nil, err
	}
	headers["content-type"] = "application/json"

	var resp mqttInfoResponse
	status, err := c.doJSON(ctx, http.MethodPost,
		c.cleanBase+"/app/devicemanage/get_user_mqtt_info",
		headers, nil, &resp,
	)
	if err != nil {
		return nil, fmt.Errorf("mqtt credentials: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: mqtt credentials (status %d)", ErrRequestFailed, status)
	}
	if resp.Data == nil || resp.Data.Endpoint == "" {
		return nil, fmt.Errorf("%w: mqtt credential payload missing", ErrMalformedResponse)
	}
	return resp.Data, nil
}

// ListDevices returns the account's device roster.
//
// The modern device-relation listing is authoritative. The legacy cloud
// listing only enriches entries with product metadata and is allowed to
// fail: a 404 means the endpoint was retired for this account.
func (c *Client) ListDevices(ctx context.Context) ([]DeviceSummary, error) {
	cloudDevices := c.legacyDeviceList(ctx)

	devices, err := c.deviceRelationList(ctx, "")
	if err != nil {
		return nil, err
	}

	summaries := make([]DeviceSummary, 0, len(devices))
	for _, d := range devices {
		summaries = append(summaries, summarize(d, cloudDevices))
	}
	c.logInfo("device roster loaded", "count", len(summaries))
	return summaries, nil
}

// Device returns the cloud-side snapshot for one device. Used after a
// session connects, to seed state before live reports arrive.
func (c *Client) Device(ctx context.Context, deviceID string) (*DeviceSummary, error) {
	devices, err := c.deviceRelationList(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.DeviceSN == deviceID {
			s := summarize(d, nil)
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
}

// deviceRelationList queries the device-relation API, adapting both
// response shapes it is known to produce.
func (c *Client) deviceRelationList(ctx context.Context, deviceSN string) ([]wireDevice, error) {
	headers, err := c.cleanAPIHeaders()
	if err != nil {
		return nil, err
	}
	headers["content-type"] = "application/json; charset=UTF-8"

	var resp deviceListResponse
	status, err := c.doJSON(ctx, http.MethodPost,
		c.cleanBase+"/app/devicerelation/get_device_list",
		headers,
		map[string]string{"sn": deviceSN, "sid": ""},
		&resp,
	)
	if err != nil {
		return nil, fmt.Errorf("device list: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: device list (status %d)", ErrRequestFailed, status)
	}

	ok := (resp.Code != nil && *resp.Code == 0) || (resp.ResCode != nil && *resp.ResCode == 1)
	if !ok {
		c.logWarn("device list answered with unexpected result code")
		return nil, nil
	}

	var devices []wireDevice
	for _, item := range resp.Items {
		devices = append(devices, item.Device)
	}
	for _, entry := range resp.Data.Devices {
		devices = append(devices, entry.Device)
	}
	return devices, nil
}

// legacyDeviceList queries the retired cloud listing for product
// metadata. Failures are tolerated and logged.
func (c *Client) legacyDeviceList(ctx context.Context) []cloudDevice {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()
	if token == "" {
		return nil
	}

	var resp struct {
		Devices []cloudDevice `json:"devices"`
	}
	status, err := c.doJSON(ctx, http.MethodGet,
		c.centralBase+"/v1/user/devices",
		map[string]string{
			"category":   "Home",
			"token":      token,
			"openudid":   c.openudid,
			"clienttype": "2",
			"lang":       "en-us",
		},
		nil, &resp,
	)
	if err != nil {
		c.logWarn("legacy device list failed", "error", err)
		return nil
	}
	switch status {
	case http.StatusOK:
		return resp.Devices
	case http.StatusNotFound:
		c.logDebug("legacy device list endpoint gone, continuing without it")
		return nil
	default:
		c.logWarn("legacy device list failed", "status", status)
		return nil
	}
}

// summarize folds a wire device plus optional legacy metadata into a
// roster entry.
func summarize(d wireDevice, cloudDevices []cloudDevice) DeviceSummary {
	s := DeviceSummary{
		DeviceID:   d.DeviceSN,
		Model:      truncateModel(d.DeviceModel),
		Name:       d.DeviceName,
		ModelName:  d.DeviceName,
		DataPoints: d.DPS,
	}
	if s.DataPoints == nil {
		s.DataPoints = map[string]any{}
	}

	for _, cd := range cloudDevices {
		if cd.ID != d.DeviceSN && cd.DeviceSN != d.DeviceSN {
			continue
		}
		if m := truncateModel(cd.Product.ProductCode); m != "" {
			s.Model = m
		} else if m := truncateModel(cd.DeviceModel); m != "" {
			s.Model = m
		}
		if cd.AliasName != "" {
			s.Name = cd.AliasName
		} else if cd.DeviceName != "" {
			s.Name = cd.DeviceName
		} else if cd.Name != "" {
			s.Name = cd.Name
		}
		if cd.Product.Name != "" {
			s.ModelName = cd.Product.Name
		}
		break
	}
	return s
}

func truncateModel(model string) string {
	if len(model) > deviceModelLen {
		return model[:deviceModelLen]
	}
	return model
}

// cleanAPIHeaders builds the authenticated header set for the
// device-relation API. Requires a prior Login.
func (c *Client) cleanAPIHeaders() (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userCenterToken == "" || c.gtoken == "" {
		return nil, ErrNotLoggedIn
	}
	return map[string]string{
		"user-agent":   userAgentAndroid,
		"openudid":     c.openudid,
		"os-version":   "Android",
		"model-type":   "PHONE",
		"app-name":     "eufy_home",
		"x-auth-token": c.userCenterToken,
		"gtoken":       c.gtoken,
	}, nil
}

// doJSON performs one round trip: marshal body (if any), send, decode
// the answer into out (if the body is non-empty). Returns the HTTP
// status so callers can tolerate specific failures.
func (c *Client) doJSON(ctx context.Context, method, url string, headers map[string]string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if out != nil && len(data) > 0 && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Client) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
