package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/audit"
	"github.com/nerrad567/gray-logic-zigbee/internal/auth"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
	"github.com/nerrad567/gray-logic-zigbee/migrations"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

var (
	contactSensor = accessory.Device{
		IEEEAddress:    "0x00158d0001a2b3c4",
		FriendlyName:   "hall_door",
		NetworkAddress: 4321,
		Type:           "EndDevice",
		Manufacturer:   "LUMI",
		Model:          "lumi.sensor_magnet.aq2",
		PowerSource:    "Battery",
	}
	tradfriBulb = accessory.Device{
		IEEEAddress:     "0x000b57fffe8a1b2c",
		FriendlyName:    "lounge_lamp",
		NetworkAddress:  1234,
		Type:            "Router",
		Manufacturer:    "IKEA of Sweden",
		Model:           "LED1545G12",
		PowerSource:     "Mains (single phase)",
		SoftwareBuildID: "2.3.086",
	}
	unknownPlug = accessory.Device{
		IEEEAddress:  "0x1111111111111111",
		FriendlyName: "mystery",
		Type:         "Router",
		Manufacturer: "Acme",
		Model:        "X1",
	}
)

// fakeClient implements accessory.Client over a fixed device list.
type fakeClient struct {
	mu        sync.Mutex
	devices   []accessory.Device
	ota       map[string]bool
	update    map[string]bool
	updateErr error
	stateErr  error
	lastGet   accessory.State
}

func (c *fakeClient) PairedDevices() []accessory.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]accessory.Device(nil), c.devices...)
}

func (c *fakeClient) Device(addr string) (accessory.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.devices {
		if d.IEEEAddress == addr {
			return d, true
		}
	}
	return accessory.Device{}, false
}

func (c *fakeClient) HasOTA(dev accessory.Device) bool { return c.ota[dev.IEEEAddress] }

func (c *fakeClient) IsUpdateAvailable(_ context.Context, dev accessory.Device) (bool, error) {
	if c.updateErr != nil {
		return false, c.updateErr
	}
	return c.update[dev.IEEEAddress], nil
}

func (c *fakeClient) SetState(_ context.Context, _ accessory.Device, s accessory.State) (accessory.State, error) {
	return s, c.stateErr
}

func (c *fakeClient) GetState(_ context.Context, _ accessory.Device, s accessory.State) (accessory.State, error) {
	c.mu.Lock()
	c.lastGet = s
	c.mu.Unlock()
	if c.stateErr != nil {
		return nil, c.stateErr
	}
	return accessory.State{"state": "ON", "brightness": 128}, nil
}

func (c *fakeClient) Unpair(context.Context, string) error { return nil }

// fakePlatform implements Platform with canned answers.
type fakePlatform struct {
	mu          sync.Mutex
	supported   map[string]bool
	kinds       map[string]string
	accessories []platform.Accessory
	unpaired    []string
	setCalls    []accessory.State
	identified  []string
	discoverErr error
	unpairErr   error
	setErr      error
}

func (p *fakePlatform) Supported(dev accessory.Device) bool { return p.supported[dev.Model] }

func (p *fakePlatform) HandlerKind(addr string) (string, bool) {
	k, ok := p.kinds[addr]
	return k, ok
}

func (p *fakePlatform) Accessories() []platform.Accessory { return p.accessories }

func (p *fakePlatform) Accessory(addr string) (platform.Accessory, bool) {
	for _, a := range p.accessories {
		if a.Address == addr {
			return a, true
		}
	}
	return platform.Accessory{}, false
}

func (p *fakePlatform) Discover(context.Context) (platform.DiscoverResult, error) {
	if p.discoverErr != nil {
		return platform.DiscoverResult{}, p.discoverErr
	}
	return platform.DiscoverResult{Attached: len(p.accessories), Unsupported: 1}, nil
}

func (p *fakePlatform) SetState(_ context.Context, _ string, s accessory.State) (accessory.State, error) {
	p.mu.Lock()
	p.setCalls = append(p.setCalls, s)
	p.mu.Unlock()
	if p.setErr != nil {
		return nil, p.setErr
	}
	return s, nil
}

func (p *fakePlatform) Identify(_ context.Context, addr string) error {
	if _, ok := p.kinds[addr]; !ok {
		return platform.ErrNotAttached
	}
	p.mu.Lock()
	p.identified = append(p.identified, addr)
	p.mu.Unlock()
	return nil
}

func (p *fakePlatform) Unpair(_ context.Context, addr string) error {
	if p.unpairErr != nil {
		return p.unpairErr
	}
	p.mu.Lock()
	p.unpaired = append(p.unpaired, addr)
	p.mu.Unlock()
	return nil
}

type testEnv struct {
	srv      *Server
	router   http.Handler
	client   *fakeClient
	platform *fakePlatform
	audit    *audit.SQLiteRepository
}

func testServer(t *testing.T, secret string) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenMemory(ctx)
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	repo := audit.NewSQLiteRepository(db.DB)

	client := &fakeClient{
		devices: []accessory.Device{tradfriBulb, contactSensor, unknownPlug},
		ota:     map[string]bool{tradfriBulb.IEEEAddress: true},
		update:  map[string]bool{tradfriBulb.IEEEAddress: true},
	}
	plat := &fakePlatform{
		supported: map[string]bool{contactSensor.Model: true, tradfriBulb.Model: true},
		kinds: map[string]string{
			contactSensor.IEEEAddress: "XiaomiContactSensor",
			tradfriBulb.IEEEAddress:   "IkeaTradfriDimColortemp",
		},
		accessories: []platform.Accessory{
			{Address: tradfriBulb.IEEEAddress, DisplayName: "lounge_lamp", Kind: "IkeaTradfriDimColortemp"},
			{Address: contactSensor.IEEEAddress, DisplayName: "hall_door", Kind: "XiaomiContactSensor",
				Characteristics: map[string]any{"contact-sensor.closed": true}},
		},
	}

	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{JWT: config.JWTConfig{Secret: secret, Issuer: "test"}},
		Logger:   log,
		Client:   client,
		Platform: plat,
		Audit:    repo,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go srv.Hub().Run(hubCtx)

	return &testEnv{srv: srv, router: srv.Handler(), client: client, platform: plat, audit: repo}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{}, "test", io.Discard)
	if _, err := New(Deps{Logger: log, Platform: &fakePlatform{}}); err == nil {
		t.Error("New() without client should fail")
	}
	if _, err := New(Deps{Logger: log, Client: &fakeClient{}}); err == nil {
		t.Error("New() without platform should fail")
	}
	if _, err := New(Deps{Client: &fakeClient{}, Platform: &fakePlatform{}}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestHealth(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodGet, "/api/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
	if resp["accessories"] != float64(2) {
		t.Errorf("accessories = %v, want 2", resp["accessories"])
	}
}

func TestHealthCheck(t *testing.T) {
	env := testServer(t, "")
	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v", err)
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodGet, "/api/health", "", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := testServer(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/devices", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != corsAllowedMethods {
		t.Errorf("ACAM = %q", got)
	}
}

func TestRecovery(t *testing.T) {
	env := testServer(t, "")
	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestNotFoundRoute(t *testing.T) {
	env := testServer(t, "")
	if w := env.do(t, http.MethodGet, "/api/nonexistent", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Auth Tests ────────────────────────────────────────────────────

func TestAuth(t *testing.T) {
	env := testServer(t, testSecret)

	viewer, err := auth.GenerateToken("alex", auth.RoleViewer, testSecret, "test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	installer, err := auth.GenerateToken("sam", auth.RoleInstaller, testSecret, "test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := auth.GenerateToken("sam", auth.RoleInstaller, "some-other-secret-of-32-characters!!", "test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/api/health", "", http.StatusOK},
		{"missing token", http.MethodGet, "/api/devices", "", http.StatusUnauthorized},
		{"wrong secret", http.MethodGet, "/api/devices", foreign, http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/api/devices", viewer, http.StatusOK},
		{"viewer cannot discover", http.MethodPost, "/api/discover", viewer, http.StatusForbidden},
		{"viewer cannot read audit", http.MethodGet, "/api/audit", viewer, http.StatusForbidden},
		{"installer discovers", http.MethodPost, "/api/discover", installer, http.StatusOK},
		{"installer reads audit", http.MethodGet, "/api/audit", installer, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, tt.method, tt.path, "", tt.token); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAuth_QueryToken(t *testing.T) {
	env := testServer(t, testSecret)
	token, err := auth.GenerateToken("alex", auth.RoleViewer, testSecret, "test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if w := env.do(t, http.MethodGet, "/api/accessories?token="+token, "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// ─── Device Tests ──────────────────────────────────────────────────

func TestListDevices(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodGet, "/api/devices", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	resp := decode[struct {
		Devices []DeviceModel `json:"devices"`
		Count   int           `json:"count"`
	}](t, w)
	if resp.Count != 3 || len(resp.Devices) != 3 {
		t.Fatalf("count = %d", resp.Count)
	}

	byAddr := map[string]DeviceModel{}
	for _, d := range resp.Devices {
		byAddr[d.IEEEAddr] = d
	}
	bulb := byAddr[tradfriBulb.IEEEAddress]
	if !bulb.Supported || bulb.HandlerKind != "IkeaTradfriDimColortemp" || bulb.Manufacturer != "IKEA of Sweden" {
		t.Errorf("bulb = %+v", bulb)
	}
	if bulb.OTAAvailable != nil {
		t.Error("list should not carry OTA status")
	}
	if plug := byAddr[unknownPlug.IEEEAddress]; plug.Supported || plug.HandlerKind != "" {
		t.Errorf("unknown plug = %+v", plug)
	}
}

func TestGetDevice(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodGet, "/api/devices/"+tradfriBulb.IEEEAddress, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	m := decode[deviceResponse](t, w).Device
	if m.OTAAvailable == nil || !*m.OTAAvailable {
		t.Errorf("otaAvailable = %v", m.OTAAvailable)
	}
	if m.NewFirmwareAvailable == nil || !*m.NewFirmwareAvailable {
		t.Errorf("newFirmwareAvailable = %v", m.NewFirmwareAvailable)
	}
	if m.SoftwareBuildID != "2.3.086" || m.NetworkAddress != 1234 {
		t.Errorf("device = %+v", m)
	}

	// No OTA support: both flags present and false.
	m = decode[deviceResponse](t, env.do(t, http.MethodGet, "/api/devices/"+contactSensor.IEEEAddress, "", "")).Device
	if m.OTAAvailable == nil || *m.OTAAvailable || m.NewFirmwareAvailable == nil || *m.NewFirmwareAvailable {
		t.Errorf("sensor OTA flags = %v %v", m.OTAAvailable, m.NewFirmwareAvailable)
	}
}

func TestGetDevice_FirmwareCheckFails(t *testing.T) {
	env := testServer(t, "")
	env.client.updateErr = errors.New("bridge timeout")

	w := env.do(t, http.MethodGet, "/api/devices/"+tradfriBulb.IEEEAddress, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	m := decode[deviceResponse](t, w).Device
	if m.NewFirmwareAvailable == nil || *m.NewFirmwareAvailable {
		t.Errorf("failed check should report false, got %v", m.NewFirmwareAvailable)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodGet, "/api/devices/0xdeadbeef", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if e := decode[Error](t, w); e.Code != ErrCodeNotFound {
		t.Errorf("code = %q", e.Code)
	}
}

func TestUnpairDevice(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodDelete, "/api/devices/"+contactSensor.IEEEAddress, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	removed := decode[deviceResponse](t, w).Device
	if removed.IEEEAddr != contactSensor.IEEEAddress || removed.HandlerKind != "XiaomiContactSensor" {
		t.Errorf("removed device = %+v", removed)
	}
	if len(env.platform.unpaired) != 1 || env.platform.unpaired[0] != contactSensor.IEEEAddress {
		t.Errorf("unpaired = %v", env.platform.unpaired)
	}
	if w := env.do(t, http.MethodDelete, "/api/devices/0xnope", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown device status = %d, want 404", w.Code)
	}

	env.platform.unpairErr = errors.New("zigbee: request failed: device is asleep")
	w = env.do(t, http.MethodDelete, "/api/devices/"+contactSensor.IEEEAddress, "", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if e := decode[Error](t, w); !strings.Contains(e.Message, "device is asleep") {
		t.Errorf("message = %q", e.Message)
	}
}

func TestSetDeviceState(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/set", `{"state":"ON","brightness":200}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got := decode[stateResponse](t, w).State; got["brightness"] != float64(200) {
		t.Errorf("reply = %v", got)
	}
	if len(env.platform.setCalls) != 1 {
		t.Errorf("platform SetState calls = %d", len(env.platform.setCalls))
	}

	if w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/set", `not json`, ""); w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/set", `null`, ""); w.Code != http.StatusBadRequest {
		t.Errorf("null body status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/devices/0xnope/set", `{}`, ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown device status = %d", w.Code)
	}
}

func TestSetDeviceState_CommandFails(t *testing.T) {
	env := testServer(t, "")
	env.platform.setErr = errors.New("zigbee: request timed out: kitchen/ceiling")

	w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/set", `{"state":"ON"}`, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	e := decode[Error](t, w)
	if e.Code != ErrCodeInternal || !strings.Contains(e.Message, "request timed out") {
		t.Errorf("error = %+v", e)
	}
}

func TestSetDeviceState_DeviceLeftMeanwhile(t *testing.T) {
	env := testServer(t, "")
	env.platform.setErr = fmt.Errorf("%w: %s", platform.ErrDeviceNotFound, tradfriBulb.IEEEAddress)

	w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/set", `{"state":"ON"}`, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetDeviceState(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/get", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(env.client.lastGet) != 0 {
		t.Errorf("empty body should request full state, sent %v", env.client.lastGet)
	}
	if got := decode[stateResponse](t, w).State; got["state"] != "ON" {
		t.Errorf("reply = %v", got)
	}

	env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/get", `{"brightness":""}`, "")
	if _, ok := env.client.lastGet["brightness"]; !ok {
		t.Errorf("attributes not forwarded: %v", env.client.lastGet)
	}

	env.client.stateErr = errors.New("zigbee: timeout")
	if w := env.do(t, http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/get", "", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("failing get status = %d", w.Code)
	}
}

func TestGetDeviceState_ChunkedEmptyBody(t *testing.T) {
	env := testServer(t, "")

	// A reader of unknown length leaves ContentLength at -1.
	req := httptest.NewRequest(http.MethodPost, "/api/devices/"+tradfriBulb.IEEEAddress+"/get",
		io.NopCloser(strings.NewReader("")))
	if req.ContentLength != -1 {
		t.Fatalf("ContentLength = %d, want -1", req.ContentLength)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if len(env.client.lastGet) != 0 {
		t.Errorf("empty body should request full state, sent %v", env.client.lastGet)
	}
}

// ─── Accessory Tests ───────────────────────────────────────────────

func TestAccessories(t *testing.T) {
	env := testServer(t, "")

	resp := decode[struct {
		Accessories []platform.Accessory `json:"accessories"`
		Count       int                  `json:"count"`
	}](t, env.do(t, http.MethodGet, "/api/accessories", "", ""))
	if resp.Count != 2 {
		t.Errorf("count = %d", resp.Count)
	}

	w := env.do(t, http.MethodGet, "/api/accessories/"+contactSensor.IEEEAddress, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	acc := decode[platform.Accessory](t, w)
	if acc.Characteristics["contact-sensor.closed"] != true {
		t.Errorf("characteristics = %v", acc.Characteristics)
	}

	if w := env.do(t, http.MethodGet, "/api/accessories/"+unknownPlug.IEEEAddress, "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unattached status = %d", w.Code)
	}
}

func TestIdentifyAccessory(t *testing.T) {
	env := testServer(t, "")

	if w := env.do(t, http.MethodPost, "/api/accessories/"+tradfriBulb.IEEEAddress+"/identify", "", ""); w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if len(env.platform.identified) != 1 {
		t.Errorf("identified = %v", env.platform.identified)
	}
	if w := env.do(t, http.MethodPost, "/api/accessories/"+unknownPlug.IEEEAddress+"/identify", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unattached status = %d", w.Code)
	}
}

func TestDiscover(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodPost, "/api/discover", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[platform.DiscoverResult](t, w); got.Attached != 2 || got.Unsupported != 1 {
		t.Errorf("result = %+v", got)
	}

	env.platform.discoverErr = errors.New("shell cache unavailable")
	if w := env.do(t, http.MethodPost, "/api/discover", "", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("failing discover status = %d", w.Code)
	}
}

// ─── Audit Tests ───────────────────────────────────────────────────

func TestListAuditLogs(t *testing.T) {
	env := testServer(t, "")
	ctx := context.Background()
	for _, addr := range []string{"0x01", "0x02", "0x01"} {
		if err := env.audit.Create(ctx, &audit.Entry{
			Action: audit.ActionAttach, EntityType: audit.EntityAccessory, EntityID: addr, Source: audit.SourceDiscovery,
		}); err != nil {
			t.Fatal(err)
		}
	}

	w := env.do(t, http.MethodGet, "/api/audit?entity_id=0x01&limit=1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[audit.ListResult](t, w)
	if got.Total != 2 || len(got.Entries) != 1 || got.Limit != 1 {
		t.Errorf("result = %+v", got)
	}

	if w := env.do(t, http.MethodGet, "/api/audit?limit=abc", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/audit?offset=-1", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad offset status = %d", w.Code)
	}
}

func TestListAuditLogs_NotConfigured(t *testing.T) {
	env := testServer(t, "")
	env.srv.audit = nil
	if w := env.do(t, http.MethodGet, "/api/audit", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// ─── WebSocket Tests ───────────────────────────────────────────────

func subscribedClient(hub *Hub, req WSRequest) *wsClient {
	c := newWSClient(hub, nil, "test")
	c.handle(req)
	hub.add(c)
	return c
}

func receivedEvent(t *testing.T, c *wsClient) (platform.Event, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != WSTypeEvent || msg.Event == nil {
			t.Fatalf("message = %s", data)
		}
		return *msg.Event, true
	case <-time.After(50 * time.Millisecond):
		return platform.Event{}, false
	}
}

func TestHub_FiltersByTypeAndAddress(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
	hub := NewHub(log)

	everyDevice := subscribedClient(hub, WSRequest{Type: WSTypeSubscribe, Events: []string{platform.EventStateChanged}})
	sensorOnly := subscribedClient(hub, WSRequest{
		Type:      WSTypeSubscribe,
		Events:    []string{platform.EventStateChanged, platform.EventRemoved},
		Addresses: []string{contactSensor.IEEEAddress},
	})
	removals := subscribedClient(hub, WSRequest{Type: WSTypeSubscribe, Events: []string{platform.EventRemoved}})
	if hub.ClientCount() != 3 {
		t.Fatalf("client count = %d", hub.ClientCount())
	}

	tests := []struct {
		name   string
		event  platform.Event
		client *wsClient
		want   bool
	}{
		{"any address gets sensor state", platform.Event{Type: platform.EventStateChanged, Address: contactSensor.IEEEAddress}, everyDevice, true},
		{"any address gets bulb state", platform.Event{Type: platform.EventStateChanged, Address: tradfriBulb.IEEEAddress}, everyDevice, true},
		{"any address skips removals", platform.Event{Type: platform.EventRemoved, Address: tradfriBulb.IEEEAddress}, everyDevice, false},
		{"address filter gets sensor state", platform.Event{Type: platform.EventStateChanged, Address: contactSensor.IEEEAddress}, sensorOnly, true},
		{"address filter skips bulb state", platform.Event{Type: platform.EventStateChanged, Address: tradfriBulb.IEEEAddress}, sensorOnly, false},
		{"removals only", platform.Event{Type: platform.EventRemoved, Address: tradfriBulb.IEEEAddress}, removals, true},
		{"removals skip attach", platform.Event{Type: platform.EventAttached, Address: tradfriBulb.IEEEAddress}, removals, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub.HandleEvent(tt.event)
			ev, got := receivedEvent(t, tt.client)
			if got != tt.want {
				t.Fatalf("received = %v, want %v", got, tt.want)
			}
			if got && (ev.Type != tt.event.Type || ev.Address != tt.event.Address) {
				t.Errorf("event = %+v, want %+v", ev, tt.event)
			}
			// Drain the other clients.
			for _, c := range []*wsClient{everyDevice, sensorOnly, removals} {
				if c != tt.client {
					receivedEvent(t, c)
				}
			}
		})
	}

	hub.remove(sensorOnly)
	hub.remove(sensorOnly)
	if hub.ClientCount() != 2 {
		t.Errorf("after remove count = %d, want 2", hub.ClientCount())
	}
}

func TestWSClient_Handle(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
	c := newWSClient(NewHub(log), nil, "test")

	got := c.handle(WSRequest{Type: WSTypeSubscribe, ID: "1",
		Events: []string{platform.EventStateChanged, platform.EventAttached}, Addresses: []string{"0x02", "0x01"}})
	if got.Type != WSTypeSubscribed || got.ID != "1" || got.Filter == nil {
		t.Fatalf("subscribe reply = %+v", got)
	}
	if len(got.Filter.Events) != 2 || got.Filter.Addresses[0] != "0x01" {
		t.Errorf("filter = %+v", got.Filter)
	}

	got = c.handle(WSRequest{Type: WSTypeUnsubscribe, ID: "2", Events: []string{platform.EventAttached}, Addresses: []string{"0x01", "0x02"}})
	if len(got.Filter.Events) != 1 || len(got.Filter.Addresses) != 0 {
		t.Errorf("after unsubscribe filter = %+v", got.Filter)
	}
	if !c.wants(platform.Event{Type: platform.EventStateChanged, Address: "0x99"}) {
		t.Error("no addresses left should match every device")
	}

	if got = c.handle(WSRequest{Type: WSTypeSubscribe, ID: "3", Events: []string{"device.exploded"}}); got.Type != WSTypeError {
		t.Errorf("unknown event reply = %+v", got)
	}
	if got = c.handle(WSRequest{Type: "launch", ID: "4"}); got.Type != WSTypeError || got.ID != "4" {
		t.Errorf("unknown type reply = %+v", got)
	}
	if got = c.handle(WSRequest{Type: WSTypePing, ID: "5"}); got.Type != WSTypePong || got.ID != "5" {
		t.Errorf("ping reply = %+v", got)
	}
}

func TestHub_RunDisconnectsClients(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
	hub := NewHub(log)
	c := newWSClient(hub, nil, "test")
	hub.add(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	if _, open := <-c.send; open {
		t.Error("send channel still open after Run returned")
	}
	if hub.add(newWSClient(hub, nil, "late")) {
		t.Error("add after shutdown should fail")
	}
	hub.remove(c)
}

func TestWebSocket_EndToEnd(t *testing.T) {
	env := testServer(t, testSecret)
	ts := httptest.NewServer(env.router)
	defer ts.Close()

	token, err := auth.GenerateToken("alex", auth.RoleViewer, testSecret, "test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatal("dial without token should fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without token: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	sub := WSRequest{Type: WSTypeSubscribe, ID: "1", Events: []string{platform.EventAttached}, Addresses: []string{tradfriBulb.IEEEAddress}}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test deadline

	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("reading subscribe ack: %v", err)
	}
	if ack.Type != WSTypeSubscribed || ack.ID != "1" || ack.Filter == nil || len(ack.Filter.Addresses) != 1 {
		t.Fatalf("ack = %+v", ack)
	}

	env.srv.Hub().HandleEvent(platform.Event{Type: platform.EventAttached, Address: contactSensor.IEEEAddress, Kind: "XiaomiContactSensor"})
	env.srv.Hub().HandleEvent(platform.Event{Type: platform.EventAttached, Address: tradfriBulb.IEEEAddress, Kind: "IkeaTradfriDimColortemp"})

	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if msg.Type != WSTypeEvent || msg.Event == nil || msg.Event.Address != tradfriBulb.IEEEAddress {
		t.Errorf("event = %+v", msg)
	}

	if err := conn.WriteJSON(WSRequest{Type: WSTypePing, ID: "2"}); err != nil {
		t.Fatal(err)
	}
	var pong WSMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.Type != WSTypePong || pong.ID != "2" {
		t.Errorf("pong = %+v", pong)
	}
}
