// Package buttplug is a Buttplug v3 client for Intiface Central and
// compatible servers.
package buttplug

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-overstim/pkg/device"
)

// Client manages the WebSocket connection to a Buttplug server
type Client struct {
	name   string
	logger *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	nextID    atomic.Uint32
	pendingMu sync.Mutex
	pending   map[uint32]chan result

	devMu   sync.RWMutex
	devices map[int]*Device

	connected atomic.Bool
	closing   atomic.Bool
	done      chan struct{}
	server    serverInfo
}

type result struct {
	typ string
	raw json.RawMessage
	err error
}

// Dial connects to addr, performs the handshake and loads the device list.
func Dial(ctx context.Context, addr, name string, logger *slog.Logger) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c := &Client{
		name:    name,
		logger:  logger,
		ws:      ws,
		pending: make(map[uint32]chan result),
		devices: make(map[int]*Device),
		done:    make(chan struct{}),
	}
	c.connected.Store(true)

	go c.handleMessages()

	if err := c.handshake(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	res, err := c.request(ctx, msgRequestServerInfo, map[string]any{
		"ClientName":     c.name,
		"MessageVersion": MessageVersion,
	})
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if res.typ != msgServerInfo {
		return fmt.Errorf("handshake: unexpected %s", res.typ)
	}
	if err := json.Unmarshal(res.raw, &c.server); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	c.logger.Info("connected to buttplug server", "server", c.server.ServerName, "version", c.server.MessageVersion)

	if c.server.MaxPingTime > 0 {
		go c.keepAlive(time.Duration(c.server.MaxPingTime) * time.Millisecond / 2)
	}

	res, err = c.request(ctx, msgRequestDeviceList, nil)
	if err != nil {
		return fmt.Errorf("device list: %w", err)
	}
	var list deviceList
	if err := json.Unmarshal(res.raw, &list); err != nil {
		return fmt.Errorf("device list: %w", err)
	}
	for _, info := range list.Devices {
		c.addDevice(info)
	}
	return nil
}

// keepAlive sends Ping often enough to satisfy the server's MaxPingTime
func (c *Client) keepAlive(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), every)
			_, err := c.request(ctx, msgPing, nil)
			cancel()
			if err != nil {
				c.logger.Warn("ping failed", "error", err)
			}
		}
	}
}

// StartScanning asks the server to look for new devices.
func (c *Client) StartScanning(ctx context.Context) error {
	_, err := c.request(ctx, msgStartScanning, nil)
	return err
}

// StopScanning stops looking for new devices.
func (c *Client) StopScanning(ctx context.Context) error {
	_, err := c.request(ctx, msgStopScanning, nil)
	return err
}

// StopAll stops every device known to the server.
func (c *Client) StopAll(ctx context.Context) error {
	_, err := c.request(ctx, msgStopAllDevices, nil)
	return err
}

// Devices returns the connected devices ordered by index.
func (c *Client) Devices() []device.Device {
	c.devMu.RLock()
	defer c.devMu.RUnlock()

	out := make([]*Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })

	devs := make([]device.Device, len(out))
	for i, d := range out {
		devs[i] = d
	}
	return devs
}

// Connected reports whether the connection is up.
func (c *Client) Connected() bool { return c.connected.Load() }

// Done is closed when the connection drops.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close closes the WebSocket connection
func (c *Client) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	c.wsMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.wsMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}

// handleMessages processes incoming WebSocket messages
func (c *Client) handleMessages() {
	defer c.shutdown()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if !c.closing.Load() {
				c.logger.Error("lost connection to buttplug server", "error", err)
			}
			return
		}

		var msgs frame
		if err := json.Unmarshal(message, &msgs); err != nil {
			c.logger.Warn("invalid message", "error", err)
			continue
		}
		for _, m := range msgs {
			for typ, raw := range m {
				c.dispatch(typ, raw)
			}
		}
	}
}

func (c *Client) dispatch(typ string, raw json.RawMessage) {
	var h header
	_ = json.Unmarshal(raw, &h)

	if h.ID != 0 {
		res := result{typ: typ, raw: raw}
		if typ == msgError {
			var e errorMsg
			_ = json.Unmarshal(raw, &e)
			res.err = &ServerError{Code: e.ErrorCode, Message: e.ErrorMessage}
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[h.ID]
		delete(c.pending, h.ID)
		c.pendingMu.Unlock()
		if ok {
			ch <- res
		}
		return
	}

	switch typ {
	case msgDeviceAdded:
		var info deviceInfo
		if err := json.Unmarshal(raw, &info); err == nil {
			c.addDevice(info)
		}
	case msgDeviceRemoved:
		var r deviceRemoved
		if err := json.Unmarshal(raw, &r); err == nil {
			c.devMu.Lock()
			if d, ok := c.devices[r.DeviceIndex]; ok {
				c.logger.Info("device removed", "device", d.name)
				delete(c.devices, r.DeviceIndex)
			}
			c.devMu.Unlock()
		}
	case msgScanningFinished:
		c.logger.Debug("scanning finished")
	case msgError:
		var e errorMsg
		_ = json.Unmarshal(raw, &e)
		c.logger.Warn("server error", "code", e.ErrorCode, "message", e.ErrorMessage)
	}
}

func (c *Client) addDevice(info deviceInfo) {
	d := &Device{client: c, index: info.DeviceIndex, name: info.DeviceName}
	for i, attr := range info.DeviceMessages.ScalarCmd {
		d.actuators = append(d.actuators, device.Actuator{
			Index:     i,
			StepCount: attr.StepCount,
			Type:      attr.ActuatorType,
		})
	}

	c.devMu.Lock()
	c.devices[d.index] = d
	c.devMu.Unlock()
	c.logger.Info("device added", "device", d.name, "index", d.index, "actuators", len(d.actuators))
}

func (c *Client) shutdown() {
	c.connected.Store(false)

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		ch <- result{err: device.ErrConnectionLost}
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	close(c.done)
}

func (c *Client) request(ctx context.Context, typ string, fields map[string]any) (result, error) {
	if !c.connected.Load() {
		return result{}, device.ErrConnectionLost
	}

	id := c.nextID.Add(1)
	payload, err := encode(typ, id, fields)
	if err != nil {
		return result{}, err
	}

	ch := make(chan result, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	c.wsMu.Lock()
	err = c.ws.WriteMessage(websocket.TextMessage, payload)
	c.wsMu.Unlock()
	if err != nil {
		c.forget(id)
		return result{}, fmt.Errorf("%s: %w", typ, device.ErrConnectionLost)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return res, res.err
		}
		return res, nil
	case <-c.done:
		c.forget(id)
		return result{}, device.ErrConnectionLost
	case <-ctx.Done():
		c.forget(id)
		return result{}, ctx.Err()
	}
}

func (c *Client) forget(id uint32) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}
