package buttplug

import (
	"encoding/json"
	"fmt"
)

// MessageVersion is the Buttplug protocol version spoken by the client.
const MessageVersion = 3

// Message types.
const (
	msgRequestServerInfo = "RequestServerInfo"
	msgServerInfo        = "ServerInfo"
	msgRequestDeviceList = "RequestDeviceList"
	msgDeviceList        = "DeviceList"
	msgDeviceAdded       = "DeviceAdded"
	msgDeviceRemoved     = "DeviceRemoved"
	msgStartScanning     = "StartScanning"
	msgStopScanning      = "StopScanning"
	msgScanningFinished  = "ScanningFinished"
	msgScalarCmd         = "ScalarCmd"
	msgStopDeviceCmd     = "StopDeviceCmd"
	msgStopAllDevices    = "StopAllDevices"
	msgPing              = "Ping"
	msgOk                = "Ok"
	msgError             = "Error"
)

// Every frame is a JSON array of single-key objects: [{"Type": {...}}].
type frame []map[string]json.RawMessage

type header struct {
	ID uint32 `json:"Id"`
}

type serverInfo struct {
	ServerName     string `json:"ServerName"`
	MessageVersion int    `json:"MessageVersion"`
	MaxPingTime    int    `json:"MaxPingTime"`
}

type errorMsg struct {
	ErrorMessage string `json:"ErrorMessage"`
	ErrorCode    int    `json:"ErrorCode"`
}

type scalarAttr struct {
	FeatureDescriptor string `json:"FeatureDescriptor"`
	StepCount         int    `json:"StepCount"`
	ActuatorType      string `json:"ActuatorType"`
}

type deviceInfo struct {
	DeviceName     string `json:"DeviceName"`
	DeviceIndex    int    `json:"DeviceIndex"`
	DeviceMessages struct {
		ScalarCmd []scalarAttr `json:"ScalarCmd"`
	} `json:"DeviceMessages"`
}

type deviceList struct {
	Devices []deviceInfo `json:"Devices"`
}

type deviceRemoved struct {
	DeviceIndex int `json:"DeviceIndex"`
}

type scalar struct {
	Index        int     `json:"Index"`
	Scalar       float64 `json:"Scalar"`
	ActuatorType string  `json:"ActuatorType"`
}

// ServerError is an Error message returned by the server.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("buttplug server error %d: %s", e.Code, e.Message)
}

func encode(typ string, id uint32, fields map[string]any) ([]byte, error) {
	body := map[string]any{"Id": id}
	for k, v := range fields {
		body[k] = v
	}
	return json.Marshal([]map[string]any{{typ: body}})
}
