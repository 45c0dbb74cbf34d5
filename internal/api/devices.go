package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
)

// firmwareCheckTimeout bounds the per-request OTA availability query.
const firmwareCheckTimeout = 5 * time.Second

// DeviceModel is the normalised device representation returned by the API.
type DeviceModel struct {
	IEEEAddr        string `json:"ieeeAddr"`
	FriendlyName    string `json:"friendlyName"`
	NetworkAddress  uint16 `json:"networkAddress"`
	Type            string `json:"type"`
	Manufacturer    string `json:"manufacturerName"`
	ModelID         string `json:"modelID"`
	PowerSource     string `json:"powerSource,omitempty"`
	SoftwareBuildID string `json:"softwareBuildID,omitempty"`
	DateCode        string `json:"dateCode,omitempty"`
	Supported       bool   `json:"supported"`
	HandlerKind     string `json:"handlerKind,omitempty"`

	// Only populated on single-device reads.
	OTAAvailable         *bool `json:"otaAvailable,omitempty"`
	NewFirmwareAvailable *bool `json:"newFirmwareAvailable,omitempty"`
}

// deviceResponse wraps a single device, as in {"device": {...}}.
type deviceResponse struct {
	Device DeviceModel `json:"device"`
}

// stateResponse wraps a device report, as in {"state": {...}}.
type stateResponse struct {
	State accessory.State `json:"state"`
}

func (s *Server) deviceModel(dev accessory.Device) DeviceModel {
	m := DeviceModel{
		IEEEAddr:        dev.IEEEAddress,
		FriendlyName:    dev.FriendlyName,
		NetworkAddress:  dev.NetworkAddress,
		Type:            dev.Type,
		Manufacturer:    dev.Manufacturer,
		ModelID:         dev.Model,
		PowerSource:     dev.PowerSource,
		SoftwareBuildID: dev.SoftwareBuildID,
		DateCode:        dev.DateCode,
		Supported:       s.platform.Supported(dev),
	}
	if kind, ok := s.platform.HandlerKind(dev.IEEEAddress); ok {
		m.HandlerKind = kind
	}
	return m
}

// handleListDevices returns every paired device with its resolution outcome.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.client.PairedDevices()
	models := make([]DeviceModel, 0, len(devices))
	for _, dev := range devices {
		models = append(models, s.deviceModel(dev))
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": models, "count": len(models)})
}

// handleGetDevice returns one device. OTA capability and firmware
// availability are included; a failed availability check reports false.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	m := s.deviceModel(dev)
	ota := s.client.HasOTA(dev)
	update := false
	if ota {
		ctx, cancel := context.WithTimeout(r.Context(), firmwareCheckTimeout)
		defer cancel()
		available, err := s.client.IsUpdateAvailable(ctx, dev)
		if err != nil {
			s.logger.Warn("firmware check failed", "address", dev.IEEEAddress, "error", err)
		} else {
			update = available
		}
	}
	m.OTAAvailable = &ota
	m.NewFirmwareAvailable = &update

	writeJSON(w, http.StatusOK, deviceResponse{Device: m})
}

// handleUnpairDevice removes a device from the network and detaches its
// accessory. The response carries the device as it was before removal.
func (s *Server) handleUnpairDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	addr := dev.IEEEAddress
	m := s.deviceModel(dev)
	if err := s.platform.Unpair(r.Context(), addr); err != nil {
		s.logger.Error("unpair failed", "address", addr, "actor", subject(r), "error", err)
		writeInternalError(w, err.Error())
		return
	}
	s.logger.Info("device unpaired", "address", addr, "actor", subject(r))
	writeJSON(w, http.StatusOK, deviceResponse{Device: m})
}

// handleSetDeviceState sends a state document and returns the device report.
func (s *Server) handleSetDeviceState(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	state, ok := decodeState(w, r, false)
	if !ok {
		return
	}

	reported, err := s.platform.SetState(r.Context(), dev.IEEEAddress, state)
	if errors.Is(err, platform.ErrDeviceNotFound) {
		writeNotFound(w, "device not found")
		return
	}
	if err != nil {
		s.logger.Error("set state failed", "address", dev.IEEEAddress, "actor", subject(r), "error", err)
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: reported})
}

// handleGetDeviceState asks the device to report the given attributes.
// An empty body requests the full state.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	state, ok := decodeState(w, r, true)
	if !ok {
		return
	}

	reported, err := s.client.GetState(r.Context(), dev, state)
	if err != nil {
		s.logger.Error("get state failed", "address", dev.IEEEAddress, "error", err)
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: reported})
}

func (s *Server) lookupDevice(w http.ResponseWriter, r *http.Request) (accessory.Device, bool) {
	addr := chi.URLParam(r, "ieeeAddr")
	dev, ok := s.client.Device(addr)
	if !ok {
		writeNotFound(w, "device not found")
		return accessory.Device{}, false
	}
	return dev, true
}

// decodeState reads a JSON object from the body. With allowEmpty, a body
// with no content decodes to an empty state.
func decodeState(w http.ResponseWriter, r *http.Request, allowEmpty bool) (accessory.State, bool) {
	var state accessory.State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return accessory.State{}, true
		}
		writeBadRequest(w, "invalid JSON body")
		return nil, false
	}
	if state == nil {
		writeBadRequest(w, "state must be a JSON object")
		return nil, false
	}
	return state, true
}
