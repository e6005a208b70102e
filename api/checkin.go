package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/minhvh/vieclam/internal/checkin"
	"github.com/minhvh/vieclam/internal/geo"
)

type CheckinHandler struct {
	processor *checkin.Processor
}

func NewCheckinHandler(p *checkin.Processor) *CheckinHandler {
	return &CheckinHandler{processor: p}
}

type scanRequest struct {
	Code string  `json:"code"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (h *CheckinHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScan(w, r)
	if !ok {
		return
	}
	rec, err := h.processor.CheckIn(r.Context(), req.Code, geo.Point{Lat: req.Lat, Lng: req.Lng}, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec, http.StatusCreated)
}

func (h *CheckinHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScan(w, r)
	if !ok {
		return
	}
	rec, err := h.processor.CheckOut(r.Context(), req.Code, geo.Point{Lat: req.Lat, Lng: req.Lng}, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec, http.StatusCreated)
}

func decodeScan(w http.ResponseWriter, r *http.Request) (scanRequest, bool) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return req, false
	}
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return req, false
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return req, false
	}
	return req, true
}
