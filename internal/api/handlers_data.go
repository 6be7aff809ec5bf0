// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
	"github.com/tomtom215/idolstats/internal/query"
)

const (
	actionMetadata    = "metadata"
	actionAllMetadata = "allMetadata"
)

// MetadataRequest is a single idol lookup.
type MetadataRequest struct {
	Name   string `validate:"required"`
	Gender string `validate:"required"`
}

// Data dispatches the read endpoint on the action parameter.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	switch action := r.URL.Query().Get("action"); action {
	case "":
		h.MonthData(w, r)
	case actionMetadata:
		h.Metadata(w, r)
	case actionAllMetadata:
		h.AllMetadata(w, r)
	default:
		respondError(w, r, "unknown", "unknown action: "+action, nil)
	}
}

// MonthData answers month-data requests for one (gender, platform) pair.
func (h *Handler) MonthData(w http.ResponseWriter, r *http.Request) {
	req := query.Request{
		Gender:      getParam(r, "gender", models.GenderMale),
		Platform:    getParam(r, "sns", models.PlatformWeibo),
		Month:       getParam(r, "month", ""),
		Init:        getBoolParam(r, "init"),
		SortByCount: getBoolParam(r, "sortByCount"),
		Limit:       query.ParseLimit(r.URL.Query().Get("limit")),
	}

	resp, err := query.Execute(r.Context(), h.cache, req)
	if err != nil {
		respondError(w, r, "metrics", err.Error(), err)
		return
	}
	respondJSON(w, resp)
}

// Metadata answers a single idol lookup by name and gender.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	req := MetadataRequest{
		Name:   getParam(r, "name", ""),
		Gender: getParam(r, "gender", models.GenderFemale),
	}
	if msg := validateRequest(&req); msg != "" {
		respondError(w, r, actionMetadata, msg, nil)
		return
	}

	meta, err := h.cache.GetMetadata(r.Context(), req.Name, req.Gender)
	if errors.Is(err, origin.ErrNotFound) {
		respondError(w, r, actionMetadata, "metadata not found for "+req.Name, err)
		return
	}
	if err != nil {
		respondError(w, r, actionMetadata, err.Error(), err)
		return
	}

	respondJSON(w, models.MetadataResponse{Status: models.StatusSuccess, Data: meta})
}

// AllMetadata answers the full metadata list for a gender.
func (h *Handler) AllMetadata(w http.ResponseWriter, r *http.Request) {
	gender := getParam(r, "gender", models.GenderMale)

	all, err := h.cache.GetAllMetadata(r.Context(), gender)
	if err != nil {
		respondError(w, r, actionAllMetadata, err.Error(), err)
		return
	}
	if all == nil {
		all = []models.IdolMetadata{}
	}

	respondJSON(w, models.AllMetadataResponse{Status: models.StatusSuccess, Data: all})
}
