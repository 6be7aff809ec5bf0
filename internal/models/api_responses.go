// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package models

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DataMeta describes a month-data response.
//
//   - AllMonths: the full month index for the requested (gender, platform)
//   - Total: records gathered for the selected months before limiting
//   - Returned: records in Data after the per-month limit
type DataMeta struct {
	AllMonths []string `json:"allMonths"`
	Total     int      `json:"total"`
	Returned  int      `json:"returned"`
}

// DataResponse is the success envelope for month data.
//
//	{
//	  "status": "success",
//	  "meta": {"allMonths": ["2025-01", "2025-02"], "total": 18, "returned": 13},
//	  "data": [{"name": "...", "group": "...", "date": "2025-02", "count": 1200}]
//	}
type DataResponse struct {
	Status string         `json:"status"`
	Meta   DataMeta       `json:"meta"`
	Data   []MetricRecord `json:"data"`
}

// MetadataResponse is the success envelope for a single metadata lookup.
type MetadataResponse struct {
	Status string       `json:"status"`
	Data   IdolMetadata `json:"data"`
}

// AllMetadataResponse is the success envelope for a bulk metadata lookup.
type AllMetadataResponse struct {
	Status string         `json:"status"`
	Data   []IdolMetadata `json:"data"`
}

// ErrorResponse is the envelope for every failure.
//
//	{"status": "error", "message": "origin unavailable: ..."}
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Envelope is used to peek at the status of any response before decoding
// the rest of it.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
