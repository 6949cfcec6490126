// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/seodash/seodash/internal/model"
)

// CreateWebsiteRequest represents the request body for registering a website.
type CreateWebsiteRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuditResponse is returned by a completed audit.
type AuditResponse struct {
	Message string             `json:"message"`
	Results *model.AuditResult `json:"results"`
}

// WebsiteList never encodes as null.
func WebsiteList(websites []*model.Website) []*model.Website {
	if websites == nil {
		return []*model.Website{}
	}
	return websites
}

// MetricList never encodes as null.
func MetricList(samples []model.MetricSample) []model.MetricSample {
	if samples == nil {
		return []model.MetricSample{}
	}
	return samples
}
