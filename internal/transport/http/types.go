package http

import "formflow-analytics/internal/domain"

type formResponse struct {
	Form     domain.Form `json:"form"`
	ShareURL string      `json:"shareUrl"`
}

type submitRequest struct {
	Answers map[string]domain.Answer `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type inboundMessage struct {
	Type string `json:"type"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}
