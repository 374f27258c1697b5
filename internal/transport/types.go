// Package transport carries file payloads between the gateway and the
// filestore service over HTTP/JSON RPC. The client side lives on the
// gateway; the server side is mounted by the filestore binary.
package transport

import "github.com/applyhub/priority-pipeline/internal/service"

// FilePayload is one file's bytes in flight. Content is base64 on the wire
// via encoding/json's []byte handling.
type FilePayload struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`
}

// StageRequest asks the filestore to hold files in temporal storage.
type StageRequest struct {
	ApplicationID string        `json:"application_id"`
	Files         []FilePayload `json:"files"`
}

type StageResponse struct {
	FileIDs []string `json:"file_ids"`
}

// PromoteRequest asks the filestore to move staged ids to durable storage.
type PromoteRequest struct {
	ApplicationID string   `json:"application_id"`
	FileIDs       []string `json:"file_ids"`
}

type PromoteResponse struct {
	Files []service.PromotedFile `json:"files"`
}

type HealthResponse struct {
	Healthy bool   `json:"healthy"`
	Version string `json:"version"`
}
