package nuclino

import "encoding/json"

// Every Nuclino response is wrapped in this envelope.  On success, Data holds
// the payload; on failure, Message explains what went wrong.
type envelope struct {
	Status  string          `json:"status"` // "success" or "fail"
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// listData is the payload of the list endpoints.
type listData struct {
	Object  string          `json:"object"` // "list"
	Results json.RawMessage `json:"results"`
}
