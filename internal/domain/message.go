package domain

import "encoding/json"

// Message types understood by the document processor.
const (
	TypePing          = "ping"
	TypePong          = "pong"
	TypeError         = "error"
	TypeListWorksheet = "worksheets.list"
	TypeGetWorksheet  = "worksheets.get"
)

// ResultType returns the reply type for a request type.
func ResultType(requestType string) string {
	return requestType + ".result"
}

// Message is the envelope exchanged over a channel connection.
// ID is a caller-chosen correlation id echoed back on the reply.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Status  int             `json:"status,omitempty"`
}

// ErrorReply builds the error reply for request.
func ErrorReply(request Message, err error, status int) Message {
	return Message{
		ID:     request.ID,
		Type:   TypeError,
		Error:  err.Error(),
		Status: status,
	}
}

// DocumentRequest is the payload of worksheets.list and worksheets.get.
type DocumentRequest struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index,omitempty"`
}

// WorksheetList is the payload of a worksheets.list result.
type WorksheetList struct {
	DocumentID string             `json:"document_id"`
	Worksheets []WorksheetSummary `json:"worksheets"`
}
