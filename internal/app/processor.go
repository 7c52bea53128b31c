package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
	"github.com/bft-labs/sheetbridge/pkg/log"
)

// DocumentProcessor answers channel messages from a DocumentStore.
// It holds no per-connection state and is safe for concurrent use.
type DocumentProcessor struct {
	store  *DocumentStore
	logger ports.Logger
}

// NewDocumentProcessor creates a processor backed by store.
func NewDocumentProcessor(store *DocumentStore, logger ports.Logger) *DocumentProcessor {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &DocumentProcessor{store: store, logger: logger}
}

// Process implements ports.Processor.
func (p *DocumentProcessor) Process(ctx context.Context, msg domain.Message) (domain.Message, error) {
	switch msg.Type {
	case domain.TypePing:
		return domain.Message{ID: msg.ID, Type: domain.TypePong}, nil
	case domain.TypeListWorksheet:
		return p.listWorksheets(ctx, msg)
	case domain.TypeGetWorksheet:
		return p.getWorksheet(ctx, msg)
	default:
		return domain.Message{}, fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msg.Type)
	}
}

func (p *DocumentProcessor) listWorksheets(ctx context.Context, msg domain.Message) (domain.Message, error) {
	req, err := decodeDocumentRequest(msg)
	if err != nil {
		return domain.Message{}, err
	}

	worksheets, err := p.store.Get(req.DocumentID).FetchWorksheets(ctx)
	if err != nil {
		return domain.Message{}, err
	}

	list := domain.WorksheetList{
		DocumentID: req.DocumentID,
		Worksheets: make([]domain.WorksheetSummary, 0, len(worksheets)),
	}
	for i, w := range worksheets {
		list.Worksheets = append(list.Worksheets, w.Summary(i))
	}
	return reply(msg, list)
}

func (p *DocumentProcessor) getWorksheet(ctx context.Context, msg domain.Message) (domain.Message, error) {
	req, err := decodeDocumentRequest(msg)
	if err != nil {
		return domain.Message{}, err
	}

	doc := p.store.Get(req.DocumentID)
	if _, err := doc.FetchWorksheets(ctx); err != nil {
		return domain.Message{}, err
	}
	w, err := doc.Worksheet(req.Index)
	if err != nil {
		return domain.Message{}, err
	}
	return reply(msg, w.Summary(req.Index))
}

func decodeDocumentRequest(msg domain.Message) (domain.DocumentRequest, error) {
	var req domain.DocumentRequest
	if len(msg.Payload) == 0 {
		return req, &domain.DecodeError{What: msg.Type + " payload", Err: errors.New("empty payload")}
	}
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return req, &domain.DecodeError{What: msg.Type + " payload", Err: err}
	}
	if req.DocumentID == "" {
		return req, &domain.DecodeError{What: msg.Type + " payload", Err: errors.New("document_id is required")}
	}
	return req, nil
}

func reply(request domain.Message, payload interface{}) (domain.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:      request.ID,
		Type:    domain.ResultType(request.Type),
		Payload: data,
	}, nil
}
