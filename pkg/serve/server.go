// Package serve exposes the tagger as a newline-delimited JSON protocol over a
// reader/writer pair, typically stdin and stdout.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/praetorian-inc/sennatag/internal/logging"
	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Tagger builds and tags documents. *engine.Engine implements it.
type Tagger interface {
	Build(text string, sentences, tokens []builder.Boundary) (*types.Document, error)
	Execute(ctx context.Context, doc *types.Document) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLayers announces the executed layers in the ready response.
func WithLayers(layers []types.Layer) Option {
	return func(s *Server) {
		s.layers = layers
	}
}

// Server manages the streaming tagger
type Server struct {
	tagger  Tagger
	encoder *json.Encoder
	decoder *json.Decoder
	logger  *slog.Logger
	layers  []types.Layer
}

// NewServer creates a new streaming server
func NewServer(tagger Tagger, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		tagger:  tagger,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the server main loop. It returns nil when the input ends or a
// "close" request arrives, and ctx.Err() when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Requests decoded before the error still get answered.
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	s.logger.Debug("request received", "type", req.Type)
	switch req.Type {
	case "tag":
		s.handleTag(ctx, req.Payload)
	case "tag_batch":
		s.handleTagBatch(ctx, req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	data, _ := json.Marshal(ReadyData{Version: Version, Layers: s.layers})
	s.encoder.Encode(Response{
		Success: true,
		Type:    "ready",
		Data:    data,
	})
}

func (s *Server) tag(ctx context.Context, p TagPayload) (*types.Document, error) {
	doc, err := s.tagger.Build(p.Text, p.Sentences, p.Tokens)
	if err != nil {
		return nil, err
	}
	if err := s.tagger.Execute(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Server) handleTag(ctx context.Context, payload json.RawMessage) {
	var p TagPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("tag", err.Error())
		return
	}

	doc, err := s.tag(ctx, p)
	if err != nil {
		s.logger.Warn("tag request failed", "error", err)
		s.sendError("tag", err.Error())
		return
	}

	s.sendData("tag", doc)
}

func (s *Server) handleTagBatch(ctx context.Context, payload json.RawMessage) {
	var p TagBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("tag_batch", err.Error())
		return
	}

	items := make([]BatchItem, len(p.Items))
	for i, item := range p.Items {
		doc, err := s.tag(ctx, item)
		if err != nil {
			s.logger.Warn("batch item failed", "item", i, "error", err)
			items[i].Error = err.Error()
			continue
		}
		items[i].Document = doc
	}

	s.sendData("tag_batch", items)
}

func (s *Server) sendData(reqType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(reqType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    reqType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
