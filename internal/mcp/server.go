// Package mcp exposes extraction and onboarding merge as MCP tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/yacht-extract/internal/core"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
)

// Version is the MCP server version.
const Version = "0.1.0"

type Server struct {
	processor *core.Processor
	merger    *onboarding.Merger
	server    *mcp.Server
	logger    *slog.Logger
}

func NewServer(processor *core.Processor, merger *onboarding.Merger, logger *slog.Logger) (*Server, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if merger == nil {
		return nil, errors.New("merger is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		processor: processor,
		merger:    merger,
		server:    mcp.NewServer(&mcp.Implementation{Name: "yacht-extract", Version: Version}, nil),
		logger:    logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mcp.http.listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
