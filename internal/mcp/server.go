// Package mcp exposes the embedding engine as MCP tools over stdio, so
// agent hosts can register clients and compute embeddings without SQL.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sqlite-ai/rembed/internal/engine"
	"github.com/sqlite-ai/rembed/pkg/provider"
)

// Server implements the MCP server.
type Server struct {
	mcpServer *server.MCPServer
	registry  *provider.Registry
}

// New creates a new MCP server over the given registry.
func New(reg *provider.Registry, version string) *Server {
	s := &Server{registry: reg}

	mcpServer := server.NewMCPServer(
		"rembed",
		version,
		server.WithLogging(),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all MCP tools.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	// register_client - Register an embedding client
	mcpServer.AddTool(mcp.NewTool("register_client",
		mcp.WithDescription("Register an embedding client under a name"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Client name")),
		mcp.WithString("options", mcp.Required(), mcp.Description("Client options (JSON object, 'provider::model', or a provider name)")),
	), s.handleRegisterClient)

	// list_clients - List registered clients
	mcpServer.AddTool(mcp.NewTool("list_clients",
		mcp.WithDescription("List registered embedding clients"),
	), s.handleListClients)

	// embed - Embed one text
	mcpServer.AddTool(mcp.NewTool("embed",
		mcp.WithDescription("Compute an embedding for one text"),
		mcp.WithString("client", mcp.Required(), mcp.Description("Registered client name")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to embed")),
	), s.handleEmbed)

	// embed_batch - Embed many texts in one provider call
	mcpServer.AddTool(mcp.NewTool("embed_batch",
		mcp.WithDescription("Compute embeddings for many texts in one provider call"),
		mcp.WithString("client", mcp.Required(), mcp.Description("Registered client name")),
		mcp.WithArray("texts", mcp.Required(), mcp.Description("Texts to embed")),
	), s.handleEmbedBatch)

	// embed_image - Embed one image via the vision pipeline
	mcpServer.AddTool(mcp.NewTool("embed_image",
		mcp.WithDescription("Compute an embedding for one base64-encoded image"),
		mcp.WithString("client", mcp.Required(), mcp.Description("Registered multimodal client name")),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64-encoded image data")),
		mcp.WithString("prompt", mcp.Description("Custom description prompt")),
	), s.handleEmbedImage)
}

func (s *Server) handleRegisterClient(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	options := req.GetString("options", "")
	if options == "" {
		return mcp.NewToolResultError("options is required"), nil
	}

	cfg, err := provider.ParseOptions(name, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid options: %v", err)), nil
	}
	client, err := provider.New(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create client: %v", err)), nil
	}
	s.registry.Register(name, client)

	jsonResult, _ := json.Marshal(map[string]any{
		"success": true,
		"name":    name,
		"format":  cfg.Format,
		"model":   client.Model(),
	})
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleListClients(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type clientInfo struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Model string `json:"model"`
	}

	clients := []clientInfo{}
	for _, name := range s.registry.Names() {
		entry, err := s.registry.Lookup(name)
		if err != nil {
			continue
		}
		clients = append(clients, clientInfo{
			Name:  name,
			Kind:  string(entry.Kind),
			Model: entry.Client.Model(),
		})
	}

	jsonResult, _ := json.Marshal(map[string]any{
		"clients": clients,
		"count":   len(clients),
	})
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleEmbed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientName := req.GetString("client", "")
	if clientName == "" {
		return mcp.NewToolResultError("client is required"), nil
	}
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	entry, err := s.registry.Lookup(clientName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vec, err := engine.Single(entry.Client, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	jsonResult, _ := json.Marshal(map[string]any{
		"embedding":  vec,
		"dimensions": len(vec),
	})
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleEmbedBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientName := req.GetString("client", "")
	if clientName == "" {
		return mcp.NewToolResultError("client is required"), nil
	}
	texts := req.GetStringSlice("texts", nil)
	if len(texts) == 0 {
		return mcp.NewToolResultError("texts is required"), nil
	}

	entry, err := s.registry.Lookup(clientName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vecs, err := engine.Batch(entry.Client, texts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	dims := 0
	if len(vecs) > 0 {
		dims = len(vecs[0])
	}
	jsonResult, _ := json.Marshal(map[string]any{
		"embeddings": vecs,
		"count":      len(vecs),
		"dimensions": dims,
	})
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleEmbedImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientName := req.GetString("client", "")
	if clientName == "" {
		return mcp.NewToolResultError("client is required"), nil
	}
	imageB64 := req.GetString("image", "")
	if imageB64 == "" {
		return mcp.NewToolResultError("image is required"), nil
	}
	prompt := req.GetString("prompt", "")

	image, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("image is not valid base64: %v", err)), nil
	}

	entry, err := s.registry.Lookup(clientName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	img, ok := entry.Client.(provider.ImageClient)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("client %s does not accept image inputs", clientName)), nil
	}

	vec, err := engine.Image(img, image, prompt)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	jsonResult, _ := json.Marshal(map[string]any{
		"embedding":  vec,
		"dimensions": len(vec),
	})
	return mcp.NewToolResultText(string(jsonResult)), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
