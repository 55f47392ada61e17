package shared

import (
	"net/rpc"
)

// EmbeddingRPCClient is the host-side RPC client for embedding plugins.
type EmbeddingRPCClient struct {
	client *rpc.Client
}

// Model returns the plugin's model identifier.
func (c *EmbeddingRPCClient) Model() string {
	var resp string
	if err := c.client.Call("Plugin.Model", new(interface{}), &resp); err != nil {
		return ""
	}
	return resp
}

// EmbedArgs are the arguments for the Embed RPC call.
type EmbedArgs struct {
	Texts []string
}

// EmbedReply is the reply for the Embed RPC call.
type EmbedReply struct {
	Embeddings [][]float32
	Error      string
}

// Embed generates embeddings for the given texts.
func (c *EmbeddingRPCClient) Embed(texts []string) ([][]float32, error) {
	var resp EmbedReply
	if err := c.client.Call("Plugin.Embed", &EmbedArgs{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &PluginError{Message: resp.Error}
	}
	return resp.Embeddings, nil
}

// Close closes the provider.
func (c *EmbeddingRPCClient) Close() error {
	var resp string
	if err := c.client.Call("Plugin.Close", new(interface{}), &resp); err != nil {
		return err
	}
	if resp != "" {
		return &PluginError{Message: resp}
	}
	return nil
}

// EmbeddingRPCServer is the plugin-side RPC server.
type EmbeddingRPCServer struct {
	Impl EmbeddingProvider
}

// Model returns the plugin's model identifier.
func (s *EmbeddingRPCServer) Model(args interface{}, resp *string) error {
	*resp = s.Impl.Model()
	return nil
}

// Embed generates embeddings for the given texts.
func (s *EmbeddingRPCServer) Embed(args *EmbedArgs, resp *EmbedReply) error {
	embeddings, err := s.Impl.Embed(args.Texts)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Embeddings = embeddings
	return nil
}

// Close closes the provider.
func (s *EmbeddingRPCServer) Close(args interface{}, resp *string) error {
	if err := s.Impl.Close(); err != nil {
		*resp = err.Error()
	}
	return nil
}
