package shared

import (
	"errors"
	"testing"
)

type fakeProvider struct {
	model string
	err   error
}

func (f *fakeProvider) Model() string { return f.model }

func (f *fakeProvider) Embed(texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(i)}
	}
	return vecs, nil
}

func (f *fakeProvider) Close() error { return f.err }

func TestServerEmbed(t *testing.T) {
	srv := &EmbeddingRPCServer{Impl: &fakeProvider{model: "fake"}}

	var reply EmbedReply
	if err := srv.Embed(&EmbedArgs{Texts: []string{"a", "b"}}, &reply); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if reply.Error != "" {
		t.Fatalf("reply error = %q", reply.Error)
	}
	if len(reply.Embeddings) != 2 || reply.Embeddings[1][0] != 1 {
		t.Errorf("embeddings = %v", reply.Embeddings)
	}
}

func TestServerEmbedCarriesErrorInReply(t *testing.T) {
	srv := &EmbeddingRPCServer{Impl: &fakeProvider{err: errors.New("model offline")}}

	var reply EmbedReply
	// Provider failures travel in the reply, not as an RPC error.
	if err := srv.Embed(&EmbedArgs{Texts: []string{"a"}}, &reply); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if reply.Error != "model offline" {
		t.Errorf("reply error = %q, want %q", reply.Error, "model offline")
	}
	if reply.Embeddings != nil {
		t.Errorf("embeddings = %v, want nil", reply.Embeddings)
	}
}

func TestServerModelAndClose(t *testing.T) {
	srv := &EmbeddingRPCServer{Impl: &fakeProvider{model: "fake"}}

	var model string
	if err := srv.Model(nil, &model); err != nil {
		t.Fatalf("Model: %v", err)
	}
	if model != "fake" {
		t.Errorf("model = %q", model)
	}

	var closeErr string
	if err := srv.Close(nil, &closeErr); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closeErr != "" {
		t.Errorf("close error = %q", closeErr)
	}
}

func TestPluginError(t *testing.T) {
	err := &PluginError{Message: "bad handshake"}
	if err.Error() != "bad handshake" {
		t.Errorf("Error() = %q", err.Error())
	}
}
