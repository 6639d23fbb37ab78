package config_test

import (
	"errors"
	"testing"

	"github.com/Vicoder007/Vekta/internal/config"
	"github.com/Vicoder007/Vekta/pkg/provider/embeddings"
	"github.com/Vicoder007/Vekta/pkg/provider/embeddings/mock"
)

func TestRegistryCreateEmbeddings(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	r.RegisterEmbeddings("mock", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		return &mock.Provider{ModelIDValue: entry.Model}, nil
	})

	p, err := r.CreateEmbeddings(config.ProviderEntry{Name: "mock", Model: "test-model"})
	if err != nil {
		t.Fatalf("CreateEmbeddings: %v", err)
	}
	if p.ModelID() != "test-model" {
		t.Errorf("ModelID = %q, want test-model", p.ModelID())
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	_, err := r.CreateEmbeddings(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("expected ErrProviderNotRegistered, got %v", err)
	}
}
