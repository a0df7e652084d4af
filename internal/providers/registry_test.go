package providers

import (
	"errors"
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	mock := NewMockClient()
	r.RegisterLLM("mock", mock)

	got, err := r.GetLLM("mock")
	if err != nil {
		t.Fatalf("GetLLM() error = %v", err)
	}
	if got != mock {
		t.Error("GetLLM() returned a different client")
	}
	if !r.HasLLM("mock") || r.HasLLM("missing") {
		t.Error("HasLLM() mismatch")
	}
	if _, err := r.GetLLM("missing"); !errors.Is(err, ErrNoLLMProvider) {
		t.Errorf("GetLLM(missing) error = %v, want ErrNoLLMProvider", err)
	}
}

func TestRegistry_Preferred(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Preferred("openrouter"); !errors.Is(err, ErrNoLLMProvider) {
		t.Errorf("empty registry error = %v", err)
	}

	a, b := NewMockClient(), NewMockClient()
	r.RegisterLLM("beta", b)
	r.RegisterLLM("alpha", a)

	if got, _ := r.Preferred("beta"); got != b {
		t.Error("Preferred(beta) should return beta")
	}
	if got, _ := r.Preferred("openrouter"); got != a {
		t.Error("Preferred should fall back to the first name in order")
	}
	if names := r.ListLLM(); len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("ListLLM() = %v", names)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := RegistryConfig{LLMProviders: map[string]LLMProviderConfig{
		"openrouter":  {Type: OpenRouterName, APIKey: "or-key", Enabled: true},
		"openai":      {Type: OpenAIName, APIKey: "oa-key", Enabled: true},
		"nokey":       {Type: OpenAIName, Enabled: true},
		"disabled":    {Type: OpenRouterName, APIKey: "k", Enabled: false},
		"local":       {Type: LocalName, BaseURL: "http://localhost:11434/v1", Model: "llama3", Enabled: true},
		"local-nourl": {Type: LocalName, Model: "llama3", Enabled: true},
		"weird":       {Type: "carrier-pigeon", APIKey: "k", Enabled: true},
	}}

	r := NewRegistryFromConfig(cfg, nil)
	got := r.ListLLM()
	want := []string{"local", "openai", "openrouter"}
	if len(got) != len(want) {
		t.Fatalf("ListLLM() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListLLM()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	client, _ := r.GetLLM("openai")
	if client.Name() != OpenAIName {
		t.Errorf("openai client name = %s", client.Name())
	}
}

func TestRegistry_Reload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{LLMProviders: map[string]LLMProviderConfig{
		"openrouter": {Type: OpenRouterName, APIKey: "k1", Enabled: true},
		"openai":     {Type: OpenAIName, APIKey: "k2", Enabled: true},
	}}, nil)

	before, _ := r.GetLLM("openai")

	r.Reload(RegistryConfig{LLMProviders: map[string]LLMProviderConfig{
		"openrouter": {Type: OpenRouterName, APIKey: "k1-rotated", Enabled: true},
		"openai":     {Type: OpenAIName, APIKey: "k2", Enabled: true},
	}})

	if after, _ := r.GetLLM("openai"); after != before {
		t.Error("unchanged provider should keep its client")
	}
	rotated, _ := r.GetLLM("openrouter")
	if or, ok := rotated.(*OpenRouterClient); !ok || or.apiKey != "k1-rotated" {
		t.Error("changed provider should be recreated")
	}

	r.Reload(RegistryConfig{LLMProviders: map[string]LLMProviderConfig{
		"openai": {Type: OpenAIName, APIKey: "k2", Enabled: true},
	}})
	if r.HasLLM("openrouter") {
		t.Error("removed provider still registered")
	}
	if !r.HasLLM("openai") {
		t.Error("kept provider missing")
	}
}
