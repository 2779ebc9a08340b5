package llm

import "testing"

func TestEstimateTokens_EmptyText(t *testing.T) {
	if got := EstimateTokens("gpt-4o-mini", ""); got != 0 {
		t.Fatalf("EstimateTokens on empty text = %d; want 0", got)
	}
}

func TestEstimateTokens_UnknownModelFallsBack(t *testing.T) {
	// Loading an encoding may need the BPE data; skip quietly when absent.
	if encodingFor("no-such-model") == nil {
		t.Skip("no encoding available in this environment")
	}
	got := EstimateTokens("no-such-model", "Bonjour, comment allez-vous ?")
	if got <= 0 {
		t.Fatalf("expected a positive estimate, got %d", got)
	}
}
