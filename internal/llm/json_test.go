package llm

import (
	"testing"
)

func TestParseJSONObjectPlain(t *testing.T) {
	result := ParseJSONObject(`{"sentiment": "positive", "confidence": 0.9}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["sentiment"] != "positive" {
		t.Errorf("expected sentiment='positive', got %v", result["sentiment"])
	}
	if result["confidence"] != 0.9 {
		t.Errorf("expected confidence=0.9, got %v", result["confidence"])
	}
}

func TestParseJSONObjectWithCodeFence(t *testing.T) {
	text := "```json\n{\"impact\": \"high\"}\n```"
	result := ParseJSONObject(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["impact"] != "high" {
		t.Errorf("expected impact='high', got %v", result["impact"])
	}
}

func TestParseJSONObjectWithPlainFence(t *testing.T) {
	text := "```\n{\"impact\": \"low\"}\n```"
	result := ParseJSONObject(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["impact"] != "low" {
		t.Errorf("expected impact='low', got %v", result["impact"])
	}
}

func TestParseJSONObjectEmbeddedInProse(t *testing.T) {
	text := `Here is the analysis you asked for: {"sentiment": "neutral"} Hope that helps!`
	result := ParseJSONObject(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["sentiment"] != "neutral" {
		t.Errorf("expected sentiment='neutral', got %v", result["sentiment"])
	}
}

func TestParseJSONObjectInvalid(t *testing.T) {
	if ParseJSONObject("not json at all") != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONObjectEmpty(t *testing.T) {
	if ParseJSONObject("") != nil {
		t.Error("expected nil for empty string")
	}
	if ParseJSONObject("   \n  ") != nil {
		t.Error("expected nil for whitespace")
	}
}
