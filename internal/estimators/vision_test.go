package estimators_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menuscope/internal/config"
	"menuscope/internal/estimators"
	"menuscope/internal/services"
)

type stubDescriber struct {
	model  string
	answer string
	err    error
	prompt string
	media  string
}

func (s *stubDescriber) DescribeImage(_ context.Context, prompt string, _ []byte, mediaType string) (string, error) {
	s.prompt = prompt
	s.media = mediaType
	return s.answer, s.err
}

func (s *stubDescriber) Model() string { return s.model }

func TestVisionEstimateParsesFencedAnswer(t *testing.T) {
	stub := &stubDescriber{
		model:  "gpt-4o-mini",
		answer: "```json\n{\"calories\": 450, \"macronutrients\": {\"protein\": 32, \"carbohydrates\": 40, \"fat\": 12}, \"micronutrients\": {\"vitamins\": [\"B12\"], \"minerals\": [\"Iron\"]}}\n```",
	}
	v := estimators.NewVision("openai", stub)

	if got := v.Name(); got != "openai/gpt-4o-mini" {
		t.Fatalf("Name = %q", got)
	}
	result, err := v.Estimate(context.Background(), []byte{0xff, 0xd8}, "Paneer Bhurji Bowl")
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if result.Calories == nil || *result.Calories != 450 {
		t.Fatalf("calories = %v", result.Calories)
	}
	if result.Macronutrients == nil || result.Macronutrients.Protein == nil || *result.Macronutrients.Protein != 32 {
		t.Fatalf("macros = %+v", result.Macronutrients)
	}
	if result.Micronutrients == nil || len(result.Micronutrients.Minerals) != 1 || result.Micronutrients.Minerals[0] != "Iron" {
		t.Fatalf("micros = %+v", result.Micronutrients)
	}
	if !strings.Contains(stub.prompt, "Paneer Bhurji Bowl") {
		t.Fatalf("prompt missing description: %q", stub.prompt)
	}
	if stub.media != "image/jpeg" {
		t.Fatalf("media type = %q", stub.media)
	}
}

func TestVisionEstimateFailures(t *testing.T) {
	tests := []struct {
		name   string
		stub   *stubDescriber
		marker error
	}{
		{name: "provider error", stub: &stubDescriber{err: errors.New("boom")}, marker: services.ErrEstimator},
		{name: "not json", stub: &stubDescriber{answer: "about 400 kcal"}, marker: services.ErrDecode},
		{name: "schema violation", stub: &stubDescriber{answer: `{"calories": "lots"}`}, marker: services.ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := estimators.NewVision("anthropic", tt.stub).Estimate(context.Background(), []byte{1}, "dish")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrEstimator) {
				t.Fatalf("expected ErrEstimator, got %v", err)
			}
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestVisionNameWithoutModel(t *testing.T) {
	if got := estimators.NewVision("gemini", &stubDescriber{}).Name(); got != "gemini" {
		t.Fatalf("Name = %q", got)
	}
}

func TestFromConfigRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Estimators.Enabled = []string{config.ProviderAnthropic}
	cfg.Anthropic.APIKey = ""

	_, err := estimators.FromConfig(&cfg, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestFromConfigRejectsEmptySet(t *testing.T) {
	cfg := config.Default()
	cfg.Estimators.Enabled = nil

	_, err := estimators.FromConfig(&cfg, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestFromConfigOrderAndRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/jpeg;base64,") {
			t.Errorf("request missing image part: %s", body)
		}
		answer := `{"calories": 300, "micronutrients": {"vitamins": ["C"]}}`
		resp := map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"content": answer},
				"finish_reason": "stop",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Estimators.Enabled = []string{config.ProviderGemini, config.ProviderOpenAI}
	cfg.Gemini.APIKey = "g-key"
	cfg.OpenAI.APIKey = "o-key"
	cfg.OpenAI.BaseURL = srv.URL

	list, err := estimators.FromConfig(&cfg, srv.Client())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 estimators, got %d", len(list))
	}
	if !strings.HasPrefix(list[0].Name(), "gemini/") || !strings.HasPrefix(list[1].Name(), "openai/") {
		t.Fatalf("unexpected order %q, %q", list[0].Name(), list[1].Name())
	}

	result, err := list[1].Estimate(context.Background(), []byte{0xff, 0xd8, 0xff}, "Whey Shake")
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if result.Calories == nil || *result.Calories != 300 {
		t.Fatalf("calories = %v", result.Calories)
	}
	if result.Macronutrients != nil {
		t.Fatalf("expected absent macros, got %+v", result.Macronutrients)
	}
}
