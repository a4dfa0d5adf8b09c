package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/mochisura/marketer/pkg/adapter"
	"google.golang.org/genai"
)

func TestGenerateContent(t *testing.T) {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, apiKey)
	gt.NoError(t, err)

	resp, err := client.GenerateContent(ctx, "", genai.Text("Hello, what is the capital of France?"), nil)
	gt.NoError(t, err)

	text := adapter.ResponseText(resp)
	if text == "" {
		t.Fatal("unexpected empty response")
	}
	t.Log("response:", text)
}

func TestListModels(t *testing.T) {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, apiKey)
	gt.NoError(t, err)

	models, err := client.ListModels(ctx)
	gt.NoError(t, err)
	gt.A(t, models).Longer(0)
}

func TestIsRateLimited(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil", nil, false},
		{"api error 429", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, true},
		{"wrapped api error 429", goerr.Wrap(genai.APIError{Code: 429}, "failed to generate content"), true},
		{"api error 500", genai.APIError{Code: 500}, false},
		{"plain message with 429", goerr.New("Error 429, quota exceeded"), true},
		{"other error", goerr.New("permission denied"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, adapter.IsRateLimited(tc.err), tc.expect)
		})
	}
}

func TestResponseTextNil(t *testing.T) {
	gt.Equal(t, adapter.ResponseText(nil), "")
}
