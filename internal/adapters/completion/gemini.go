package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/domain"
)

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, key, model string) (*Gemini, error) {
	if key == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, conversation []domain.Message) (string, error) {
	system, user := splitConversation(conversation)
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("gemini", "generateContent", status, time.Since(start))
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// splitConversation joins non-user turns into the system instruction and
// user turns into the prompt.
func splitConversation(conv []domain.Message) (system, user string) {
	var sys, usr []string
	for _, m := range conv {
		if m.Role == "user" {
			usr = append(usr, m.Content)
			continue
		}
		sys = append(sys, m.Content)
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}
