package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// LLMClient wraps the Gemini API for the handful of generation tasks the
// platform needs. All prompts request plain text or JSON, never markdown.
type LLMClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewLLMClient(ctx context.Context) (*LLMClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)

	return &LLMClient{
		client: client,
		model:  model,
		name:   modelName,
	}, nil
}

func (c *LLMClient) ModelName() string {
	return c.name
}

func (c *LLMClient) Close() {
	c.client.Close()
}

func (c *LLMClient) generateText(ctx context.Context, prompt string) (string, error) {
	c.model.ResponseMIMEType = "text/plain"
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (c *LLMClient) generateJSON(ctx context.Context, prompt string, out any) error {
	c.model.ResponseMIMEType = "application/json"
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return err
	}
	raw, err := firstText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from LLM")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// Summarize condenses arbitrary text into a short reader-facing summary.
func (c *LLMClient) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 100
	}
	prompt := fmt.Sprintf(`You are an editor at a gaming news site.
Summarize the following text in at most %d words. Plain text only, no
headings, no bullet points, no markdown.

Text:
%s`, maxWords, text)
	return c.generateText(ctx, prompt)
}

// RewriteArticle turns a scraped source article into an original piece with
// a fresh title, HTML body and a one-paragraph summary.
func (c *LLMClient) RewriteArticle(ctx context.Context, title, content string) (string, string, string, error) {
	prompt := fmt.Sprintf(`You are a staff writer at a gaming news site.
Rewrite the following source article as an original news piece.

Original title: %s
Original content:
%s

Instructions:
1. Write a new headline. Punchy is fine, misleading is not.
2. Rewrite the body in your own words for a gaming audience.
3. Use HTML for the body: <p>, <strong>, <em>, <ul>, <ol>, <li>,
   <blockquote>. No markdown.
4. Write a one-paragraph summary of at most 60 words, plain text.
5. Output MUST be JSON: {"title": "...", "content": "...", "summary": "..."}`,
		title, content)

	var result struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Summary string `json:"summary"`
	}
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return "", "", "", err
	}
	return result.Title, result.Content, result.Summary, nil
}

// TrendHighlight writes a short commentary on a game's player-count movement.
func (c *LLMClient) TrendHighlight(ctx context.Context, gameName string, current, peak, average int) (string, error) {
	prompt := fmt.Sprintf(`You are a gaming industry analyst.
Write a short (2-3 sentences, plain text) highlight about the player-count
trend for %s. Current players: %d, recent peak: %d, recent average: %d.
Do not invent numbers beyond these.`, gameName, current, peak, average)
	return c.generateText(ctx, prompt)
}

// SocialPosts suggests share-ready posts for an article.
func (c *LLMClient) SocialPosts(ctx context.Context, title, summary string) ([]string, error) {
	prompt := fmt.Sprintf(`You are a social media manager at a gaming news site.
Suggest 3 short social posts (max 240 characters each) promoting this article.
Title: %s
Summary: %s
Output MUST be JSON: {"posts": ["...", "...", "..."]}`, title, summary)

	var result struct {
		Posts []string `json:"posts"`
	}
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return nil, err
	}
	return result.Posts, nil
}
