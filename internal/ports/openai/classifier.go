// Package openai implements the classifier port on the OpenAI chat
// completion API.
package openai

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/thebtf/blink/internal/ports"
	"github.com/thebtf/blink/pkg/models"
)

const systemPrompt = `You are Blink's food ordering brain.
You ONLY handle food-related conversation for a restaurant.

Possible intents:
- get_menu        : user is asking about the menu, items, what they can order.
- provide_phone   : user is giving or confirming a phone number.
- provide_address : user is giving or confirming a delivery address.
- place_order     : user is specifying items to order.
- chitchat        : small talk or friendly banter.
- unknown         : anything that doesn't fit.

Always respond as a JSON object with keys:
- intent       (string)
- phone        (string or null)
- address      (string or null)
- items        (array of strings; each describing one ordered item)
- notes        (string or null)
- satisfaction (number or null; optional future use)`

// historyWindow is how many recent messages accompany the utterance.
const historyWindow = 5

// Classifier classifies utterances via an OpenAI-compatible endpoint.
type Classifier struct {
	client *openai.Client
	model  string
}

// NewClassifier creates a Classifier. baseURL may be empty for the
// default endpoint.
func NewClassifier(apiKey, baseURL, model string) *Classifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Classifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Classify implements ports.Classifier. Any transport or parse failure
// degrades to the unknown intent; the error is returned for logging only.
func (c *Classifier) Classify(ctx context.Context, req ports.ClassifyRequest) (models.IntentData, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserContent(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.UnknownIntent(), fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.UnknownIntent(), fmt.Errorf("chat completion returned no choices")
	}

	data, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return models.UnknownIntent(), fmt.Errorf("parse intent payload: %w", err)
	}
	return data, nil
}

func buildUserContent(req ports.ClassifyRequest) string {
	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, msg := range history {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Text)
	}
	fmt.Fprintf(&sb, "\nUser: %s", req.Text)
	return sb.String()
}

// intentPayload is the wire shape the model is instructed to produce.
// Items tolerates non-string members since models occasionally emit
// objects or numbers there.
type intentPayload struct {
	Intent       string   `json:"intent"`
	Phone        *string  `json:"phone"`
	Address      *string  `json:"address"`
	Items        []any    `json:"items"`
	Notes        *string  `json:"notes"`
	Satisfaction *float64 `json:"satisfaction"`
}

func parsePayload(content string) (models.IntentData, error) {
	var payload intentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return models.UnknownIntent(), err
	}

	data := models.IntentData{
		Intent:       models.ParseIntent(payload.Intent),
		Satisfaction: payload.Satisfaction,
	}
	if payload.Phone != nil {
		data.Phone = strings.TrimSpace(*payload.Phone)
	}
	if payload.Address != nil {
		data.Address = strings.TrimSpace(*payload.Address)
	}
	if payload.Notes != nil {
		data.Notes = strings.TrimSpace(*payload.Notes)
	}
	for _, item := range payload.Items {
		if s, ok := item.(string); ok {
			data.Items = append(data.Items, s)
		} else {
			data.Items = append(data.Items, fmt.Sprintf("%v", item))
		}
	}
	return data, nil
}
