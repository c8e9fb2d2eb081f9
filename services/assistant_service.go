package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/dmutua84/nyumba_stays/configs"
	"github.com/dmutua84/nyumba_stays/models"
)

const assistantSystemPrompt = "You are the Nyumba Stays concierge. Answer guest questions about the property below. Be brief and honest; if the listing does not say, say you do not know. Never invent prices or availability."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AskAssistant forwards a guest question to the hosted chat-completions API
// with the listing details as context. The model never sees booking or
// payment records.
func AskAssistant(property *models.Property, question string) (string, error) {
	apiKey := config.Config("ASSISTANT_API_KEY")
	if apiKey == "" {
		return "", errors.New("assistant API key not configured")
	}
	apiBase := config.Config("ASSISTANT_API_BASE_URL")
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	model := config.Config("ASSISTANT_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	listingContext := fmt.Sprintf(
		"Listing: %s\nCity: %s, %s\nNightly price: %s %s\nMax guests: %d\nBedrooms: %d\nDescription: %s",
		property.Title, property.City, property.Country,
		property.NightlyPrice.StringFixed(2), property.Currency,
		property.MaxGuests, property.Bedrooms, property.Description,
	)

	payload := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: assistantSystemPrompt + "\n\n" + listingContext},
			{Role: "user", Content: question},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal assistant payload: %v", err)
	}

	req, err := http.NewRequest("POST", apiBase+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create assistant request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach assistant API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read assistant response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant API returned non-200 status: %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal assistant response: %v", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("assistant API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("assistant API returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
