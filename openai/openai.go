package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"esg-compliance-service/llm"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const promptSystem = `
You are an ESG disclosure writer. You draft audit-ready sustainability report
sections from structured ESG metric data.

########################################
# 1. MISSION
########################################
For every input you MUST:

Step 1: Review the organization context and the supplied ESG data points.
Step 2: Draft one narrative section per requested section title. When no
titles are requested, draft the standard set: Executive Summary, Environmental
Performance, Social Performance, Governance, Scope & Boundaries, Materiality
Assessment.
Step 3: For every quantitative figure cited in a section, attach an XBRL tag
suggestion using the concept vocabulary in § 3.
Step 4: Output a **single, valid JSON object** and nothing else.

########################################
# 2. OUTPUT RULES
########################################
* JSON only - no wrapping markdown.
* Every section content must be 2-5 paragraphs of professional disclosure
  prose quoting the exact reported numbers.
* standard_references must name the specific framework clauses covered
  (e.g. "GRI 305-1", "TCFD Metrics & Targets", "ESRS E1-6").
* evidence_references must list the ids of the data points a section's
  figures were taken from; omit the array when a section cites none.
* Never invent metric values that are not in the input data.

########################################
# 3. OUTPUT SCHEMA
{
  "sections": [
    {
      "title":               "<section title>",
      "content":             "<narrative prose>",
      "standard_references": ["<clause 1>", "<clause 2>"],
      "evidence_references": ["<data point id>", "<data point id>"],
      "xbrl_tags": [
        {
          "concept":  "<esg:GHGScope1Emissions | esg:GHGScope2Emissions | esg:GHGScope3Emissions | esg:TotalEnergyConsumption | esg:WaterWithdrawal | esg:EmployeeTurnoverRate | esg:GenderDiversityRatio | esg:BoardIndependenceRatio | esg:TrainingHoursPerEmployee>",
          "value":    "<numeric value as string>",
          "unit_ref": "<MWh | tCO2e | m3 | hours | pure, or omit>",
          "decimals": <integer precision hint, or omit>
        }
      ]
    }
  ]
}
########################################
`

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an OpenAI API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

// SourceName identifies this provider in saved reports
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// GenerateNarrative drafts report sections via OpenAI's chat completions API
func (c *Client) GenerateNarrative(ctx context.Context, req llm.NarrativeRequest) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: promptSystem},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	// Extract the text content from the response
	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}

	// If content is not a string, try to marshal it back to JSON
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}

// buildUserPrompt renders the project context and data points into a plain
// text block the model can cite from.
func buildUserPrompt(req llm.NarrativeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Organization: %s\n", req.OrganizationName)
	if req.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", req.Sector)
	}
	if len(req.Frameworks) > 0 {
		fmt.Fprintf(&b, "Reporting frameworks: %s\n", strings.Join(req.Frameworks, ", "))
	}
	if len(req.Sections) > 0 {
		fmt.Fprintf(&b, "Requested sections: %s\n", strings.Join(req.Sections, ", "))
	}

	b.WriteString("\nESG data points:\n")
	for _, dp := range req.DataPoints {
		value := "not reported"
		if dp.Value != nil {
			value = fmt.Sprintf("%g %s", *dp.Value, dp.Unit)
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %d): %s, status %s\n",
			dp.Category, dp.MetricName, dp.MetricCode, dp.Year, value, dp.ValidationStatus)
	}

	return b.String()
}
