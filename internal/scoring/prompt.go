package scoring

const systemPrompt = `You are an expert ATS (Applicant Tracking System) analyzer. Your task is to:
1. Analyze the given resume
2. Provide a score from 0-100
3. Give brief feedback
4. List specific improvements
5. Add predicted job fit based on the resume with percentage of getting selected
Format your response exactly as a JSON object:
{
    "ats_score": <number between 0-100>,
    "feedback": "<single sentence summary>",
    "improvements": ["point 1", "point 2", "point 3"],
    "job_fit": {
        "job_title": "<most suitable job title>",
        "fit_percentage": <number between 0-100>
    }
}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

// newChatRequest builds the chat-completions payload for a resume.
func newChatRequest(model, text string) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Analyze this resume:\n" + text},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
}
