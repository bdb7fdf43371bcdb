package extraction

import (
	"encoding/json"
	"fmt"

	"portfolio-api/internal/transcript"
)

const systemPrompt = `You extract contact inquiries from voice conversations between a website visitor and a portfolio assistant.
Reply with one JSON object and nothing else.`

const instructionTemplate = `Conversation transcript (JSON array of {role, content}, in order):
%s

The visitor is signed in as %q.

Return a JSON object with exactly these keys:
- "visitorName": the name the visitor gave. If no name was said, use %q.
- "email": the visitor's email address, or null if none was given.
- "phoneNumber": the visitor's phone number, or null if none was given.
- "purpose": a short category for the inquiry, 3 to 5 words.
- "summary": 2 to 3 sentences describing what the visitor wants.

Only use facts stated in the conversation.`

func buildPrompt(utterances []transcript.Utterance, visitorName string) (string, error) {
	raw, err := json.MarshalIndent(utterances, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return fmt.Sprintf(instructionTemplate, string(raw), visitorName, visitorName), nil
}
