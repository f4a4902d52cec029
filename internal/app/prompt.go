package app

import (
	"fmt"

	json "github.com/goccy/go-json"

	"global_explorer/internal/domain"
)

const (
	RoleDeveloper = "developer"
	RoleUser      = "user"
)

// ExamplePrompts are shown next to the AI search box.
var ExamplePrompts = []string{
	"A romantic city in Europe with great food and museums",
	"Quiet coastal town with beaches and nature walks",
	"Modern city with nightlife, tech, and good public transit",
	"Cool weather, mountain views, and hot springs",
}

const instructionTemplate = `You are a travel preference parser for a travel website.

The user will describe their dream trip in ANY language, but you MUST output ONLY English.

Convert the description into structured filters with this JSON format:

{
  "regions": ["region1", "region2"],
  "tags": ["tag1", "tag2"],
  "seasons": ["Spring", "Winter"]
}

Rules:

1. "regions" can ONLY be selected from this list (exact spelling):
%s

2. "tags" can ONLY be selected from this list (exact spelling):
%s

3. "seasons" can ONLY be selected from this list (exact spelling):
%s

4. If the description does not clearly indicate something, leave that array empty.

5. Output MUST be STRICT JSON: no comments, no trailing commas, no code block
   markers, no text before or after the JSON.

Output ONLY the JSON object.`

func buildInstruction(al domain.AllowList) string {
	return fmt.Sprintf(instructionTemplate, jsonList(al.Regions), jsonList(al.Tags), jsonList(al.Seasons))
}

func buildConversation(userText string, al domain.AllowList) []domain.Message {
	return []domain.Message{
		{Role: RoleDeveloper, Content: buildInstruction(al)},
		{Role: RoleUser, Content: userText},
	}
}

func jsonList(vals []string) string {
	if vals == nil {
		vals = []string{}
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "[]"
	}
	return string(b)
}
