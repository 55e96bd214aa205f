package ingest

import (
	"fmt"
	"strings"

	"chefmind/internal/domain"
	"chefmind/internal/service/llm"
)

const recipeStructure = `{
       "title": "String", "description": "String",
       "time": "String", "calories": "String", "macros": {"protein": "", "carbs": "", "fat": ""},
       "ingredients": [{"name": "", "amount": ""}],
       "instructions": ["Step 1"], "equipment": []
    }`

// BuildPrompt composes the extraction instruction followed by the media
// attachment, if any. Caption text is ranked above audio.
func BuildPrompt(sourceURL, title, caption string, asset *domain.MediaAsset) []llm.Part {
	var b strings.Builder
	b.WriteString("\n    You are a professional chef. Analyze content to extract a recipe.\n")
	fmt.Fprintf(&b, "    Source URL: %s\n", sourceURL)
	if title != "" {
		fmt.Fprintf(&b, "    Title: \"%s\"\n", title)
	}
	if caption != "" {
		fmt.Fprintf(&b, "    Caption: \"%s\"\n", caption)
	}
	b.WriteString("    PRIORITY: Caption Text > Audio.\n")
	b.WriteString("    Return JSON. If no recipe, return empty valid JSON.\n")
	b.WriteString("    Structure:\n    ")
	b.WriteString(recipeStructure)
	b.WriteString("\n    ")

	parts := []llm.Part{llm.TextPart(b.String())}
	if asset != nil && len(asset.Data) > 0 {
		parts = append(parts, llm.BlobPart(asset.Data, asset.MIMEType))
	}
	return parts
}
