package ingest

import (
	"bytes"
	"encoding/json"

	"chefmind/internal/domain"
	"chefmind/internal/service/llm"
)

// ParseDraft decodes model output into a draft. Output that is not a JSON
// object yields an empty draft and false; that is an empty result, not an error.
//
// Fields are decoded one at a time and a field with an unexpected shape is
// left at its zero value, so one bad field never discards the rest.
func ParseDraft(raw string) (domain.RecipeDraft, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &fields); err != nil || fields == nil {
		return domain.RecipeDraft{}, false
	}

	var (
		draft              domain.RecipeDraft
		title, description domain.FlexString
		thumbnail, prompt  domain.FlexString
	)
	decodeField(fields, "title", &title)
	decodeField(fields, "description", &description)
	decodeField(fields, "time", &draft.Time)
	decodeField(fields, "calories", &draft.Calories)
	decodeField(fields, "macros", &draft.Macros)
	decodeField(fields, "instructions", &draft.Instructions)
	decodeField(fields, "equipment", &draft.Equipment)
	decodeField(fields, "thumbnail", &thumbnail)
	decodeField(fields, "image_prompt", &prompt)
	draft.Ingredients = decodeIngredients(fields["ingredients"])

	draft.Title = string(title)
	draft.Description = string(description)
	draft.Thumbnail = string(thumbnail)
	draft.ImagePrompt = string(prompt)
	return draft, true
}

// decodeField decodes fields[name] into dst and leaves dst untouched when
// the field is missing or has the wrong shape.
func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// decodeIngredients keeps every element that decodes as an ingredient.
func decodeIngredients(raw json.RawMessage) []domain.Ingredient {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]domain.Ingredient, 0, len(items))
	for _, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			continue
		}
		var ing domain.Ingredient
		if err := json.Unmarshal(item, &ing); err != nil {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// Classify decides whether draft is a recipe. A found draft is back-filled
// with the page title and thumbnail wherever the model left them empty.
func Classify(draft *domain.RecipeDraft, title, thumbnail string) domain.IngestionStatus {
	if !draft.HasRecipe() {
		return domain.StatusEmpty
	}
	if draft.Thumbnail == "" {
		draft.Thumbnail = thumbnail
	}
	if draft.Title == "" {
		draft.Title = title
	}
	return domain.StatusFound
}
