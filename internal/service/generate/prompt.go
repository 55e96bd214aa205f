package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"chefmind/internal/domain"
)

const consultTemplate = `You are a helpful culinary assistant.
       Context Recipe: %s
       
       User Question: "%s"
       
       OUTPUT FORMAT:
       Return a strictly valid JSON object with the following structure:
       {
         "answer": "Your concise, helpful answer (max 2-3 sentences). Focus on substitutions, techniques, or equipment. CRITICAL: If a substitution requires adjusting other ingredients (e.g. 'add more liquid' when using coconut flour), explain why in this answer.",
         "modification": {
            "type": "replace", // or "remove"
            "target_ingredient": "exact name of ingredient to change",
            "replacement_ingredient": {
                "name": "new ingredient name (Title Case)",
                "amount": "adjusted amount (e.g. '3/4 cup')"
            } 
         }
       }
       
       - "modification" block is OPTIONAL. Include it ONLY if the user request implies a change (swap, remove, etc.).
       - If no modification, set "modification" to null.
       
       Do not include markdown code blocks. Just the raw JSON.`

const pantryLogic = `

Create recipes that use the ingredients from the user's pantry list below.
        CRITICAL CULINARY LOGIC:
        1. **SELECT A THEME FIRST**: Decide if the recipe is SAVORY or SWEET.
        2. **STRICT EXCLUSION**:
           - If SAVORY (e.g., Meat, Chicken, Pasta), YOU MUST IGNORE all sweet ingredients (Chocolate, Biscuits, Vanilla) unless used in a trivial authentic way (e.g. pinch of sugar in sauce).
           - If SWEET (e.g., Dessert), YOU MUST IGNORE all savory ingredients (Meat, Garlic, Onions).
        3. **DO NOT MIX** incompatible logical groups just to use more items. A simple Chicken Breast recipe is better than "Chicken with Chocolate Glaze".`

const moodTemplate = `

USER MOOD: %s.
        The user is in a "%s" mood. Ensure the recipes align with this vibe.
        - Comfort: Hearty, warm, nostalgic.
        - Date Night: Impressive, romantic, plating-focused.
        - Quick & Easy: Minimal prep, fast cooking.
        - Energetic: Light, fresh, high protein/healthy fats.
        - Adventurous: Bold flavors, unique ingredients or combinations.
        - Fancy: Gourmet techniques, elegant presentation.`

const outputRules = `

CRITICAL OUTPUT RULES:
    1. **STRICT RECIPES ONLY:** If the user's request is NOT related to cooking, food, or recipes (e.g., "write an essay", "math homework", "code"), you must REFUSE to generate the requested content. Instead, return a single recipe titled "Chef's Limitation" with the description "I am a Chef AI. I can only help you cook! Please ask me for a recipe." and empty ingredients/instructions.
    2. Return strictly valid JSON.
    3. For every ingredient, check if it exists (or is a close match) in the Pantry List. Set "is_missing" to true if NOT in pantry.
    4. Include detailed step-by-step instructions.
    5. List required kitchen equipment.
    6. Provide a macro breakdown (protein, carbs, fat).
    7. For every recipe, provide a "image_prompt" field. This should be a highly detailed, professional food photography prompt for an AI image generator (e.g., "Mouth-watering [Recipe Title], vibrant colors, garnishes, soft cinematic lighting, 8k, macro photography, wooden table background").
    
    JSON Structure:
    {
      "recipes": [
        {
          "title": "Recipe Name",
          "description": "Brief description",
          "time": "15 mins",
          "calories": "350 kcal",
          "macros": { "protein": "25g", "carbs": "10g", "fat": "15g" },
          "image_prompt": "Detailed AI image prompt",
           "ingredients": [
            { "name": "Ingredient Name", "amount": "quantity", "is_missing": true }
          ],
          "instructions": [
            "Step 1...",
            "Step 2..."
          ],
          "equipment": ["Oven", "Bowl", "Whisk"]
        }
      ]
    }
    Do not add markdown.`

// consultPrompt asks for an answer about a recipe, optionally with an
// ingredient change the client can apply.
func consultPrompt(recipeContext json.RawMessage, question string) string {
	return fmt.Sprintf(consultTemplate, describeContext(recipeContext), question)
}

// describeContext renders recipe_context: a string is used verbatim, an
// object is summarised, anything else means no specific recipe.
func describeContext(raw json.RawMessage) string {
	const general = "General Cooking"
	if len(raw) == 0 {
		return general
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return general
		}
		return text
	}

	var recipe struct {
		Title        string          `json:"title"`
		Ingredients  json.RawMessage `json:"ingredients"`
		Instructions json.RawMessage `json:"instructions"`
	}
	if err := json.Unmarshal(raw, &recipe); err != nil {
		return general
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", firstNonEmpty(recipe.Title, "Untitled"))
	if present(recipe.Ingredients) {
		fmt.Fprintf(&b, "Ingredients: %s\n", compactJSON(recipe.Ingredients))
	}
	if present(recipe.Instructions) {
		fmt.Fprintf(&b, "Instructions: %s\n", compactJSON(recipe.Instructions))
	}
	return b.String()
}

// recipePrompt builds the discover and pantry_chef instruction. The mode
// must already be validated.
func recipePrompt(req domain.GenerateRequest, pantry []string) string {
	var b strings.Builder
	b.WriteString("You are a world-class chef. Create 3 unique recipes.")

	switch req.Mode {
	case domain.ModeDiscover:
		fmt.Fprintf(&b, "\n\nUser Request: \"%s\"", req.SearchQuery)
		b.WriteString("\nCreate these recipes based on the user's request. Compare required ingredients against the user's pantry list below.")
	case domain.ModePantryChef:
		if len(pantry) == 0 {
			b.WriteString("\n\nThe user's pantry is empty. Suggest 3 simple, accessible recipes fitting the Meal Type and Filters provided.")
		} else {
			b.WriteString(pantryLogic)
		}
	}

	writeMealType(&b, req.MealType)
	if len(req.Filters) > 0 {
		fmt.Fprintf(&b, "\nStyle/Dietary Filters: %s", strings.Join(req.Filters, ", "))
	}
	if req.Allergies != "" {
		fmt.Fprintf(&b, "\nSTRICT ALLERGIES/EXCLUSIONS: %s", req.Allergies)
	}
	if req.Mood != "" {
		fmt.Fprintf(&b, moodTemplate, req.Mood, req.Mood)
	}

	fmt.Fprintf(&b, "\n\nUser's Pantry List: [%s]", strings.Join(pantry, ", "))
	b.WriteString(outputRules)
	return b.String()
}

func writeMealType(b *strings.Builder, mealType string) {
	if mealType == "" {
		return
	}
	clean := strings.TrimSpace(mealType)
	if strings.EqualFold(clean, "launch") {
		clean = "Lunch"
	}
	lower := strings.ToLower(clean)

	if isSurprise(lower) {
		b.WriteString("\nTarget Meal Type: CHEF'S CHOICE (Surprise the user).")
		b.WriteString("\nCRITICAL: Create 3 distinct, high-quality recipes (e.g. One Breakfast, One Main Course, One Dessert OR 3 Unique Dinner ideas).")
		b.WriteString("\nIMPORTANT: Ensure the recipes are COHESIVE and TASTY. Do NOT generate weird combinations just to be unique (e.g. avoid 'Chicken with Chocolate' unless it's a known authentic dish like Mole).")
		return
	}

	fmt.Fprintf(b, "\nTarget Meal Type: %s", clean)
	switch lower {
	case "lunch", "dinner", "main meal":
		fmt.Fprintf(b, "\nCRITICAL: User specifically requested %s. DO NOT PROVIDE DESSERTS, smoothies, or sweet snacks. Provide savory main courses only.", clean)
	case "dessert":
		b.WriteString("\nCRITICAL: User specifically requested Dessert. DO NOT PROVIDE SAVORY DISHES.")
	}
}

// isSurprise matches "Surprise me" in English, Spanish and Italian spellings.
func isSurprise(lower string) bool {
	for _, marker := range []string{"surprise", "sorpre", "surpre"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func present(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != "false" && trimmed != `""` && trimmed != "0"
}

// compactJSON strips whitespace but keeps key order as sent.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
