package generate

import (
	"encoding/json"
	"strings"
	"testing"

	"chefmind/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDescribeContext(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"absent", ``, "General Cooking"},
		{"null", `null`, "General Cooking"},
		{"string verbatim", `"Grandma's lasagna"`, "Grandma's lasagna"},
		{"object", `{"title":"Pancakes","ingredients":[{"name":"Flour", "amount":"1 cup"}],"instructions":["Mix","Fry"]}`,
			"Title: Pancakes\nIngredients: [{\"name\":\"Flour\",\"amount\":\"1 cup\"}]\nInstructions: [\"Mix\",\"Fry\"]\n"},
		{"untitled object", `{"ingredients":["Eggs"]}`, "Title: Untitled\nIngredients: [\"Eggs\"]\n"},
		{"array", `[1,2]`, "General Cooking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeContext(json.RawMessage(tt.raw)))
		})
	}
}

func TestConsultPrompt(t *testing.T) {
	prompt := consultPrompt(json.RawMessage(`"Tacos"`), "Can I use tofu?")
	assert.True(t, strings.HasPrefix(prompt, "You are a helpful culinary assistant.\n       Context Recipe: Tacos\n"))
	assert.Contains(t, prompt, `User Question: "Can I use tofu?"`)
	assert.Contains(t, prompt, `If no modification, set "modification" to null.`)
}

func TestRecipePromptModes(t *testing.T) {
	t.Run("discover", func(t *testing.T) {
		prompt := recipePrompt(domain.GenerateRequest{Mode: domain.ModeDiscover, SearchQuery: "spicy ramen"}, []string{"Eggs", "Scallions"})
		assert.True(t, strings.HasPrefix(prompt, "You are a world-class chef. Create 3 unique recipes.\n\nUser Request: \"spicy ramen\""))
		assert.Contains(t, prompt, "User's Pantry List: [Eggs, Scallions]")
		assert.Contains(t, prompt, "CRITICAL OUTPUT RULES:")
		assert.True(t, strings.HasSuffix(prompt, "Do not add markdown."))
	})

	t.Run("pantry chef with items", func(t *testing.T) {
		prompt := recipePrompt(domain.GenerateRequest{Mode: domain.ModePantryChef}, []string{"Chicken"})
		assert.Contains(t, prompt, "CRITICAL CULINARY LOGIC:")
		assert.NotContains(t, prompt, "pantry is empty")
	})

	t.Run("pantry chef empty", func(t *testing.T) {
		prompt := recipePrompt(domain.GenerateRequest{Mode: domain.ModePantryChef}, nil)
		assert.Contains(t, prompt, "The user's pantry is empty. Suggest 3 simple, accessible recipes")
		assert.Contains(t, prompt, "User's Pantry List: []")
	})
}

func TestRecipePromptMealType(t *testing.T) {
	tests := []struct {
		name     string
		mealType string
		contains []string
		excludes []string
	}{
		{
			name:     "launch typo",
			mealType: " launch ",
			contains: []string{"Target Meal Type: Lunch", "User specifically requested Lunch. DO NOT PROVIDE DESSERTS"},
		},
		{
			name:     "dinner",
			mealType: "Dinner",
			contains: []string{"Target Meal Type: Dinner", "requested Dinner. DO NOT PROVIDE DESSERTS"},
		},
		{
			name:     "main meal",
			mealType: "Main Meal",
			contains: []string{"DO NOT PROVIDE DESSERTS"},
		},
		{
			name:     "dessert",
			mealType: "dessert",
			contains: []string{"Target Meal Type: dessert", "DO NOT PROVIDE SAVORY DISHES"},
			excludes: []string{"DO NOT PROVIDE DESSERTS"},
		},
		{
			name:     "surprise spanish",
			mealType: "Sorpresa",
			contains: []string{"CHEF'S CHOICE (Surprise the user)", "COHESIVE and TASTY"},
			excludes: []string{"Target Meal Type: Sorpresa"},
		},
		{
			name:     "breakfast has no constraint",
			mealType: "Breakfast",
			contains: []string{"Target Meal Type: Breakfast"},
			excludes: []string{"CRITICAL: User specifically requested"},
		},
		{
			name:     "absent",
			excludes: []string{"Target Meal Type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := recipePrompt(domain.GenerateRequest{Mode: domain.ModePantryChef, MealType: tt.mealType}, nil)
			for _, s := range tt.contains {
				assert.Contains(t, prompt, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, prompt, s)
			}
		})
	}
}

func TestRecipePromptExtras(t *testing.T) {
	prompt := recipePrompt(domain.GenerateRequest{
		Mode:      domain.ModeDiscover,
		Filters:   []string{"Vegan", "Gluten-Free"},
		Allergies: "peanuts",
		Mood:      "Comfort",
	}, nil)

	assert.Contains(t, prompt, "\nStyle/Dietary Filters: Vegan, Gluten-Free")
	assert.Contains(t, prompt, "\nSTRICT ALLERGIES/EXCLUSIONS: peanuts")
	assert.Contains(t, prompt, "USER MOOD: Comfort.")
	assert.Contains(t, prompt, `The user is in a "Comfort" mood.`)
}
