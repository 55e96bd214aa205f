package domain

import "encoding/json"

// Generation modes.
const (
	ModeDiscover    = "discover"
	ModePantryChef  = "pantry_chef"
	ModeConsultChef = "consult_chef"
)

// GenerateRequest is the body of a generate-recipes call.
type GenerateRequest struct {
	Mode          string          `json:"mode"`
	SearchQuery   string          `json:"search_query"`
	Filters       []string        `json:"filters"`
	MealType      string          `json:"meal_type"`
	Allergies     string          `json:"allergies"`
	Mood          string          `json:"mood"`
	RecipeContext json.RawMessage `json:"recipe_context"`
	UserQuestion  string          `json:"user_question"`
	IsExecutive   bool            `json:"is_executive"`
}

// GeneratedRecipe is a RecipeDraft with explicit (nullable) image fields.
type GeneratedRecipe struct {
	RecipeDraft
	Thumbnail *string `json:"thumbnail"`
	Image     *string `json:"image"`
}

// GenerateResponse is the body returned for discover and pantry_chef.
type GenerateResponse struct {
	Recipes []GeneratedRecipe `json:"recipes"`
}

// Modification is a suggested change to a recipe's ingredient list.
type Modification struct {
	Type                  string      `json:"type"`
	TargetIngredient      string      `json:"target_ingredient"`
	ReplacementIngredient *Ingredient `json:"replacement_ingredient,omitempty"`
}

// ChefAnswer is the reply to a consult_chef question.
type ChefAnswer struct {
	Answer       string        `json:"answer"`
	Modification *Modification `json:"modification"`
}

// FridgeRequest is the body of an analyze-fridge call.
type FridgeRequest struct {
	ImagePath string `json:"image_path"`
}

// FridgeResult lists ingredients recognised in a photo.
type FridgeResult struct {
	Ingredients []string `json:"ingredients"`
}
