package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// MaxMediaBytes is the largest media asset forwarded to the model.
const MaxMediaBytes = 20 * 1024 * 1024

// Tier is the caller's entitlement level. It only selects policy.
type Tier string

const (
	TierStandard  Tier = "standard"
	TierExecutive Tier = "executive"
)

// TierFromFlag maps the wire-level is_executive flag to a Tier.
func TierFromFlag(executive bool) Tier {
	if executive {
		return TierExecutive
	}
	return TierStandard
}

// IngestionRequest is a single import call.
type IngestionRequest struct {
	SourceURL string
	Tier      Tier
}

// PageMetadata is what the scraper found. Empty strings mean absent.
type PageMetadata struct {
	Title        string
	Description  string
	ThumbnailURL string
}

// MediaAsset is downloaded media attached to the model prompt.
type MediaAsset struct {
	Data     []byte
	MIMEType string
	Size     int64
}

// FlexString accepts either a JSON string or a JSON number.
// Models are inconsistent about "time": "20 mins" versus "time": 20.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*s = FlexString(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*s = FlexString(strconv.FormatBool(x))
	default:
		*s = FlexString(string(b))
	}
	return nil
}

// Macros holds the nutritional breakdown of a recipe.
type Macros struct {
	Protein FlexString `json:"protein"`
	Carbs   FlexString `json:"carbs"`
	Fat     FlexString `json:"fat"`
}

// Ingredient is a single line of a recipe.
type Ingredient struct {
	Name      string     `json:"name"`
	Amount    FlexString `json:"amount"`
	IsMissing *bool      `json:"is_missing,omitempty"`
}

// UnmarshalJSON also accepts a bare string, which becomes the name.
func (i *Ingredient) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*i = Ingredient{Name: name}
		return nil
	}
	type plain Ingredient
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Ingredient(p)
	return nil
}

// StepList is a list of free-text lines. It also accepts a single string
// and objects that carry their text under "text", "instruction" or "step".
// Elements of any other shape are dropped.
type StepList []string

func (l *StepList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var line string
		if err := json.Unmarshal(b, &line); err != nil {
			return err
		}
		*l = StepList{line}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make(StepList, 0, len(items))
	for _, item := range items {
		if line, ok := stepText(item); ok {
			out = append(out, line)
		}
	}
	*l = out
	return nil
}

var stepTextKeys = []string{"text", "instruction", "step"}

func stepText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var line string
		if err := json.Unmarshal(raw, &line); err != nil {
			return "", false
		}
		return line, true
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", false
		}
		for _, key := range stepTextKeys {
			var line string
			if err := json.Unmarshal(obj[key], &line); err == nil && line != "" {
				return line, true
			}
		}
	}
	return "", false
}

// RecipeDraft is a best-effort recipe decoded from model output.
// Every field may be absent.
type RecipeDraft struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Time         FlexString   `json:"time"`
	Calories     FlexString   `json:"calories"`
	Macros       *Macros      `json:"macros,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions StepList     `json:"instructions"`
	Equipment    StepList     `json:"equipment"`
	Thumbnail    string       `json:"thumbnail,omitempty"`
	ImagePrompt  string       `json:"image_prompt,omitempty"`
}

// HasRecipe reports whether the draft carries enough to count as found:
// more than one ingredient and at least one instruction.
func (r *RecipeDraft) HasRecipe() bool {
	return len(r.Ingredients) > 1 && len(r.Instructions) > 0
}

// IngestionStatus classifies an import.
type IngestionStatus string

const (
	StatusFound IngestionStatus = "found"
	StatusEmpty IngestionStatus = "empty"
	StatusError IngestionStatus = "error"
)

// ResultMetadata is the display title and thumbnail for an import.
type ResultMetadata struct {
	Title     string  `json:"title"`
	Thumbnail *string `json:"thumbnail"`
}

// IngestionResult is the sole externally observed artifact of an import.
type IngestionResult struct {
	Status   IngestionStatus `json:"status"`
	Recipe   *RecipeDraft    `json:"recipe"`
	Metadata ResultMetadata  `json:"metadata"`
	Debug    []string        `json:"debug"`
}
