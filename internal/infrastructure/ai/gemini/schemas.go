package gemini

import "google.golang.org/genai"

var identifySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"ingredients": {
			Type:        genai.TypeArray,
			Description: "A list of identified ingredients with their confidence scores.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        genai.TypeString,
						Description: "The name of the identified ingredient.",
					},
					"confidence": {
						Type:        genai.TypeNumber,
						Description: "A confidence score between 0 and 1 on the accuracy of the identification.",
					},
				},
				Required: []string{"name", "confidence"},
			},
		},
	},
	Required: []string{"ingredients"},
}

func recipeItemSchema(enhanced bool) *genai.Schema {
	props := map[string]*genai.Schema{
		"name": {
			Type:        genai.TypeString,
			Description: "The name of the recipe.",
		},
		"ingredients": {
			Type:        genai.TypeArray,
			Description: "A list of ingredients required for this recipe.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"instructions": {
			Type:        genai.TypeArray,
			Description: "The step-by-step instructions to prepare the recipe.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"estimatedCookingTime": {
			Type:        genai.TypeString,
			Description: `The estimated time to prepare and cook the recipe (e.g., "30-45 minutes").`,
		},
		"dietaryCategory": {
			Type:        genai.TypeString,
			Description: "The dietary category of the recipe. Determine this based on the ingredients.",
			Enum:        []string{"Vegetarian", "Eggetarian", "Non-Vegetarian"},
		},
		"imagePrompt": {
			Type:        genai.TypeString,
			Description: "A descriptive prompt for an image generation model to create a photorealistic, appetizing picture of the finished dish.",
		},
	}
	required := []string{"name", "ingredients", "instructions", "estimatedCookingTime", "dietaryCategory", "imagePrompt"}

	if enhanced {
		props["difficulty"] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "Cooking difficulty.",
			Enum:        []string{"Easy", "Medium", "Hard"},
		}
		props["cuisine"] = &genai.Schema{Type: genai.TypeString, Description: "Cuisine type."}
		props["nutritionalHighlights"] = &genai.Schema{
			Type:        genai.TypeArray,
			Description: "Key nutritional benefits.",
			Items:       &genai.Schema{Type: genai.TypeString},
		}
		required = append(required, "difficulty", "cuisine", "nutritionalHighlights")
	}

	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func recipesSchema(enhanced bool) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recipes": {
				Type:  genai.TypeArray,
				Items: recipeItemSchema(enhanced),
			},
		},
		Required: []string{"recipes"},
	}
}

var estimateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"calories":      {Type: genai.TypeNumber},
		"protein":       {Type: genai.TypeNumber},
		"fat":           {Type: genai.TypeNumber},
		"carbohydrates": {Type: genai.TypeNumber},
		"fiber":         {Type: genai.TypeNumber},
		"sugar":         {Type: genai.TypeNumber},
	},
	Required: []string{"calories", "protein", "fat", "carbohydrates", "fiber", "sugar"},
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"calories":      {Type: genai.TypeString, Description: "Estimated total calories for one serving."},
		"protein":       {Type: genai.TypeString, Description: "Estimated grams of protein."},
		"fat":           {Type: genai.TypeString, Description: "Estimated grams of fat."},
		"carbohydrates": {Type: genai.TypeString, Description: "Estimated grams of carbohydrates."},
		"fiber":         {Type: genai.TypeString, Description: "Estimated grams of fiber."},
		"sugar":         {Type: genai.TypeString, Description: "Estimated grams of sugar."},
		"servingSize":   {Type: genai.TypeString, Description: "The recommended serving size for this analysis."},
		"disclaimer": {
			Type:        genai.TypeString,
			Description: "A brief disclaimer that this is an AI-generated estimate and not a substitute for professional nutritional advice.",
		},
	},
	Required: []string{"calories", "protein", "fat", "carbohydrates", "fiber", "sugar", "servingSize", "disclaimer"},
}

// recipeSafety mirrors the thresholds used for every recipe-generation call.
var recipeSafety = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockLowAndAbove},
}

var nutritionSafety = []*genai.SafetySetting{
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}
