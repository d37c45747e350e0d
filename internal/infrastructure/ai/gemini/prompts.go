package gemini

import (
	"fmt"
	"strings"
)

const identifyPrompt = `You are an expert food identifier. You will identify the food ingredients in a photo.

Your task is to:
1. Identify all distinct food items in the image.
2. Consolidate variations of the same ingredient. For example, if you see "tomato" and "tomatoes", list it only once as "tomato". Use singular forms for all ingredients.
3. Filter out any items that are not edible food ingredients.
4. For each valid ingredient, provide its name and a confidence score from 0.0 to 1.0 representing how certain you are about the identification.

Return a clean, de-duplicated list of validated food ingredients.`

func suggestPrompt(ingredients []string, count int) string {
	return fmt.Sprintf(`You are a sous chef specializing in creating recipes based on a limited set of ingredients.
You will use this information to create a list of recipe suggestions that the user can make. You will only suggest recipes that can be made with the ingredients provided. For each recipe, provide the name, the list of ingredients from the input that are used, the step-by-step instructions, the estimated cooking time, the dietary category ('Vegetarian', 'Eggetarian', 'Non-Vegetarian'), and a detailed, descriptive prompt to generate an image for the recipe.

Ingredients: %s

Suggest %d recipes:`, strings.Join(ingredients, ", "), count)
}

func findPrompt(query string, count int) string {
	return fmt.Sprintf(`You are a creative chef. A user wants to find recipes based on a search query.

Suggest %d recipes based on the user's query. For each recipe, provide the name, a complete list of ingredients, the step-by-step instructions, the estimated cooking time, the dietary category and a detailed, descriptive prompt to generate an image of the finished dish.

User Query: %s

Suggest %d recipes:`, count, query, count)
}

func enhancedPrompt(ingredients []string, cuisine string, restrictions []string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d detailed recipes using these ingredients: %s\n", count, strings.Join(ingredients, ", "))
	if cuisine != "" {
		fmt.Fprintf(&b, "Preferred cuisine: %s\n", cuisine)
	}
	if len(restrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s\n", strings.Join(restrictions, ", "))
	}
	b.WriteString("\nFor each recipe provide complete details including difficulty level, cuisine type, and nutritional highlights.")
	return b.String()
}

func estimatePrompt(recipeName string, ingredients []string) string {
	return fmt.Sprintf(`Estimate the nutritional content for these ingredients in the context of the recipe "%s":
Ingredients: %s

Provide estimated totals assuming reasonable portion sizes for a typical recipe serving.`, recipeName, strings.Join(ingredients, ", "))
}

func analyzePrompt(recipeName string, ingredients []string) string {
	return fmt.Sprintf(`You are an expert nutritionist. Analyze the provided recipe and its ingredients to estimate the nutritional information per serving.

Recipe Name: %s
Ingredients: %s

Provide the estimated calories, protein, fat, carbohydrates, fiber, and sugar content. Also specify the serving size you are using for the calculation and include a brief disclaimer about the information being an AI estimate.`, recipeName, strings.Join(ingredients, ", "))
}
