package services

import "github.com/google/generative-ai-go/genai"

// motifCodingSchema is the response schema the generation service is
// constrained to. Every field is required so the payload always decodes to
// a fully populated struct; optionality is expressed through nullable
// fields and empty arrays, not missing keys.
func motifCodingSchema() *genai.Schema {
	stringArray := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: desc,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	}
	boolean := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeBoolean, Description: desc}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"training_type":       stringArray("Types of training discussed, e.g. strength, endurance, HIIT, mobility. Empty if none."),
			"recovery_methods":    stringArray("Recovery methods mentioned, e.g. sleep, ice bath, massage, stretching. Empty if none."),
			"equipment_mentioned": stringArray("Equipment explicitly mentioned. Empty if none."),
			"performance_metrics": stringArray("Performance metrics referenced, e.g. VO2 max, 1RM, heart rate. Empty if none."),

			"nutrition_focus":       boolean("True if nutrition is a significant topic of the video."),
			"supplements_mentioned": stringArray("Supplements explicitly mentioned, e.g. creatine, whey, caffeine. Empty if none."),
			"diet_type": {
				Type:        genai.TypeString,
				Nullable:    true,
				Description: "Specific diet discussed, e.g. keto, vegan, carnivore. Null if no specific diet is discussed.",
			},
			"meal_timing_discussed": boolean("True if meal timing or nutrient timing is discussed."),

			"cites_research":    boolean("True if scientific studies or research are cited."),
			"expert_featured":   boolean("True if a credentialed expert appears or is quoted."),
			"studies_mentioned": stringArray("Brief descriptions of specific studies mentioned. Empty if none. Max 5 items."),

			"primary_topic": {
				Type:        genai.TypeString,
				Description: "The single main topic of the video in a few words.",
			},
			"target_audience": {
				Type:        genai.TypeString,
				Enum:        []string{"beginners", "intermediate", "advanced", "athletes", "general fitness"},
				Description: "Who the content is aimed at.",
			},
			"actionable_advice": boolean("True if the video gives concrete advice a viewer can act on."),
			"product_promotion": boolean("True if products or services are promoted or sponsored."),
			"content_quality": {
				Type:        genai.TypeString,
				Enum:        []string{"high", "medium", "low"},
				Description: "Overall information quality per the quality criteria.",
			},

			"key_quotes": {
				Type:        genai.TypeArray,
				Description: "Up to 5 notable verbatim quotes with context.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"text": {
							Type:        genai.TypeString,
							Description: "Exact wording from the transcript, max 200 characters.",
						},
						"context": {
							Type:        genai.TypeString,
							Description: "Why this quote matters.",
						},
					},
					Required: []string{"text", "context"},
				},
			},
			"main_claims": stringArray("The main factual claims made in the video. Max 5 items."),

			"mentions_injury": boolean("True if injuries, injury risk, or injury prevention are discussed."),
		},
		Required: []string{
			"training_type", "recovery_methods", "equipment_mentioned", "performance_metrics",
			"nutrition_focus", "supplements_mentioned", "diet_type", "meal_timing_discussed",
			"cites_research", "expert_featured", "studies_mentioned",
			"primary_topic", "target_audience", "actionable_advice", "product_promotion", "content_quality",
			"key_quotes", "main_claims", "mentions_injury",
		},
	}
}
