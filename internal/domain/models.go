package domain

// ModelOption describes a selectable vision model.
type ModelOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier,omitempty"`
}

var modelCatalog = map[Provider][]ModelOption{
	ProviderGemini: {
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash (Standard)", Tier: "Free"},
		{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash (Latest)", Tier: "Free"},
		{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro (High Quality)", Tier: "Paid"},
		{ID: "gemini-flash-lite-latest", Name: "Gemini 2.5 Flash Lite (Fast)", Tier: "Free"},
	},
	ProviderGroq: {
		{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Name: "Llama 4 Scout Fast"},
		{ID: "meta-llama/llama-4-maverick-17b-128e-instruct", Name: "Llama 4 Maverick HQ"},
	},
	ProviderMistral: {
		{ID: "pixtral-12b-latest", Name: "Pixtral 12B Vision"},
	},
}

var defaultModels = map[Provider]string{
	ProviderGemini:  "gemini-3-flash-preview",
	ProviderGroq:    "meta-llama/llama-4-scout-17b-16e-instruct",
	ProviderMistral: "pixtral-12b-latest",
}

// Models returns the catalog for p.
func Models(p Provider) []ModelOption {
	return modelCatalog[p]
}

// DefaultModel returns the model preselected for p.
func DefaultModel(p Provider) string {
	return defaultModels[p]
}
