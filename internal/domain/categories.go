package domain

// CategoryField names one of the five category slots of Metadata.
type CategoryField string

const (
	FieldAdobeCategory        CategoryField = "adobe_category"
	FieldShutterstockMain     CategoryField = "shutterstock_main"
	FieldShutterstockOptional CategoryField = "shutterstock_optional"
	FieldVectorstockPrimary   CategoryField = "vectorstock_primary"
	FieldVectorstockSecondary CategoryField = "vectorstock_secondary"
)

// CategoryFields lists the slots in prompt and export order.
func CategoryFields() []CategoryField {
	return []CategoryField{
		FieldAdobeCategory,
		FieldShutterstockMain,
		FieldShutterstockOptional,
		FieldVectorstockPrimary,
		FieldVectorstockSecondary,
	}
}

// Secondary reports whether the slot falls back to the second list entry.
func (f CategoryField) Secondary() bool {
	return f == FieldShutterstockOptional || f == FieldVectorstockSecondary
}

// Categories returns the permitted list for the slot.
func (f CategoryField) Categories() []string {
	switch f {
	case FieldAdobeCategory:
		return AdobeCategories
	case FieldShutterstockMain, FieldShutterstockOptional:
		return ShutterstockCategories
	case FieldVectorstockPrimary, FieldVectorstockSecondary:
		return VectorStockCategories
	default:
		return nil
	}
}

var AdobeCategories = []string{
	"Animals", "Buildings and Architecture", "Business", "Drinks", "The Environment",
	"States of Mind", "Food", "Graphic Resources", "Hobbies and Leisure", "Industry",
	"Landscapes", "Lifestyle", "People", "Plants and Flowers", "Culture and Religion",
	"Science", "Social Issues", "Sports", "Technology", "Transport", "Travel",
}

var ShutterstockCategories = []string{
	"Abstract", "Animals/Wildlife", "Arts", "Backgrounds/Textures", "Beauty/Fashion",
	"Buildings/Landmarks", "Business/Finance", "Celebrities", "Education", "Food and drink",
	"Healthcare/Medical", "Holidays", "Industrial", "Interiors", "Miscellaneous", "Nature",
	"Objects", "Parks/Outdoor", "People", "Religion", "Science", "Signs/Symbols",
	"Sports/Recreation", "Technology", "Transportation", "Vintage",
}

var VectorStockCategories = []string{
	"Abstract", "Animals & Wildlife", "Artistic & Experimental", "Backgrounds & Textures",
	"Beauty & Fashion", "Borders & Frames", "Buildings & Landmarks", "Business & Finance",
	"Cartoons", "Celebration & Party", "Children & Family", "Christmas", "Cityscapes",
	"Communication", "Computers", "Copy-Space", "DJ-Dance Music", "Dancing", "Design Elements",
	"Digital Media", "Document Template", "Easter", "Education", "Entertainment",
	"Flags & Ribbons", "Floral & Decorative", "Fonts & Type", "Food & Drink", "Game Assets",
	"Geographical & Maps", "Graffiti", "Graphs & Charts", "Grunge", "Halloween",
	"Healthcare & Medical", "Heraldry", "Housing", "Icon & Emblem (single)", "Icons & Emblems (sets)",
	"Industrial", "Infographics", "Interiors", "Landscapes & Nature", "Logos", "Military",
	"Miscellaneous", "Music", "Objects & Still Life", "Packaging", "Patterns (seamless)",
	"Patterns (single)", "People", "Photo-Real", "Religion", "Science", "Seasons",
	"Shopping & Retail", "Signs & Symbols", "Silhouettes", "Sports & Recreation",
	"T-Shirt Graphics", "Technology", "Telecommunications", "Transportation", "Urban Scenes",
	"User Interface", "Vacation & Travel", "Valentines Day", "Vintage", "Weddings",
}

// Get returns the value stored in the given slot.
func (m Metadata) Get(f CategoryField) string {
	switch f {
	case FieldAdobeCategory:
		return m.AdobeCategory
	case FieldShutterstockMain:
		return m.ShutterstockMain
	case FieldShutterstockOptional:
		return m.ShutterstockOptional
	case FieldVectorstockPrimary:
		return m.VectorstockPrimary
	case FieldVectorstockSecondary:
		return m.VectorstockSecondary
	default:
		return ""
	}
}

// Set stores v in the given slot.
func (m *Metadata) Set(f CategoryField, v string) {
	switch f {
	case FieldAdobeCategory:
		m.AdobeCategory = v
	case FieldShutterstockMain:
		m.ShutterstockMain = v
	case FieldShutterstockOptional:
		m.ShutterstockOptional = v
	case FieldVectorstockPrimary:
		m.VectorstockPrimary = v
	case FieldVectorstockSecondary:
		m.VectorstockSecondary = v
	}
}
