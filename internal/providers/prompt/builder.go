// Package prompt renders the instruction sent to vision models and parses
// the JSON object they answer with.
package prompt

import (
	"fmt"
	"strings"

	"stockmeta/internal/domain"
)

// BannedWords are never acceptable in stock metadata regardless of config.
var BannedWords = []string{"elevate", "premium", "luxury", "AI", "generative", "isolated", "background"}

// Build renders the system instruction for cfg. It is deterministic and has
// no side effects.
func Build(cfg domain.GenerationConfig) string {
	sb := &strings.Builder{}

	sb.WriteString("ROLE: Expert Microstock Metadata Specialist.\n")
	sb.WriteString("TASK: Analyze image content and generate highly accurate, SEO-optimized metadata.\n\n")

	sb.WriteString("STRICT CATEGORY SELECTION RULES (NON-NEGOTIABLE):\n")
	sb.WriteString("You MUST provide an entry for ALL FIVE (5) category fields. YOU MUST ONLY PICK FROM THE PROVIDED LISTS.\n")
	for i, f := range domain.CategoryFields() {
		fmt.Fprintf(sb, "%d. '%s': CHOOSE ONLY FROM: [%s]\n", i+1, f, strings.Join(f.Categories(), ", "))
	}

	sb.WriteString("\nCRITICAL INSTRUCTION FOR TITLE GENERATION:\n")
	sb.WriteString("- THE USER IS ALREADY PROVIDING THE PREFIX AND SUFFIX MANUALLY.\n")
	fmt.Fprintf(sb, "- DO NOT INCLUDE THE PREFIX %q IN YOUR OUTPUT.\n", cfg.Prefix())
	fmt.Fprintf(sb, "- DO NOT INCLUDE THE SUFFIX %q IN YOUR OUTPUT.\n", cfg.Suffix())
	sb.WriteString("- YOUR TITLE MUST START AND END WITH THE CORE DESCRIPTION IMMEDIATELY.\n")
	if words := cfg.NegativeTitleList(); len(words) > 0 {
		fmt.Fprintf(sb, "- DO NOT USE THESE WORDS IN THE TITLE: [%s]\n", strings.Join(words, ", "))
	}
	if words := cfg.NegativeKeywordList(); len(words) > 0 {
		fmt.Fprintf(sb, "- DO NOT USE THESE KEYWORDS: [%s]\n", strings.Join(words, ", "))
	}

	sb.WriteString("\nSTRICT WORD COUNT RULES:\n")
	fmt.Fprintf(sb, "1. TITLE WORD COUNT: Target approx %d words.\n", cfg.TitleLen)
	fmt.Fprintf(sb, "2. DESCRIPTION WORD COUNT: Target approx %d words.\n", cfg.DescLen)
	fmt.Fprintf(sb, "3. KEYWORD COUNT: Provide EXACTLY %d unique keywords.\n", cfg.KwCount)
	sb.WriteString("   KEYWORD RULE: SINGLE WORDS ONLY. NO PHRASES.\n")

	sb.WriteString("\nSEO & QUALITY RULES:\n")
	sb.WriteString("1. LANGUAGE: Simple, searchable English. No marketing fluff.\n")
	fmt.Fprintf(sb, "2. NO BANNED WORDS: %s.\n", strings.Join(BannedWords, ", "))
	sb.WriteString("3. NO TRAILING PUNCTUATION: Titles and Descriptions must NOT end with a full stop.\n")

	sb.WriteString("\nOUTPUT FORMAT:\nReturn a valid JSON object ONLY:\n")
	sb.WriteString(`{"title":"string","description":"string","keywords":["string","string"]`)
	for _, f := range domain.CategoryFields() {
		fmt.Fprintf(sb, `,"%s":"string"`, f)
	}
	sb.WriteString("}\n")

	if custom := cfg.CustomInstructions(); custom != "" {
		sb.WriteString("\nUSER OVERRIDE INSTRUCTIONS: ")
		sb.WriteString(custom)
		sb.WriteString("\n")
	}

	return sb.String()
}
