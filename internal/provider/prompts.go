package provider

import "strings"

// PromptBuilder constructs the instruction prompts sent to providers.
type PromptBuilder struct{}

const outputInstruction = "Respond with ONLY a JSON array of Excalidraw elements. " +
	"No prose, no explanation. Wrapping the array in a ```json code fence is acceptable.\n"

// BuildDiagramPrompt produces the full prompt for a text-to-diagram request.
func (pb *PromptBuilder) BuildDiagramPrompt(description string) string {
	var sb strings.Builder
	sb.WriteString("Role: Diagram designer. Task: Convert the description below into an Excalidraw scene.\n\n")
	sb.WriteString(outputInstruction)
	sb.WriteString("\nEach element is an object with:\n")
	sb.WriteString("- id: unique string\n")
	sb.WriteString("- type: one of rectangle, ellipse, diamond, arrow, line, text\n")
	sb.WriteString("- x, y: top-left position (numbers)\n")
	sb.WriteString("- width, height: size (numbers; shapes at least 50x30)\n")
	sb.WriteString("- strokeColor, backgroundColor: hex colors\n")
	sb.WriteString("- text: content for text elements\n")
	sb.WriteString("- startBinding/endBinding: {\"elementId\": ...} for arrows\n")
	sb.WriteString("\nLay elements out without overlaps and leave breathing room between shapes.\n")
	sb.WriteString("\nDescription:\n")
	sb.WriteString(description)
	return sb.String()
}

// BuildImagePrompt produces the text part of an image-to-diagram request; the
// image itself travels as a separate content part.
func (pb *PromptBuilder) BuildImagePrompt(description string) string {
	var sb strings.Builder
	sb.WriteString("Role: Diagram designer. Task: Recreate the attached image as an Excalidraw scene.\n\n")
	sb.WriteString(outputInstruction)
	if strings.TrimSpace(description) != "" {
		sb.WriteString("\nAdditional instructions:\n")
		sb.WriteString(description)
	}
	return sb.String()
}
