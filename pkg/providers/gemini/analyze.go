package gemini

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed analyze_instruction.md
var analyzeInstruction string

const characterNamePlaceholder = "{{CHARACTER_NAME}}"

// analyzeSystemInstruction はキャラクター名を埋め込んだ解析用システム指示を返します。
func analyzeSystemInstruction(name string) string {
	return strings.ReplaceAll(analyzeInstruction, characterNamePlaceholder, name)
}

func analyzeUserPrompt(name string) string {
	return fmt.Sprintf("Analyze the character named %q using the instructions provided in the system prompt. Reference images are attached.", name)
}
