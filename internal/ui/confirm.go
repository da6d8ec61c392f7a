package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ConfirmDanger prompts for a destructive action, defaulting to no.
func ConfirmDanger(prompt string) bool {
	fmt.Printf("%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
