package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// confirmDeletion asks before a destructive batch. Only an explicit yes
// proceeds; EOF or anything else declines.
func confirmDeletion(count int) bool {
	fmt.Printf("You are about to delete %d item(s). This cannot be undone.\n", count)
	fmt.Print("Delete permanently? (yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "yes" || answer == "y"
}

// promptLine reads one input line, returning fallback when the user just
// presses Enter.
func promptLine(reader *bufio.Reader, label, fallback string) string {
	if fallback != "" {
		fmt.Printf("%s [%s]: ", label, fallback)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return fallback
	}
	return input
}
