package helpers

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrintConfigInfo prints the Karate config in verbose/dry-run mode
func PrintConfigInfo(w io.Writer, karateConf map[string]any, dryRun bool) {
	if len(karateConf) == 0 {
		return
	}

	header := "Karate Configuration"
	if dryRun {
		header = "Karate Configuration (DRY RUN)"
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "========================================")

	jsonBytes, err := json.MarshalIndent(karateConf, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "  %v\n", karateConf)
	} else {
		fmt.Fprintf(w, "%s\n", string(jsonBytes))
	}

	fmt.Fprintln(w, "----------------------------------------")
}
