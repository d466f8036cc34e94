package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/constants"
	"github.com/driveman/driveman/internal/models"
	"github.com/driveman/driveman/internal/util/filter"
	"github.com/driveman/driveman/internal/util/format"
)

// newLsCmd lists the children of a folder, root by default.
func newLsCmd() *cobra.Command {
	var (
		includePatterns string
		excludePatterns string
		searchTerms     string
	)

	cmd := &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List files and folders",
		Long: `List the children of a folder, folders first. With no argument the root
folder is listed. Filter flags match entry titles.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := constants.RootFolderID
			if len(args) == 1 && args[0] != "" {
				folderID = args[0]
			}

			storage, err := getStorage()
			if err != nil {
				return err
			}

			entries, err := storage.ListChildren(GetContext(), folderID)
			if err != nil {
				return fmt.Errorf("failed to list folder %s: %w", folderID, err)
			}

			filterCfg := filter.Config{
				Include: filter.ParsePatternList(includePatterns),
				Exclude: filter.ParsePatternList(excludePatterns),
				Search:  filter.ParsePatternList(searchTerms),
			}
			shown := filter.ApplyToEntries(entries, filterCfg)
			if !filterCfg.Empty() && len(shown) < len(entries) {
				fmt.Printf("Filtered: %d of %d entries match\n", len(shown), len(entries))
			}

			if len(shown) == 0 {
				fmt.Println("No entries found")
				return nil
			}

			fmt.Printf("Found %d item(s):\n\n", len(shown))
			printEntryTable(shown)
			return nil
		},
	}

	cmd.Flags().StringVar(&includePatterns, "include", "", "Include only entries matching these patterns (comma-separated glob patterns, e.g. \"*.dat,*.log\")")
	cmd.Flags().StringVar(&excludePatterns, "exclude", "", "Exclude entries matching these patterns (comma-separated glob patterns, e.g. \"debug*,temp*\")")
	cmd.Flags().StringVar(&searchTerms, "search", "", "Include only entries whose title contains these terms (comma-separated, case-insensitive)")

	return cmd
}

// printEntryTable renders a listing in fixed columns.
func printEntryTable(entries []models.Entry) {
	fmt.Printf("%-28s %-40s %-14s %10s  %s\n", "ID", "NAME", "TYPE", "SIZE", "MODIFIED")
	fmt.Println(strings.Repeat("-", 112))

	for _, e := range entries {
		size := "-"
		if !e.IsFolder() {
			size = format.FormatSize(e.Size)
		}
		fmt.Printf("%-28s %-40s %-14s %10s  %s\n",
			e.ID, e.Title, format.MimeDescription(e.MimeType), size, format.FormatTime(e.ModTime))
	}
}
