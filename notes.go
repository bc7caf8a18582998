package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/voice-notes/client"
	"github.com/mrsingh-rishi/voice-notes/model"
)

var listJSON bool

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List and delete your notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api := client.NewNotesAPI(serverURL, token)
		list, err := api.ListNotes(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tDURATION\tTITLE")
		for _, n := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Local().Format("Jan 2 15:04"), formatDuration(n.DurationSeconds), title(n))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		s := model.Summarize(list)
		fmt.Fprintf(out, "\n%d notes, %d minutes, %d days\n", s.Notes, s.Minutes, s.Days)
		return nil
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete notes by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api := client.NewNotesAPI(serverURL, token)
		for _, id := range args {
			if err := api.DeleteNote(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show the model tokens you have used",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := client.NewNotesAPI(serverURL, token).Usage(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "input tokens:  %d\noutput tokens: %d\n", u.InputTokens, u.OutputTokens)
		return nil
	},
}

func title(n model.Note) string {
	if n.Title == nil || *n.Title == "" {
		return "Untitled note"
	}
	return *n.Title
}

// formatDuration renders seconds as m:ss.
func formatDuration(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func printNote(w io.Writer, n model.Note) {
	fmt.Fprintf(w, "# %s\n\n%s\n\n(%s, id %s)\n", title(n), n.StructuredTranscript, formatDuration(n.DurationSeconds), n.ID)
}

func init() {
	notesListCmd.Flags().BoolVar(&listJSON, "json", false, "Print notes as JSON")
	notesCmd.AddCommand(notesListCmd, notesDeleteCmd)
	rootCmd.AddCommand(notesCmd, usageCmd)
}
