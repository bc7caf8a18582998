package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/voice-notes/capture"
	"github.com/mrsingh-rishi/voice-notes/client"
	"github.com/mrsingh-rishi/voice-notes/config"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/workers"
)

var (
	recordMime    string
	recordMax     time.Duration
	recordPrompt  string
	recordSchema  string
	recordDiscard bool
)

// remoteNotes saves notes through the service's notes API.
type remoteNotes struct {
	api *client.NotesAPI
}

func (r remoteNotes) Create(ctx context.Context, _ string, transcript string, durationSeconds float64, title string) (model.Note, error) {
	return r.api.CreateNote(ctx, transcript, durationSeconds, title)
}

var recordCmd = &cobra.Command{
	Use:   "record [file]",
	Short: "Record a memo from a file or stdin and save it as a note",
	Long: `Record reads audio from a file, or from stdin when the file is "-" or omitted,
for example piped from arecord or ffmpeg. Recording stops when the input ends,
after --max, or on Ctrl-C. The audio is then structured and saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}

		opts := []client.Option{client.WithPrompt(recordPrompt)}
		if recordSchema != "" {
			structure, err := config.LoadStructure(recordSchema)
			if err != nil {
				return err
			}
			opts = append(opts, client.WithStructure(structure))
		}
		processor := client.New(client.NewHTTPInvoker(serverURL, token), opts...)
		pipeline := workers.NewNotePipeline("", processor, remoteNotes{client.NewNotesAPI(serverURL, token)}, nil)

		device := capture.NewFileDevice(path, recordMime)
		var saved model.Note
		recorder := capture.NewRecorder(device, capture.Options{
			OnTick: func(elapsed time.Duration) {
				fmt.Fprintf(os.Stderr, "\rrecording %s", elapsed.Truncate(time.Second))
			},
			OnFinished: func(ctx context.Context, rec model.Recording) error {
				fmt.Fprintf(os.Stderr, "\rprocessing %.1fs of audio...\n", rec.DurationSeconds)
				note, err := pipeline.Submit(ctx, rec)
				saved = note
				return err
			},
		})
		defer recorder.Close()

		ctx := cmd.Context()
		if err := recorder.Start(ctx); err != nil {
			return err
		}

		interrupt, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		var limit <-chan time.Time
		if recordMax > 0 {
			limit = time.After(recordMax)
		}
		select {
		case <-device.Stream().Exhausted():
		case <-interrupt.Done():
		case <-limit:
		}

		if recordDiscard {
			fmt.Fprintln(os.Stderr, "\nrecording discarded")
			return recorder.Discard()
		}
		if err := recorder.Stop(ctx); err != nil {
			return err
		}
		printNote(cmd.OutOrStdout(), saved)
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordMime, "mime", capture.DefaultMimeType, "Container format of the input audio")
	recordCmd.Flags().DurationVar(&recordMax, "max", 0, "Stop recording after this long (0 = until the input ends)")
	recordCmd.Flags().StringVar(&recordPrompt, "prompt", "", "Replace the built-in system prompt")
	recordCmd.Flags().StringVar(&recordSchema, "structure", "", "YAML or JSON schema the note must follow")
	recordCmd.Flags().BoolVar(&recordDiscard, "discard", false, "Record, then throw the audio away (device check)")
	rootCmd.AddCommand(recordCmd)
}
