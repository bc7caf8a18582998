package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/voice-notes/capture"
	"github.com/mrsingh-rishi/voice-notes/types"
)

var (
	streamMime  string
	streamChunk int
	streamPace  time.Duration
)

var streamCmd = &cobra.Command{
	Use:   "stream [file]",
	Short: "Stream a memo to the service's /record websocket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			src = f
		}

		wsURL, err := recordURL(serverURL)
		if err != nil {
			return err
		}
		header := http.Header{}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
		conn, resp, err := gws.DefaultDialer.Dial(wsURL, header)
		if err != nil {
			if resp != nil {
				return errors.Wrapf(err, "dial %s: status %d", wsURL, resp.StatusCode)
			}
			return errors.Wrapf(err, "dial %s", wsURL)
		}
		defer conn.Close()

		if err := conn.WriteJSON(types.SessionEvent{Event: types.EventStart, MimeType: streamMime}); err != nil {
			return err
		}

		buf := make([]byte, streamChunk)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				if werr := conn.WriteMessage(gws.BinaryMessage, buf[:n]); werr != nil {
					return werr
				}
				time.Sleep(streamPace)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}

		if err := conn.WriteJSON(types.SessionEvent{Event: types.EventStop}); err != nil {
			return err
		}

		for {
			var ev types.SessionEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return errors.Wrap(err, "waiting for note")
			}
			switch ev.Event {
			case types.EventStatus:
				fmt.Fprintf(os.Stderr, "%s\n", ev.Status)
			case types.EventNote:
				if ev.Note != nil {
					printNote(cmd.OutOrStdout(), *ev.Note)
				}
				return conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
			case types.EventError:
				return errors.New(ev.Error)
			}
		}
	},
}

// recordURL turns the service base URL into the /record websocket URL.
func recordURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", errors.Wrap(err, "parse server url")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/record"
	return u.String(), nil
}

func init() {
	streamCmd.Flags().StringVar(&streamMime, "mime", capture.DefaultMimeType, "Container format of the audio")
	streamCmd.Flags().IntVar(&streamChunk, "chunk-size", 16*1024, "Bytes per websocket frame")
	streamCmd.Flags().DurationVar(&streamPace, "pace", 0, "Delay between frames, to mimic a live microphone")
	rootCmd.AddCommand(streamCmd)
}
