package notes

import (
	"time"

	"github.com/mrsingh-rishi/voice-notes/model"
)

type sample struct {
	title      string
	transcript string
	duration   float64
	createdAt  string
}

var samples = []sample{
	{
		title: "Design system notes",
		transcript: `Going with a **retro 8-bit aesthetic** for the UI.

### Key decisions
- **Press Start 2P** as the pixel font for headings
- **Inter** for body text readability
- Color palette: dark base with neon *cyan*, *green*, and *magenta* accents
- Pixel borders with subtle glow effects give that CRT monitor vibe

Need to balance the retro feel with modern usability: keep touch targets large, text readable, and spacing generous.`,
		duration:  98,
		createdAt: "2026-02-09T14:30:00Z",
	},
	{
		title: "Quick grocery list reminder",
		transcript: `Need to pick up a few things:

- Coffee beans
- Oat milk
- Sourdough bread
- Avocados
- Those fancy chips from the corner store

Oh and **cat food**, almost forgot that one.`,
		duration:  23,
		createdAt: "2026-02-06T08:20:00Z",
	},
	{
		title: "Debugging session notes",
		transcript: "Found the issue with the audio recording cutting out. The `MediaRecorder` was being garbage collected because we were not holding a reference to the stream.\n\n" +
			"**Fix:** storing the `MediaStream` in a ref.\n\n" +
			"Also discovered that the **Web Speech API** needs a user gesture to start on Safari, so I added a click handler wrapper.\n\n" +
			"### TODO\n- [ ] Test on Firefox next",
		duration:  156,
		createdAt: "2026-02-05T20:10:00Z",
	},
	{
		title: "Book notes: Designing Data-Intensive Apps",
		transcript: `Chapter three covers **storage and retrieval**.

### Key takeaways
1. **B-trees vs LSM-trees** tradeoffs
2. The importance of understanding your *access patterns* before choosing a database
3. How indexing strategies affect write and read performance

Really good section on SSTables and compaction strategies. Need to revisit the section on hash indexes.`,
		duration:  189,
		createdAt: "2026-02-04T13:30:00Z",
	},
}

// SampleNotes returns the first-run notes for userID, without ids.
func SampleNotes(userID string) []model.Note {
	out := make([]model.Note, 0, len(samples))
	for _, s := range samples {
		created, err := time.Parse(time.RFC3339, s.createdAt)
		if err != nil {
			panic(err)
		}
		title := s.title
		out = append(out, model.Note{
			UserID:               userID,
			Title:                &title,
			StructuredTranscript: s.transcript,
			DurationSeconds:      s.duration,
			CreatedAt:            created,
		})
	}
	return out
}
