// Package midiparser reads a standard MIDI file and quantizes its notes
// into per-track frame maps.
package midiparser

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2/smf"

	"musicgraph/logger"
	"musicgraph/workspace"
)

// Options controls quantization.
type Options struct {
	FrameRate int
	// SquashTracks puts every note on SquashedTrack.
	SquashTracks bool
	// GroupNotesByTrack keeps the same pitch on different tracks as
	// different notes. Otherwise all tracks share one set of notes.
	GroupNotesByTrack bool
	// MinFrames, when set, returns the shortest duration a note of the
	// given track is quantized to.
	MinFrames func(track string) int
}

// sharedGroup prefixes note ids when notes are not grouped by track.
const sharedGroup = "notes"

// TrackName returns the id of the n-th (0 based) SMF track that carries
// notes. Numbering starts at track_2 whatever the file format; track_1 is
// the conductor and never holds notes.
func TrackName(n int) string {
	return fmt.Sprintf("track_%d", n+2)
}

func hasNotes(tr smf.Track) bool {
	for _, ev := range tr {
		var ch, key, vel uint8
		if ev.Message.GetNoteStart(&ch, &key, &vel) {
			return true
		}
	}
	return false
}

type noteKey struct {
	channel uint8
	key     uint8
}

type pendingNote struct {
	track string
	frame int
	index int
	start int64 // microseconds
}

// ParseFile quantizes the notes of the MIDI file at path.
func ParseFile(path string, opts Options) (Timeline, error) {
	if err := workspace.RequireFile("midi", path); err != nil {
		return nil, err
	}
	if opts.FrameRate <= 0 {
		return nil, fmt.Errorf("midiparser: frame rate must be positive, got %d", opts.FrameRate)
	}
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi %s: %w", path, err)
	}
	tl := Quantize(s, opts)
	logger.Logger().Info("midi quantized", "file", path, "tracks", len(tl), "fps", opts.FrameRate)
	return tl, nil
}

// Quantize converts the notes of s into a Timeline.
func Quantize(s *smf.SMF, opts Options) Timeline {
	tl := Timeline{}
	fps := float64(opts.FrameRate)

	noteTracks := 0
	for _, tr := range s.Tracks {
		if !hasNotes(tr) {
			continue
		}
		trackID := TrackName(noteTracks)
		noteTracks++
		if opts.SquashTracks {
			trackID = SquashedTrack
		}
		group := sharedGroup
		if opts.GroupNotesByTrack {
			group = trackID
		}
		minFrames := 1
		if opts.MinFrames != nil {
			minFrames = max(opts.MinFrames(trackID), 1)
		}

		pending := map[noteKey][]pendingNote{}
		var absTicks int64

		finish := func(p pendingNote, end int64) {
			d := int(float64(end-p.start) / 1e6 * fps)
			tl[p.track][p.frame][p.index].DurationFrames = max(d, minFrames)
		}

		for _, ev := range tr {
			absTicks += int64(ev.Delta)
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				micros := s.TimeAt(absTicks)
				frame := int(float64(micros) / 1e6 * fps)
				frames, ok := tl[trackID]
				if !ok {
					frames = TrackFrames{}
					tl[trackID] = frames
				}
				frames.Add(NoteEvent{
					NoteID:         NoteID(group, PitchValue(key)),
					Velocity:       vel,
					DurationFrames: minFrames,
					StartFrame:     frame,
					TrackID:        trackID,
				})
				k := noteKey{ch, key}
				pending[k] = append(pending[k], pendingNote{
					track: trackID,
					frame: frame,
					index: len(frames[frame]) - 1,
					start: micros,
				})
			case ev.Message.GetNoteEnd(&ch, &key):
				k := noteKey{ch, key}
				open := pending[k]
				if len(open) == 0 {
					continue
				}
				finish(open[0], s.TimeAt(absTicks))
				pending[k] = open[1:]
			}
		}

		// Notes still sounding at the end of the track end with it.
		end := s.TimeAt(absTicks)
		for _, open := range pending {
			for _, p := range open {
				finish(p, end)
			}
		}
	}
	return tl
}

// Duration returns the length of the timeline in seconds: the end of its
// last sounding note.
func (t Timeline) Duration(frameRate int) float64 {
	last := 0
	for _, frames := range t {
		for frame, events := range frames {
			for _, ev := range events {
				last = max(last, frame+ev.DurationFrames)
			}
		}
	}
	if frameRate <= 0 {
		return 0
	}
	return math.Round(float64(last)/float64(frameRate)*1000) / 1000
}
