package midiparser

import (
	"slices"
	"strconv"
	"strings"
)

// TrackNoteDelimiter separates the note group from the pitch value in a note id.
const TrackNoteDelimiter = "-"

// SquashedTrack receives every note when tracks are squashed.
const SquashedTrack = "track_2"

// NoteEvent is one quantized note start.
type NoteEvent struct {
	NoteID         string
	Velocity       uint8
	DurationFrames int
	StartFrame     int
	TrackID        string
}

// TrackFrames maps a frame index to the notes starting on it, in note-on order.
type TrackFrames map[int][]NoteEvent

// Timeline maps a track id to its frames.
type Timeline map[string]TrackFrames

// Tracks returns the track ids in sorted order.
func (t Timeline) Tracks() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Frames returns the occupied frame indices in ascending order.
func (f TrackFrames) Frames() []int {
	frames := make([]int, 0, len(f))
	for frame := range f {
		frames = append(frames, frame)
	}
	slices.Sort(frames)
	return frames
}

// Add appends ev to its start frame.
func (f TrackFrames) Add(ev NoteEvent) {
	f[ev.StartFrame] = append(f[ev.StartFrame], ev)
}

// IDs returns the note ids of events in order.
func IDs(events []NoteEvent) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.NoteID
	}
	return ids
}

// ChordPairs sorts a chord by note id, pairs each note with the next and
// closes the cycle with (last, first). Chords of one note have no pairs.
func ChordPairs(chord []NoteEvent) [][2]NoteEvent {
	if len(chord) < 2 {
		return nil
	}
	sorted := slices.Clone(chord)
	slices.SortStableFunc(sorted, func(a, b NoteEvent) int {
		return strings.Compare(a.NoteID, b.NoteID)
	})
	pairs := make([][2]NoteEvent, 0, len(sorted))
	for i := 0; i+1 < len(sorted); i++ {
		pairs = append(pairs, [2]NoteEvent{sorted[i], sorted[i+1]})
	}
	return append(pairs, [2]NoteEvent{sorted[len(sorted)-1], sorted[0]})
}

var noteNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// PitchValue reduces a MIDI key to the 1..12 pitch value used in note ids.
func PitchValue(key uint8) int {
	return int(key)%12 + 1
}

// NoteID joins a note group and a pitch value.
func NoteID(group string, pitch int) string {
	return group + TrackNoteDelimiter + strconv.Itoa(pitch)
}

// SplitNoteID returns the group and pitch value of a note id.
func SplitNoteID(id string) (string, int, bool) {
	i := strings.LastIndex(id, TrackNoteDelimiter)
	if i < 0 {
		return "", 0, false
	}
	pitch, err := strconv.Atoi(id[i+len(TrackNoteDelimiter):])
	if err != nil {
		return "", 0, false
	}
	return id[:i], pitch, true
}

// PitchClass returns the note name for a note id, or the id itself when it
// does not carry a pitch value.
func PitchClass(id string) string {
	_, pitch, ok := SplitNoteID(id)
	if !ok || pitch < 1 {
		return id
	}
	return noteNames[(pitch-1)%12]
}
