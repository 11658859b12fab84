package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoSegments is returned when a payload holds no segment list at all.
var ErrNoSegments = errors.New("no transcript segments")

// Segment is one utterance of a meeting transcript.
type Segment struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

// UnmarshalJSON accepts {"text": ...}, the recording service's
// {"transcript": ...} and bare strings.
func (s *Segment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*s = Segment{}
		return json.Unmarshal(data, &s.Text)
	}

	var raw struct {
		Speaker    json.RawMessage `json:"speaker"`
		Text       *string         `json:"text"`
		Transcript *string         `json:"transcript"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode segment: %w", err)
	}

	*s = Segment{}
	switch {
	case raw.Text != nil:
		s.Text = *raw.Text
	case raw.Transcript != nil:
		s.Text = *raw.Transcript
	}
	// Recording services send either a name or a numeric speaker id.
	if len(raw.Speaker) > 0 && !bytes.Equal(raw.Speaker, []byte("null")) {
		var name string
		if err := json.Unmarshal(raw.Speaker, &name); err != nil {
			name = string(raw.Speaker)
		}
		s.Speaker = name
	}
	return nil
}

// DecodeSegments reads either a JSON array of segments or an object with a
// "segments" array.
func DecodeSegments(data []byte) ([]Segment, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoSegments
	}

	if data[0] == '[' {
		var segs []Segment
		if err := json.Unmarshal(data, &segs); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
		return segs, nil
	}

	var wrapped struct {
		Segments *[]Segment `json:"segments"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	if wrapped.Segments == nil {
		return nil, ErrNoSegments
	}
	return *wrapped.Segments, nil
}

// JoinSegments concatenates segment texts in order, separated by a single
// space. Blank segments contribute nothing.
func JoinSegments(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
