// Package emotion classifies audio clips into emotion labels via an
// external model service.
package emotion

// Label is an emotion tag attached to one clip. The classifier may return
// labels outside the documented set, so Label is an opaque string rather
// than a validated enum.
type Label string

// Documented label set of the upstream model. Unknown marks clips whose
// classification failed or was unavailable.
const (
	Angry        Label = "angry"
	Calm         Label = "calm"
	Sad          Label = "sad"
	Surprised    Label = "surprised"
	Happy        Label = "happy"
	Neutral      Label = "neutral"
	Anxious      Label = "anxious"
	Disappointed Label = "disappointed"
	Fearful      Label = "fearful"
	Excited      Label = "excited"
	Unknown      Label = "unknown"
)

func (l Label) String() string {
	return string(l)
}
