package model

// AudioClip is an encoded audio payload exchanged with transcription and synthesis services
type AudioClip struct {
	Data []byte
	// Format is the container/codec name such as "wav" or "mp3"
	Format string
}

// Empty reports whether the clip carries no audio
func (c *AudioClip) Empty() bool {
	return c == nil || len(c.Data) == 0
}

// Reply is what the conversational wrapper hands back to a front end
type Reply struct {
	ID     string
	Query  string
	Answer Answer
	Audio  *AudioClip
	// AudioDegraded is set when speech was requested but synthesis failed; Answer is still valid
	AudioDegraded bool
}
