package audio

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/vkngwrapper/pong/internal/game"
)

const (
	SampleRate = 44100
	// amplitude leaves headroom so overlapping cues do not clip.
	amplitude = 0.3 * math.MaxInt16
)

type note struct {
	frequency float64
	duration  time.Duration
}

var cues = map[game.CollisionKind][]note{
	game.CollisionWall:   {{frequency: 440, duration: 40 * time.Millisecond}},
	game.CollisionPaddle: {{frequency: 880, duration: 50 * time.Millisecond}},
	game.CollisionGoal: {
		{frequency: 660, duration: 90 * time.Millisecond},
		{frequency: 330, duration: 180 * time.Millisecond},
	},
}

// synthesize renders the notes as mono signed 16-bit little-endian PCM. Each
// note fades out linearly so it ends without a click.
func synthesize(notes []note, sampleRate int) []byte {
	var pcm []byte
	for _, n := range notes {
		count := int(n.duration.Seconds() * float64(sampleRate))
		for i := 0; i < count; i++ {
			t := float64(i) / float64(sampleRate)
			envelope := 1 - float64(i)/float64(count)
			sample := int16(amplitude * envelope * math.Sin(2*math.Pi*n.frequency*t))
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(sample))
		}
	}

	return pcm
}
