package audio

import (
	"bytes"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/oto/v3"

	"github.com/vkngwrapper/pong/internal/game"
)

// Player plays a short cue for each collision. A nil *Player is valid and
// silent.
type Player struct {
	ctx    *oto.Context
	logger *slog.Logger
	pcm    map[game.CollisionKind][]byte

	mutex  sync.Mutex
	active []*oto.Player
}

func NewPlayer(logger *slog.Logger) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening audio device")
	}
	<-ready

	pcm := make(map[game.CollisionKind][]byte, len(cues))
	for kind, notes := range cues {
		pcm[kind] = synthesize(notes, SampleRate)
	}

	return &Player{
		ctx:    ctx,
		logger: logger,
		pcm:    pcm,
	}, nil
}

// Play starts the cue for kind without waiting for it to finish.
func (p *Player) Play(kind game.CollisionKind) {
	if p == nil {
		return
	}

	pcm, ok := p.pcm[kind]
	if !ok {
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.prune()

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	p.active = append(p.active, player)
}

// prune closes players that have run out of samples.
func (p *Player) prune() {
	active := p.active[:0]
	for _, player := range p.active {
		if player.IsPlaying() {
			active = append(active, player)
			continue
		}

		err := player.Close()
		if err != nil {
			p.logger.Debug("closing audio player", "err", err)
		}
	}
	p.active = active
}

func (p *Player) Close() {
	if p == nil {
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, player := range p.active {
		_ = player.Close()
	}
	p.active = nil
}
