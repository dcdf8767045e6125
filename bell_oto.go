//go:build !headless

// bell_oto.go - Bell tone player

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	bellSampleRate = 44100
	bellFreqHz     = 880.0
	bellDuration   = 120 * time.Millisecond
)

// bellPlayer plays the terminal-bell tone through oto.
type bellPlayer struct {
	ctx     *oto.Context
	samples []byte
}

func newBellPlayer() (*bellPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   bellSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &bellPlayer{
		ctx:     ctx,
		samples: renderBellTone(),
	}, nil
}

// renderBellTone pre-computes a short sine burst with a linear fade-out.
func renderBellTone() []byte {
	n := int(bellSampleRate * bellDuration.Seconds())
	w := newLEWriter()
	for i := 0; i < n; i++ {
		fade := 1.0 - float64(i)/float64(n)
		sample := float32(0.25 * fade *
			math.Sin(2*math.Pi*bellFreqHz*float64(i)/bellSampleRate))
		w.u32(math.Float32bits(sample))
	}
	return w.buf
}

// Ring plays the tone without blocking the caller.
func (b *bellPlayer) Ring() {
	player := b.ctx.NewPlayer(newByteReader(b.samples))
	player.Play()
}

// byteReader is a minimal io.Reader over a byte slice for oto players.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		// Feed silence so the player drains its buffer cleanly.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
