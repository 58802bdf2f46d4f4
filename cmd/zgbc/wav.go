package main

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mattneel/zgbc/gb"
)

// wavCapture streams the machine's audio output into a 16-bit stereo WAV
// file.
type wavCapture struct {
	file    *os.File
	encoder *wav.Encoder
	samples []int16
	ints    []int
}

func newWAVCapture(path string) (*wavCapture, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating WAV file: %w", err)
	}
	return &wavCapture{
		file:    file,
		encoder: wav.NewEncoder(file, gb.SampleRate, 16, 2, 1),
		samples: make([]int16, 8192),
	}, nil
}

// drain moves everything the machine has buffered into the encoder.
func (w *wavCapture) drain(machine *gb.Machine) error {
	for {
		n := machine.ReadAudioSamples(w.samples)
		if n == 0 {
			return nil
		}
		if cap(w.ints) < n {
			w.ints = make([]int, n)
		}
		w.ints = w.ints[:n]
		for i := 0; i < n; i++ {
			w.ints[i] = int(w.samples[i])
		}
		buf := &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: 2,
				SampleRate:  gb.SampleRate,
			},
			Data:           w.ints,
			SourceBitDepth: 16,
		}
		if err := w.encoder.Write(buf); err != nil {
			return fmt.Errorf("writing WAV data: %w", err)
		}
	}
}

func (w *wavCapture) close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("finalizing WAV file: %w", err)
	}
	return w.file.Close()
}
