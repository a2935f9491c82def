// Package sound provides named sound playback with lifecycle bookkeeping.
// It uses the beep library to decode and play WAV, OGG, MP3 and FLAC files,
// and tracks managed sounds by name so they can be stopped, faded, paused
// and resumed after the fact.
package sound
