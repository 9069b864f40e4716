//go:build !js

// Package input translates SDL2 events into the few the viewer reacts to.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies an Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
}

// Input handles all input processing.
type Input struct {
	events []Event
	quit   bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update drains the SDL event queue. It returns true once the window has
// been asked to close or Escape was pressed.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		i.Push(event)
	}
	return i.quit
}

// Push translates one SDL event. Update calls it for every polled event.
func (i *Input) Push(event sdl.Event) {
	ev, ok := translate(event)
	if !ok {
		return
	}
	i.events = append(i.events, ev)

	switch {
	case ev.Type == EventQuit:
		i.quit = true
	case ev.Type == EventKeyDown && ev.Key == sdl.SCANCODE_ESCAPE:
		i.quit = true
	}
}

// Quit reports whether a quit has been requested.
func (i *Input) Quit() bool {
	return i.quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Pressed reports whether key went down this frame.
func (i *Input) Pressed(key sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}

// LastResize returns the final size reported this frame, if any.
func (i *Input) LastResize() (width, height int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventWindowResize {
			width, height, ok = e.Width, e.Height, true
		}
	}
	return width, height, ok
}

func translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Type: EventQuit}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		}
	}
	return Event{}, false
}
