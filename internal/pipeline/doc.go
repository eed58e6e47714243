// Package pipeline drives files through the staged anonymization flow:
// incoming, pending, finished, trash, with errored as the dead-letter side
// track. All state lives on disk and in the records database; a tick
// re-derives everything it needs, so a crash between any two steps is
// recovered by simply running the next tick.
package pipeline
