// Package engine implements the executor / update loop (C7): the glue
// that drives an [element.Tree], a [schedule.Owner] and a [render.Manager]
// through one update cycle — callbacks, rebuild, render-tree sync,
// layout, paint, view sync — and the [render.Host] adapter that lets the
// render tree reach into the element tree without the two packages
// importing each other.
//
// Two deployment shapes are provided. [Engine] runs everything on the
// calling goroutine (the Local model): every public method assumes
// single-threaded, synchronous use, exactly like the original engine's
// frame pump. [SplitEngine] moves the render tree to its own goroutine,
// communicating over bounded channels, for callers that want layout and
// paint off the thread driving widget rebuilds.
package engine
