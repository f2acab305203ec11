// Package dispatch defines a synchronous and an asynchronous call interface and
// a bounded worker [Pool] that runs asynchronous calls.
//
// A [Dispatcher] runs to completion on the caller's goroutine. An
// [AsyncDispatcher] hands the call to a Pool and returns a [Future]; the error
// returned by CallAsync only describes submission (queue full, pool closed),
// while the call's own outcome is delivered through [Future.Await].
//
// Every failure leaving this package is an [*Error] naming the module that made
// the call, so callers can tell which component failed with errors.As.
//
// # Pool lifecycle
//
// Jobs accepted before [Pool.Close] always run: Close stops intake, drains the
// queue and waits for workers. With DropIfFull the pool rejects instead of
// blocking when its buffer is full and counts the rejection in [Pool.Dropped].
package dispatch
