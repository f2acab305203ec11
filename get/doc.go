// Package get provides small value providers.
//
// A [Getter] yields a value without failing: constants built with [Value],
// zero values from [Default], or any func through [Func]. A [Loader] yields a
// value from a source that can fail, such as the process environment ([Env])
// or a Redis key ([Redis]). [Must] turns a Loader into a Getter that panics on
// failure, for values a program cannot run without.
//
// Sources are explicit objects built once and passed to whoever needs them;
// nothing in this package reads ambient state on its own.
package get
