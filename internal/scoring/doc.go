// Package scoring rates concrete resources against the experimental
// weights of a schematic.
//
// Stat vectors are plain values: reads of distinct instances are safe from
// any goroutine, but a single instance is not safe for concurrent
// mutation. Callers that share a *ResourceStats or *Weights across
// goroutines must serialize Set and Adjust themselves.
package scoring
