// Package stream provides sources, adapters, buffering and sinks for
// [pollen.Stream] and [pollen.Sink].
//
// Streams end with [io.EOF]. Any other error fails a single item: adapters
// pass it downstream unchanged and keep pulling afterwards, while the
// terminal tasks ([Collect], [ForEach], [Fold], [Forward]) stop at the
// first one.
//
// Adapters are lazy. Nothing is pulled from a source until the resulting
// stream is polled, typically by a terminal task driven by an executor:
//
//	words := stream.FromSlice([]string{"a", "bb", "ccc"})
//	lens := stream.Map(words, func(s string) (int, error) { return len(s), nil })
//	out, err := pollen.BlockOn(ctx, stream.Collect(lens))
//
// [Buffered] and [BufferUnordered] turn a stream of tasks into a stream of
// their results with a bounded number in flight; [Ordered] and
// [Unordered] do the same for a fixed set of tasks. [Merge] interleaves
// several streams and [Zip] pairs two of them.
//
// A stream is single-consumer: it must not be polled concurrently.
package stream
