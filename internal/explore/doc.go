// Package explore implements the top-level exploration loop: a work
// queue of identifiers, a seen set for deduplication, and the driver
// that runs one dispatch round per identifier until the queue drains.
//
// The queue and seen set are owned exclusively by the driver and
// mutated only between rounds. Probe workers never touch them; newly
// discovered identifiers are folded in after each round's collection
// barrier. Rounds are strictly sequential: every verdict for one
// identifier reaches the sink before the next identifier starts.
package explore
