package registry

// Bag is a finite, ordered collection of values — the runtime shape that
// dask_map's operand and result take (spec §4.6). json.Marshal accepts a
// Bag of plain elements, but decoding it yields a map, not a Bag, so the
// Scheduler keeps Bag results out of the durable store.
type Bag struct {
	Items []Value
}
