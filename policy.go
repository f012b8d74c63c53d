package sharenv

// Policy decides which candidate of a variable to serve and where the
// rotation cursor moves next.
type Policy interface {
	// Select returns the value to serve for cursor and the next cursor.
	// cursor is always within [0, v.Len()).
	Select(v Variable, cursor int) (value string, next int)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(v Variable, cursor int) (string, int)

// Select calls f(v, cursor).
func (f PolicyFunc) Select(v Variable, cursor int) (string, int) {
	return f(v, cursor)
}

// RoundRobin serves candidates in source order, wrapping at the end.
// Every candidate is served once before any is repeated. A single-valued
// variable never moves its cursor.
type RoundRobin struct{}

// Select implements Policy.
func (RoundRobin) Select(v Variable, cursor int) (string, int) {
	return v.Value(cursor), (cursor + 1) % v.Len()
}

// Ensure RoundRobin implements Policy.
var _ Policy = RoundRobin{}
