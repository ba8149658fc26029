// Package qerr defines the typed, kind-tagged errors the query splitter can
// surface to its caller. Every pipeline phase fails fast: the first typed
// error unwinds to the public API untouched, carrying the offending URI,
// variable or operator name.
package qerr

import "gopkg.in/src-d/go-errors.v1"

// Kind groups the typed failures a query can produce, one per phase.
var (
	// KindUnsupportedOperator flags an algebra node the splitter cannot
	// reason about.
	KindUnsupportedOperator = errors.NewKind("unsupported operator: %s")
	// KindUnsupportedExpression flags a FILTER shape that is neither a
	// single relational comparison nor a conjunction of them.
	KindUnsupportedExpression = errors.NewKind("unsupported expression: %s")
	// KindUnsupportedLiteral flags a literal the emitter cannot serialise.
	KindUnsupportedLiteral = errors.NewKind("unsupported literal: %s")
	// KindUnsupportedTerm flags a term kind the emitter cannot serialise.
	KindUnsupportedTerm = errors.NewKind("unsupported term: %s")
	// KindUnsupportedTimestampBinding flags a #timestamp triple whose
	// object is not a Variable.
	KindUnsupportedTimestampBinding = errors.NewKind("unsupported timestamp binding on subject %s")
	// KindEndpoint wraps a transport-level failure from the RDF endpoint.
	KindEndpoint = errors.NewKind("rdf endpoint error: %s")
	// KindTimeSeries wraps a transport-level failure from the time-series
	// store.
	KindTimeSeries = errors.NewKind("time-series store error: %s")
	// KindColumnNotFound flags a FILTER or join referencing a column the
	// frame does not have.
	KindColumnNotFound = errors.NewKind("column not found: %s")
	// KindUnsupportedFilterOp flags a relational operator outside
	// {=,<,<=,>,>=}.
	KindUnsupportedFilterOp = errors.NewKind("unsupported filter operator: %s")
	// KindUnconsumedTSRequest flags a non-empty residual time-series
	// request list at SelectQuery, meaning the algebra referenced an
	// external variable the planner built a request for but no BGP/Filter
	// ever joined it back in.
	KindUnconsumedTSRequest = errors.NewKind("unconsumed time-series request for variable %s")
)

// Is reports whether err was produced by kind (or wraps one that was).
func Is(err error, kind *errors.Kind) bool {
	return kind.Is(err)
}
