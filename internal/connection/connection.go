// Package connection slices an ordered identifier list into a Relay
// connection page: edges, nodes, cursors and pageInfo.
package connection

import (
	"errors"
	"fmt"

	"realtypress-graphql/internal/cursor"
)

// ErrInvalidArgs reports pagination arguments a client must correct.
var ErrInvalidArgs = errors.New("invalid connection arguments")

// Options controls default and maximum page sizes. Zero disables either bound.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// Args holds the parsed Relay pagination arguments.
type Args struct {
	First  *int
	Last   *int
	After  *string
	Before *string
}

// Window is the half-open range [Start, End) selected from the full list.
type Window struct {
	Start           int
	End             int
	HasPreviousPage bool
	HasNextPage     bool
}

// Len returns the number of items in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// ParseArgs extracts first/last/after/before from resolver arguments.
// When neither first nor last is given, the default limit acts as first.
func ParseArgs(args map[string]interface{}, opts Options) (Args, error) {
	var parsed Args
	first, hasFirst, err := parseLimitArg(args, "first", opts.MaxLimit)
	if err != nil {
		return Args{}, err
	}
	last, hasLast, err := parseLimitArg(args, "last", opts.MaxLimit)
	if err != nil {
		return Args{}, err
	}
	if hasFirst {
		parsed.First = &first
	}
	if hasLast {
		parsed.Last = &last
	}
	if !hasFirst && !hasLast && opts.DefaultLimit > 0 {
		limit := opts.DefaultLimit
		if opts.MaxLimit > 0 && limit > opts.MaxLimit {
			limit = opts.MaxLimit
		}
		parsed.First = &limit
	}

	if parsed.After, err = parseCursorArg(args, "after"); err != nil {
		return Args{}, err
	}
	if parsed.Before, err = parseCursorArg(args, "before"); err != nil {
		return Args{}, err
	}
	return parsed, nil
}

// Slice computes the page of a total-length list addressed by args.
// Cursors must have been issued for the same connection type.
func Slice(typeName string, total int, args Args) (Window, error) {
	start, end := 0, total
	lower, upper := 0, total

	if args.After != nil {
		offset, err := cursor.DecodeFor(typeName, *args.After)
		if err != nil {
			return Window{}, fmt.Errorf("invalid after cursor: %w", err)
		}
		lower = min(offset+1, total)
		start = lower
	}
	if args.Before != nil {
		offset, err := cursor.DecodeFor(typeName, *args.Before)
		if err != nil {
			return Window{}, fmt.Errorf("invalid before cursor: %w", err)
		}
		upper = min(offset, total)
		end = upper
	}
	if end < start {
		end = start
	}
	if args.First != nil {
		end = min(end, start+*args.First)
	}
	if args.Last != nil {
		start = max(start, end-*args.Last)
	}

	w := Window{Start: start, End: end}
	if args.Last != nil {
		w.HasPreviousPage = start > lower
	} else {
		w.HasPreviousPage = args.After != nil && start > 0
	}
	if args.First != nil {
		w.HasNextPage = end < upper
	} else {
		w.HasNextPage = args.Before != nil && end < total
	}
	return w, nil
}

// Build wraps the nodes of a window in the connection envelope. nodes[i]
// belongs to position w.Start+i; nil nodes are dropped while the remaining
// cursors keep their positions.
func Build(typeName string, w Window, nodes []interface{}, total int) map[string]interface{} {
	edges := make([]interface{}, 0, w.Len())
	present := make([]interface{}, 0, w.Len())
	var startCursor, endCursor interface{}
	for i, node := range nodes {
		if node == nil {
			continue
		}
		c := cursor.Encode(typeName, w.Start+i)
		if startCursor == nil {
			startCursor = c
		}
		endCursor = c
		edges = append(edges, map[string]interface{}{
			"cursor": c,
			"node":   node,
		})
		present = append(present, node)
	}

	return map[string]interface{}{
		"edges":      edges,
		"nodes":      present,
		"totalCount": total,
		"pageInfo": map[string]interface{}{
			"hasNextPage":     w.HasNextPage,
			"hasPreviousPage": w.HasPreviousPage,
			"startCursor":     startCursor,
			"endCursor":       endCursor,
		},
	}
}

func parseLimitArg(args map[string]interface{}, name string, maxLimit int) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	var v int
	switch n := raw.(type) {
	case int:
		v = n
	case float64:
		v = int(n)
	default:
		return 0, false, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgs, name)
	}
	if v < 0 {
		return 0, false, fmt.Errorf("%w: %s must be non-negative", ErrInvalidArgs, name)
	}
	if maxLimit > 0 && v > maxLimit {
		v = maxLimit
	}
	return v, true, nil
}

func parseCursorArg(args map[string]interface{}, name string) (*string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidArgs, name)
	}
	return &value, nil
}
