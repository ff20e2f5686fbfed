// Package migrate plans and executes schema migrations over a revision graph.
//
// The engine resolves a target revision against the persisted schema marker,
// computes the ordered list of revisions to apply or revert, and executes each
// step in its own transaction together with the marker update. Step N+1 only
// begins after step N has committed, so an interrupted migration always leaves
// the schema and the marker mutually consistent at a well-defined revision.
//
// Migrations are serialized process-wide through a Locker; concurrent request
// sessions rely on the store's own transaction isolation.
package migrate
