// Package harvest defines the domain types shared across the reference
// harvester: topics, per-topic result records, run reports, the collaborator
// interfaces the remote encyclopedia must satisfy, and the Fetch Unit that turns
// one page lookup into exactly one Record.
package harvest
