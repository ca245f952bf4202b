/*
Package sinkhole implements a blocking DNS resolver. Queries are classified
against an in-memory rule snapshot built from a remote blocklist plus local
allow/deny overrides. Matches are answered with a fixed sinkhole address,
everything else is relayed to an upstream resolver.

The decision rules live in an immutable RuleSet held by a RuleStore. All
mutation paths, the scheduled blocklist refresh as well as management edits,
build a complete replacement set and install it with a single atomic swap, so
query handling never observes a partially updated rule state and never waits
for a refresh in progress.

Listeners receive queries over plain UDP or TCP and dispatch each one to the
SinkholeResolver concurrently. The management interface used by the dashboard
runs on a separate HTTP listener and only goes through the same RuleStore and
StatsCollector contracts as the query path.
*/
package sinkhole
