// Package searchconfig declares what can be searched for each entity type:
// the filter behind untagged terms, named filters and their aliases, special
// keywords, sort columns with their default directions, and the base, count
// and neighbor queries.
//
// Configurations are assembled with a Builder once at startup. Alias
// collisions and dangling default sorts fail Build, so requests never see a
// half-valid configuration.
package searchconfig
