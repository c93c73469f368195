// Package models defines the wire types exchanged with the GMB Automation API.
//
// Entities are remote resources owned by the server. Values of these types are
// transient snapshots of the last successful fetch and are never patched
// locally.
package models
