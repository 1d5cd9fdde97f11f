// Package proposalengine implements the governance proposal lifecycle inside
// the governance context.
//
// The module owns proposal creation, token-weighted vote casting and
// withdrawal, status transitions and epoch-driven batch closing, all kept in
// lockstep with the singleton status counter. Every write runs in one
// transaction behind ports.UnitOfWork; lifecycle events leave through the
// outbox and are relayed by workers.
package proposalengine
