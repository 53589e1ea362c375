// Package triage implements the message triage pipeline: LLM-backed
// classification of a canonical message, reply drafting, and the Engine that
// sequences the two with retry, backoff, and fallback policy.
package triage
