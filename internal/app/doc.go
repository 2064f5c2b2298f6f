// Package app contains the core application logic. It resolves the session
// settings, wires the graph engine to its dataset and template library, and
// runs the headless training loop, decoupled from any specific entrypoint
// like a CLI.
//
// # Lifecycle
//
//	NewApp ──► load HCL ──► apply flag overrides ──► validate
//	   │
//	   ▼
//	Run ──► load graph ──► import library templates ──► load/generate dataset
//	   │
//	   ▼
//	train epochs (Step per sample) ──► save graph ──► store templates
//
// While Run is active an optional HTTP server reports progress on /status
// and liveness on /health.
package app
