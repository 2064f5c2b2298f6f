// Package config defines the format-agnostic settings model for a training
// session, along with the Loader interface that concrete formats such as
// HCL implement.
//
// The `config.Model` is the single source of truth the app package wires the
// engine, dataset and template library from.
package config
