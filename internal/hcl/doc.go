// Package hcl provides the concrete HCL implementation of config.Loader. It
// is responsible for file discovery, parsing, expression evaluation and
// merging blocks onto the default model.
//
// Expressions may reference the process environment through the `env`
// variable:
//
//	library {
//	  path = "${env.HOME}/.nngarden/library.db"
//	}
package hcl
