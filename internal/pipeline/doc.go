// Package pipeline turns a project's source files into bundles.
//
// It is organized around these pieces:
//   - Resolver maps import requests to files (extensions, aliases, module dirs)
//   - RuleSet matches files to stage chains by extension
//   - Stages transform a file step by step until it is a module body
//   - Compiler walks the module graph from an entry, caching each file
//   - link writes the runtime prelude and the module map of a bundle
//   - PageRenderer renders HTML pages and links bundles into them
//
// Nothing in this package writes to disk. Emitted files are collected by
// the Compiler and written by the caller once every entry has built.
package pipeline
