// Package config loads toposcope settings and an optional seed graph from
// HCL files.
//
// A file may contain any of these top-level blocks, each at most once per
// file:
//
//	animation { delay = "500ms" }
//	log       { level = "debug"  format = "json" }
//	server    { port = 8080 }
//	renderer  { url = "http://localhost:3000"  namespace = "/topo" }
//	graph {
//	  nodes = ["shirt", "tie", "jacket"]
//	  edge { from = "shirt"  to = "tie" }
//	  edge { from = "tie"    to = "jacket" }
//	}
//
// Expressions are evaluated with an `env` object holding the process
// environment and a small function set (format, upper, lower, concat, range,
// coalesce). When several files are loaded, later scalar settings override
// earlier ones and graph blocks are merged in file order.
package config
