// Package hclconfig loads the configuration document from HCL files:
//
//	module "storage" {
//	  selector = env("TRACEGRID_STORAGE", "memory")
//
//	  provider "memory" {
//	    max_spans = 100000
//	  }
//
//	  provider "sqlite" {
//	    dsn = "file:tracegrid.db"
//	  }
//	}
//
// Every expression, in the selector and in provider bodies, is evaluated with
// the env, upper, lower and coalesce functions available.
package hclconfig
