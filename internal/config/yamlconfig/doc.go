// Package yamlconfig loads the configuration document from YAML files. Each
// top-level key is a module; inside it, "selector" picks the provider and
// every other key is a provider block:
//
//	storage:
//	  selector: ${TRACEGRID_STORAGE:memory}
//	  memory:
//	    max_spans: 100000
//	  sqlite:
//	    dsn: file:tracegrid.db
//
// Scalars may reference environment variables as ${NAME} or ${NAME:default}.
// Substituted values are re-typed, so "${PORT:9411}" decodes into an int.
package yamlconfig
