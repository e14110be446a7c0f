// Package app wires a tracegrid process together: it loads and merges the
// configuration files, plans the module graph, runs the boot sequence and
// serves the health endpoints. Entrypoints only build a Config and call Run.
package app
