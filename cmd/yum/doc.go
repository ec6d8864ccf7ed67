// Command yum is the terminal client for the yum recipe service.
//
// `yum watch` opens the interactive UI. The other subcommands are one-shot
// operations on the same engine: import or describe a recipe, inspect the
// active job, page through the feed or external search, and manage
// reactions, the try list, ratings and the meal schedule. One-shot commands
// print tables by default and JSON or YAML with --output.
package main
