// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package main is vqreview, a terminal reviewer for the validation queue.
//
// Subcommands (list, approve, reject, bulk, export, ...) each build a
// review.Dispatcher against the API and drive one action through it, so the
// same confirmation rules apply as in the portal: a submission with a contact
// mismatch is never approved without a resolution, and a bulk action needs a
// selection. `vqreview review` opens an interactive prompt over the queue.
//
// Settings come from $XDG_CONFIG_HOME/vqreview/config.toml, then VQ_*
// environment variables, then flags.
package main
