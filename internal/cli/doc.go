// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ptso command tree.
//
// Every command maps to one backend action: it builds its arguments, calls
// the api.Client, and hands the result to a display.Printer. Errors are
// returned, never printed by the command itself; Execute prints each error
// once and maps it to an exit code.
//
// Commands:
//
//	ptso config show|get|set|url|path
//	ptso health | agents | status | version
//	ptso analyze number|phone|history|detail
//	ptso chat send|stream
//	ptso user register|login|logout|me|update
//	ptso apikey create|list|delete
//	ptso payment plans|plan|create|history|subscription
//	ptso upload <file>
//	ptso history list|clear
//	ptso shell
package cli
