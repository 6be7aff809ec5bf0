// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Command idolctl is the terminal client for an idolstats server.

It loads rankings the same way the dashboard does: a quick top-N view
first, then the newest two months in full, with everything kept in a local
Badger cache so that repeat runs start from disk.

Usage:

	idolctl [--api-url <url>] [--cache-dir <dir>] [--json] <command>

Commands:

	show [--gender 남자] [--sns 웨이보] [--month 2025-02] [--search 지수]
	detail <name> [--gender 여자]
	cache stats|cleanup|clear
	warm [--sns 유튜브,웨이보] [--gender 남자] [--year 2025]
	version

The warm command does not talk to the server. It opens the origin and the
server cache directly, so with the badger backend the server has to be
stopped first.
*/
package main
