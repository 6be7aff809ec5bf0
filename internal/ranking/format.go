// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package ranking

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

// FormatCount formats a count with Korean digit grouping, e.g. 1,500.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatMonth renders YYYY-MM as the short Korean form, e.g. 25년2월.
func FormatMonth(ym string) string {
	year, month, ok := strings.Cut(ym, "-")
	if !ok || len(year) != 4 {
		return ym
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return ym
	}
	return fmt.Sprintf("%s년%d월", year[2:], m)
}

// FormatGrowth renders growth with a direction arrow: "▲ 12.5%",
// "▼ 100%", or "-".
func FormatGrowth(g Growth) string {
	if !g.Known() {
		return NoGrowth
	}
	arrow := "▲"
	if v, err := strconv.ParseFloat(g.Display, 64); err == nil && v < 0 {
		arrow = "▼"
	}
	return arrow + " " + magnitude(g) + "%"
}

// Render writes the ranked table.
func Render(w io.Writer, entries []Entry, target, base string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := fmt.Sprintf("순위\t이름\t그룹\t%s\t%s 대비\t\n", FormatMonth(target), FormatMonth(base))
	if _, err := io.WriteString(tw, header); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			e.Rank, e.Name, e.Group, FormatCount(e.Current), FormatGrowth(e.Growth)); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		if _, err := io.WriteString(tw, "\t데이터가 없습니다.\t\t\t\t\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
