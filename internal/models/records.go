// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package models

import "strings"

// Gender buckets as they appear in the origin data.
const (
	GenderMale   = "남자"
	GenderFemale = "여자"
)

// Platforms tracked by the dashboard, in display order.
const (
	PlatformWeibo    = "웨이보"
	PlatformChaohua  = "차오화"
	PlatformX        = "X(트위터)"
	PlatformYouTube  = "유튜브"
	PlatformQQMusic  = "QQ뮤직"
	PlatformSpotify  = "스포티파이"
	PlatformBilibili = "빌리빌리"
)

// Platforms returns every tracked platform in display order.
func Platforms() []string {
	return []string{
		PlatformWeibo,
		PlatformChaohua,
		PlatformX,
		PlatformYouTube,
		PlatformQQMusic,
		PlatformSpotify,
		PlatformBilibili,
	}
}

// Genders returns both gender buckets, male first.
func Genders() []string {
	return []string{GenderMale, GenderFemale}
}

// OppositeGender returns the other gender bucket.
func OppositeGender(gender string) string {
	if gender == GenderFemale {
		return GenderMale
	}
	return GenderFemale
}

// ValidGender reports whether g is one of the two buckets.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

// MetricRecord is one idol's count for one month on one platform.
// Date is always YYYY-MM once a record leaves the origin layer.
type MetricRecord struct {
	Name  string `json:"name" validate:"required"`
	Group string `json:"group"`
	Date  string `json:"date" validate:"required,yearmonth"`
	Count int64  `json:"count" validate:"gte=0"`
}

// RawRow is an origin row before normalization. Date and Count keep
// whatever type the source produced (time.Time, string, number).
type RawRow struct {
	Name     string
	Group    string
	Gender   string
	Platform string
	Date     any
	Count    any
}

// IdolMetadata is one row of an idol metadata table.
//
// Columns the dashboard knows about are typed; anything else in the header
// row is kept in Extra so that new sheet columns survive a round trip.
type IdolMetadata struct {
	Name               string            `json:"name" validate:"required"`
	Group              string            `json:"group"`
	Gender             string            `json:"gender"`
	NamuWiki           string            `json:"namu_wiki"`
	WeiboLink          string            `json:"weibo_link"`
	WeiboSuperchatLink string            `json:"weibo_superchat_link"`
	XLink              string            `json:"x_link"`
	BilibiliLink       string            `json:"bilibili_link"`
	YouTubeLink        string            `json:"youtube_link"`
	QQMusicLink        string            `json:"qqmusic_link"`
	SpotifyLink        string            `json:"spotify_link"`
	Label              string            `json:"label"`
	DebutYear          string            `json:"debut_year"`
	Note               string            `json:"note"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// Set assigns a value by its header name. Header names are matched after
// trimming, lowercasing and replacing inner whitespace with underscores.
func (m *IdolMetadata) Set(header, value string) {
	key := strings.Join(strings.Fields(strings.ToLower(header)), "_")
	switch key {
	case "name", "name_korean":
		m.Name = value
	case "group":
		m.Group = value
	case "gender":
		m.Gender = value
	case "namu_wiki":
		m.NamuWiki = value
	case "weibo_link":
		m.WeiboLink = value
	case "weibo_superchat_link":
		m.WeiboSuperchatLink = value
	case "x_link":
		m.XLink = value
	case "bilibili_link":
		m.BilibiliLink = value
	case "youtube_link":
		m.YouTubeLink = value
	case "qqmusic_link":
		m.QQMusicLink = value
	case "spotify_link":
		m.SpotifyLink = value
	case "label":
		m.Label = value
	case "debut_year":
		m.DebutYear = value
	case "note":
		m.Note = value
	case "":
	default:
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[key] = value
	}
}

// Links returns the non-empty platform links keyed by platform name, in
// display order.
func (m *IdolMetadata) Links() []Link {
	candidates := []Link{
		{PlatformWeibo, m.WeiboLink},
		{PlatformWeibo + " 슈퍼챗", m.WeiboSuperchatLink},
		{PlatformX, m.XLink},
		{PlatformBilibili, m.BilibiliLink},
		{PlatformYouTube, m.YouTubeLink},
		{PlatformQQMusic, m.QQMusicLink},
		{PlatformSpotify, m.SpotifyLink},
	}
	links := candidates[:0]
	for _, l := range candidates {
		if strings.TrimSpace(l.URL) != "" {
			links = append(links, l)
		}
	}
	return links
}

// Link is a labelled URL.
type Link struct {
	Label string
	URL   string
}
