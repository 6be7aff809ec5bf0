// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package cache

// MonthIndexKey is the key of the month index for (gender, platform).
func MonthIndexKey(gender, platform string) string {
	return "meta_" + gender + "_" + platform
}

// MonthDataKey is the key of one month's records for (gender, platform).
func MonthDataKey(gender, platform, month string) string {
	return "data_" + gender + "_" + platform + "_" + month
}

// MetadataKey is the key of one idol's metadata.
func MetadataKey(name, gender string) string {
	return name + "_" + gender
}

// AllMetadataKey is the key of the bulk metadata list for a gender.
func AllMetadataKey(gender string) string {
	return "all_metadata_" + gender
}
