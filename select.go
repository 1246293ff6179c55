package ghrelease

import (
	"regexp"
	"strings"
)

// ReleaseFilter reports whether a release may be selected.
type ReleaseFilter func(release *Release) bool

// AssetFilter reports whether an asset should be downloaded.
type AssetFilter func(asset *Asset) bool

// SelectRelease returns the first release accepted by filterRelease that has
// at least one asset accepted by filterAsset. Releases are expected newest
// first, as the API returns them. nil filters accept everything. It returns
// nil when no release qualifies.
func SelectRelease(releases []*Release, filterRelease ReleaseFilter, filterAsset AssetFilter) *Release {
	for _, release := range releases {
		if filterRelease != nil && !filterRelease(release) {
			continue
		}
		if len(matchingAssets(release, filterAsset)) > 0 {
			return release
		}
	}
	return nil
}

func matchingAssets(release *Release, filter AssetFilter) []*Asset {
	var assets []*Asset
	for _, asset := range release.Assets {
		if filter == nil || filter(asset) {
			assets = append(assets, asset)
		}
	}
	return assets
}

// SkipDrafts rejects draft releases.
func SkipDrafts(release *Release) bool {
	return !release.Draft
}

// SkipPrereleases rejects releases marked as prerelease.
func SkipPrereleases(release *Release) bool {
	return !release.Prerelease
}

// TagEquals accepts only the release tagged tag.
func TagEquals(tag string) ReleaseFilter {
	return func(release *Release) bool {
		return release.TagName == tag
	}
}

// AllReleases accepts a release when every filter does.
func AllReleases(filters ...ReleaseFilter) ReleaseFilter {
	return func(release *Release) bool {
		for _, f := range filters {
			if f != nil && !f(release) {
				return false
			}
		}
		return true
	}
}

// AssetNameContains accepts assets whose name contains sub.
func AssetNameContains(sub string) AssetFilter {
	return func(asset *Asset) bool {
		return strings.Contains(asset.Name, sub)
	}
}

// AssetNameMatches accepts assets whose name matches re.
func AssetNameMatches(re *regexp.Regexp) AssetFilter {
	return func(asset *Asset) bool {
		return re.MatchString(asset.Name)
	}
}

var archAliases = map[string][]string{
	"amd64": {"amd64", "x86_64", "x64"},
	"386":   {"386", "i686"},
	"arm64": {"arm64", "aarch64"},
}

var osAliases = map[string][]string{
	"darwin":  {"darwin", "macos", "osx"},
	"windows": {"windows", "win64", "win32"},
}

// AssetForPlatform accepts assets whose name mentions both goos and goarch,
// allowing common spellings such as x86_64 or macos. Matching is case-insensitive.
func AssetForPlatform(goos, goarch string) AssetFilter {
	return func(asset *Asset) bool {
		name := strings.ToLower(asset.Name)
		return containsAny(name, aliases(osAliases, goos)) &&
			containsAny(name, aliases(archAliases, goarch))
	}
}

func aliases(table map[string][]string, key string) []string {
	if names, ok := table[key]; ok {
		return names
	}
	return []string{key}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// AllAssets accepts an asset when every filter does.
func AllAssets(filters ...AssetFilter) AssetFilter {
	return func(asset *Asset) bool {
		for _, f := range filters {
			if f != nil && !f(asset) {
				return false
			}
		}
		return true
	}
}
