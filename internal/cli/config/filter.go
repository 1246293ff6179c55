package config

import (
	"regexp"
	"runtime"

	"github.com/dropsite-ai/ghrelease"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Filter holds release and asset selection configuration
type Filter struct {
	Tag                string
	Match              string
	Regex              string
	Platform           bool
	IncludeDrafts      bool
	IncludePrereleases bool
}

// Flags returns CLI flags for release and asset selection
func (c *Filter) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tag",
			Usage:       "Download this release tag instead of the latest",
			Destination: &c.Tag,
		},
		&cli.StringFlag{
			Name:        "match",
			Usage:       "Only download assets whose name contains this substring",
			Destination: &c.Match,
		},
		&cli.StringFlag{
			Name:        "regex",
			Usage:       "Only download assets whose name matches this regular expression",
			Destination: &c.Regex,
		},
		&cli.BoolFlag{
			Name:        "platform",
			Usage:       "Only download assets built for the current OS and architecture",
			Destination: &c.Platform,
		},
		&cli.BoolFlag{
			Name:        "include-drafts",
			Usage:       "Consider draft releases",
			Destination: &c.IncludeDrafts,
		},
		&cli.BoolFlag{
			Name:        "include-prereleases",
			Usage:       "Consider prereleases",
			Destination: &c.IncludePrereleases,
		},
	}
}

// ReleaseFilter combines the release selection flags
func (c *Filter) ReleaseFilter() ghrelease.ReleaseFilter {
	var filters []ghrelease.ReleaseFilter
	if !c.IncludeDrafts {
		filters = append(filters, ghrelease.SkipDrafts)
	}
	if !c.IncludePrereleases && c.Tag == "" {
		filters = append(filters, ghrelease.SkipPrereleases)
	}
	if c.Tag != "" {
		filters = append(filters, ghrelease.TagEquals(c.Tag))
	}
	return ghrelease.AllReleases(filters...)
}

// AssetFilter combines the asset selection flags
func (c *Filter) AssetFilter() (ghrelease.AssetFilter, error) {
	var filters []ghrelease.AssetFilter
	if c.Match != "" {
		filters = append(filters, ghrelease.AssetNameContains(c.Match))
	}
	if c.Regex != "" {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid asset regex", goerr.V("regex", c.Regex))
		}
		filters = append(filters, ghrelease.AssetNameMatches(re))
	}
	if c.Platform {
		filters = append(filters, ghrelease.AssetForPlatform(runtime.GOOS, runtime.GOARCH))
	}
	return ghrelease.AllAssets(filters...), nil
}
