// Package page reports document-level facts about a Next.js page: its
// title, how many inline scripts carry flight data, and the pages-router
// __NEXT_DATA__ blob when present.
package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dgallion1/nexthydra/internal/parser"
	"github.com/dgallion1/nexthydra/value"
)

// Info summarizes a page.
type Info struct {
	Title         string       `json:"title"`
	InlineScripts int          `json:"inline_scripts"`
	PushScripts   int          `json:"push_scripts"` // inline scripts containing __next_f.push
	BuildID       string       `json:"build_id,omitempty"`
	HasNextData   bool         `json:"has_next_data"`
	NextData      *value.Value `json:"next_data,omitempty"`
	NextDataError string       `json:"next_data_error,omitempty"`
}

// Inspect parses html and collects Info. The returned error only reports
// documents that could not be read at all; a malformed __NEXT_DATA__ blob
// is recorded in Info.NextDataError.
func Inspect(html string, opts parser.Options) (Info, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Info{}, fmt.Errorf("parse html: %w", err)
	}

	var info Info
	info.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		info.InlineScripts++
		if strings.Contains(s.Text(), "__next_f.push(") {
			info.PushScripts++
		}
	})

	next := doc.Find("script#__NEXT_DATA__").First()
	if next.Length() == 0 {
		return info, nil
	}
	info.HasNextData = true

	v, err := parser.Strict(strings.TrimSpace(next.Text()), opts)
	if err != nil {
		info.NextDataError = err.Error()
		return info, nil
	}
	info.NextData = v
	if id, err := v.Get("buildId").AsStr(); err == nil {
		info.BuildID = id
	}
	return info, nil
}
