package charts

import (
	"fmt"
	"net/url"

	"github.com/leapstack-labs/leapchart/internal/ui/echarts"
	"github.com/leapstack-labs/leapchart/internal/ui/host"
)

const (
	// RootID is the page element the chart stream patches into.
	RootID = "chart-root"

	datastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"
	echartsURL  = "https://cdn.jsdelivr.net/npm/echarts@5.6.0/dist/echarts.min.js"
)

// Entry is one chart in the catalog.
type Entry struct {
	Name     string
	Title    string
	HasQuery bool
}

// FlagState is a flag and its value for the current browser.
type FlagState struct {
	host.Flag
	On bool
}

func chartPath(name string) string { return "/charts/" + url.PathEscape(name) }

func entryLabel(e Entry) string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

func flagLabel(f host.Flag) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

func flagState(f FlagState) string {
	if f.On {
		return "on"
	}
	return "off"
}

// toggleFlag is the click expression that flips f.
func toggleFlag(f FlagState) string {
	return fmt.Sprintf("$flag = %s; $value = %t; %s",
		echarts.JSString(f.Key), !f.On, echarts.Action("post", "/api/flags"))
}
