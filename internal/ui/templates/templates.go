// Package templates renders the dashboard shell and page content.
package templates

import (
	"encoding/json"
	"fmt"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/presentation"
)

// ContentID is the element id that page patches target.
const ContentID = "page-content"

var pageTitles = map[models.PageID]string{
	models.PageOverview:   "Overview",
	models.PageLocations:  "Locations",
	models.PageCustomers:  "Customers",
	models.PageTimeSeries: "Time Series",
	models.PageLogistics:  "Logistics",
}

func Title(page models.PageID) string {
	if title, ok := pageTitles[page]; ok {
		return title
	}
	return string(page)
}

type NavItem struct {
	Href   string
	Label  string
	Active bool
}

type ChartData struct {
	Name string
	Kind models.ChartKind
	Spec string
}

type ContentData struct {
	ID     string
	Page   models.PageID
	Title  string
	Cards  []presentation.Card
	Charts []ChartData
}

type PageData struct {
	Title     string
	Nav       []NavItem
	Lists     models.FilterValueLists
	Selection models.FilterSelection
	Signals   string
	Content   ContentData
}

type signals struct {
	State    string `json:"state"`
	Year     string `json:"year"`
	Category string `json:"category"`
	Page     string `json:"page"`
}

// NewContent splits a page's charts into metric cards and plotted charts.
func NewContent(page models.PageID, charts []presentation.Chart) (ContentData, error) {
	content := ContentData{ID: ContentID, Page: page, Title: Title(page)}
	for _, c := range charts {
		if card, ok := c.Spec.(presentation.Card); ok {
			content.Cards = append(content.Cards, card)
			continue
		}
		spec, err := json.Marshal(c.Spec)
		if err != nil {
			return ContentData{}, fmt.Errorf("encode chart %s: %w", c.Name, err)
		}
		content.Charts = append(content.Charts, ChartData{Name: c.Name, Kind: c.Kind, Spec: string(spec)})
	}
	return content, nil
}

func NewPageData(page models.PageID, lists models.FilterValueLists, sel models.FilterSelection, charts []presentation.Chart) (PageData, error) {
	content, err := NewContent(page, charts)
	if err != nil {
		return PageData{}, err
	}

	sig, err := json.Marshal(signals{State: sel.State, Year: sel.Year, Category: sel.Category, Page: string(page)})
	if err != nil {
		return PageData{}, fmt.Errorf("encode signals: %w", err)
	}

	nav := make([]NavItem, len(models.Pages))
	for i, p := range models.Pages {
		nav[i] = NavItem{Href: "/pages/" + string(p), Label: Title(p), Active: p == page}
	}

	return PageData{
		Title:     Title(page),
		Nav:       nav,
		Lists:     lists,
		Selection: sel,
		Signals:   string(sig),
		Content:   content,
	}, nil
}
