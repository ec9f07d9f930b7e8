package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// disambiguationOptions lists the candidate titles of a disambiguation page.
func (c *Client) disambiguationOptions(ctx context.Context, title string) ([]string, error) {
	params := url.Values{
		"action": {"parse"},
		"page":   {title},
		"prop":   {"text"},
	}
	var resp struct {
		Parse struct {
			Text string `json:"text"`
		} `json:"parse"`
	}
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("disambiguation %q: %w", title, err)
	}
	return parseOptions(resp.Parse.Text)
}

// parseOptions returns the text of the first link in every list item, skipping
// table-of-contents entries.
func parseOptions(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse disambiguation html: %w", err)
	}
	options := []string{}
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if class, _ := li.Attr("class"); strings.Contains(class, "tocsection") {
			return
		}
		link := li.Find("a").First()
		if link.Length() == 0 {
			return
		}
		options = append(options, link.Text())
	})
	return options, nil
}
