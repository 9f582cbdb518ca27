package stats

import (
	"ctfd-cli/lib/htmlutil"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Path is the admin page holding the instance's summary statistics.
const Path = "admin/statistics"

type Field struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Parse returns the headings of the page's main content in document order.
func Parse(body []byte) ([]Field, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return nil, err
	}

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var fields []Field
	root.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, heading *goquery.Selection) {
		node := heading.Nodes[0]
		text := htmlutil.NormalizeText(htmlutil.GetText(node))
		if text == "" {
			return
		}
		level, err := strconv.Atoi(node.Data[1:])
		if err != nil {
			return
		}
		fields = append(fields, Field{Level: level, Text: text})
	})
	return fields, nil
}
